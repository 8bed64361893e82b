package database_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/boltdb"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/pebbledb"
)

type databasePrepareFunc func(t *testing.T, testName string) (db database.Database, name string, teardownFunc func())

// databasePrepareFuncs is a set of functions, in which each function
// prepares a separate database type for testing.
// See testForAllDatabaseTypes for further details.
var databasePrepareFuncs = []databasePrepareFunc{
	prepareLDBForTest,
	prepareInMemoryLDBForTest,
	prepareBoltDBForTest,
	preparePebbleDBForTest,
}

func teardownFor(t *testing.T, testName string, db database.Database) func() {
	return func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
	}
}

func prepareLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "ldb", teardownFor(t, testName, db)
}

func prepareInMemoryLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := ldb.NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "ldb-memory", teardownFor(t, testName, db)
}

func prepareBoltDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := boltdb.NewBoltDB(filepath.Join(t.TempDir(), "bolt"))
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "bolt", teardownFor(t, testName, db)
}

func preparePebbleDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	cfg := pebbledb.NewDefaultConfig()
	cfg.CacheSizeMiB = 8
	db, err := pebbledb.NewPebbleDB(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "pebble", teardownFor(t, testName, db)
}

// testForAllDatabaseTypes runs the given testFunc for every database
// type defined in databasePrepareFuncs. This is to make sure that
// all supported database types adhere to the assumptions defined in
// the interfaces in this package.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for _, prepareDatabase := range databasePrepareFuncs {
		func() {
			db, dbType, teardownFunc := prepareDatabase(t, testName)
			defer teardownFunc()

			testName := fmt.Sprintf("%s: %s", dbType, testName)
			testFunc(t, db, testName)
		}()
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

func populateDatabaseForTest(t *testing.T, db database.Database, testName string) []keyValuePair {
	// Prepare a list of key/value pairs
	entries := make([]keyValuePair, 10)
	for i := 0; i < 10; i++ {
		key := database.MakeBucket([]byte("bucket")).Key([]byte(fmt.Sprintf("key%d", i)))
		value := []byte(fmt.Sprintf("value%d", i))
		entries[i] = keyValuePair{key: key, value: value}
	}

	// Put the pairs into the database
	for _, entry := range entries {
		err := db.Put(entry.key, entry.value)
		if err != nil {
			t.Fatalf("%s: Put unexpectedly "+
				"failed: %s", testName, err)
		}
	}

	return entries
}
