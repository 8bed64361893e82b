package testutils

import (
	"testing"

	chaindatabase "github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
)

// DatabaseTypes are the database types ForAllDatabases runs against
var DatabaseTypes = []string{
	dbfactory.TypeMemory,
	dbfactory.TypeBolt,
	dbfactory.TypePebble,
}

// OpenDatabase opens a database of the given type in a temporary
// directory. The database is closed when the test ends.
func OpenDatabase(t testing.TB, dbType string) model.DBManager {
	db, err := dbfactory.Open(dbfactory.Options{
		Type:         dbType,
		Path:         t.TempDir(),
		CacheSizeMiB: 8,
	})
	if err != nil {
		t.Fatalf("OpenDatabase: error opening %s database: %+v", dbType, err)
	}
	dbManager := chaindatabase.New(db)
	t.Cleanup(func() {
		err := dbManager.Close()
		if err != nil {
			t.Errorf("OpenDatabase: error closing %s database: %+v", dbType, err)
		}
	})
	return dbManager
}

// ForAllDatabases runs the passed testFunc once against every database
// type, each in its own subtest with a fresh database
func ForAllDatabases(t *testing.T, testFunc func(t *testing.T, dbManager model.DBManager)) {
	for _, dbType := range DatabaseTypes {
		dbType := dbType
		t.Run(dbType, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", dbType)
			testFunc(t, OpenDatabase(t, dbType))
		})
	}
}
