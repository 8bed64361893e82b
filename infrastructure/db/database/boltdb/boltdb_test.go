package boltdb

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/stretchr/testify/require"
)

func prepareDatabaseForTest(t *testing.T) *BoltDB {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "bolt"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestBoltDBSanity(t *testing.T) {
	require := require.New(t)
	db := prepareDatabaseForTest(t)

	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	_, err := db.Get(key)
	require.True(database.IsNotFoundError(err))

	require.NoError(db.Put(key, []byte("value")))
	value, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("value"), value)

	exists, err := db.Has(key)
	require.NoError(err)
	require.True(exists)

	require.NoError(db.Delete(key))
	require.NoError(db.Delete(key))
	exists, err = db.Has(key)
	require.NoError(err)
	require.False(exists)
}

func TestBoltDBReopen(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "bolt")

	db, err := NewBoltDB(path)
	require.NoError(err)
	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	require.NoError(db.Put(key, []byte("persisted")))
	require.NoError(db.Close())

	db, err = NewBoltDB(path)
	require.NoError(err)
	defer db.Close()
	value, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("persisted"), value)
}

func TestBoltDBTransaction(t *testing.T) {
	require := require.New(t)
	db := prepareDatabaseForTest(t)

	bucket := database.MakeBucket([]byte("bucket"))
	existing := bucket.Key([]byte("existing"))
	require.NoError(db.Put(existing, []byte("old")))

	tx, err := db.Begin()
	require.NoError(err)

	added := bucket.Key([]byte("added"))
	require.NoError(tx.Put(added, []byte("new")))
	require.NoError(tx.Delete(existing))

	value, err := tx.Get(existing)
	require.NoError(err)
	require.Equal([]byte("old"), value)
	exists, err := tx.Has(added)
	require.NoError(err)
	require.False(exists)

	cursor, err := tx.Cursor(bucket)
	require.NoError(err)
	require.True(cursor.First())
	key, err := cursor.Key()
	require.NoError(err)
	require.Equal("existing", string(key.Suffix()))
	require.False(cursor.Next())
	require.NoError(cursor.Close())

	require.NoError(tx.Commit())
	require.Error(tx.Rollback())

	value, err = db.Get(added)
	require.NoError(err)
	require.Equal([]byte("new"), value)
	exists, err = db.Has(existing)
	require.NoError(err)
	require.False(exists)
}

func TestBoltDBRollback(t *testing.T) {
	require := require.New(t)
	db := prepareDatabaseForTest(t)

	key := database.MakeBucket().Key([]byte("key"))
	tx, err := db.Begin()
	require.NoError(err)
	require.NoError(tx.Put(key, []byte("value")))
	require.NoError(tx.RollbackUnlessClosed())
	require.NoError(tx.RollbackUnlessClosed())
	require.Error(tx.Commit())

	exists, err := db.Has(key)
	require.NoError(err)
	require.False(exists)
}

func TestBoltDBCursorOutlivesWrites(t *testing.T) {
	require := require.New(t)
	db := prepareDatabaseForTest(t)

	bucket := database.MakeBucket([]byte("bucket"))
	for i := 0; i < 3; i++ {
		require.NoError(db.Put(bucket.Key([]byte(fmt.Sprintf("key%d", i))), []byte(fmt.Sprintf("value%d", i))))
	}
	require.NoError(db.Put(database.MakeBucket([]byte("bucket0")).Key([]byte("x")), []byte("outside")))

	cursor, err := db.Cursor(bucket)
	require.NoError(err)
	defer cursor.Close()

	// A write while the cursor is open must neither block nor show up
	require.NoError(db.Put(bucket.Key([]byte("key3")), []byte("value3")))

	count := 0
	for cursor.Next() {
		value, err := cursor.Value()
		require.NoError(err)
		require.Equal(fmt.Sprintf("value%d", count), string(value))
		count++
	}
	require.Equal(3, count)

	require.NoError(cursor.Seek(bucket.Key([]byte("key1"))))
	key, err := cursor.Key()
	require.NoError(err)
	require.Equal("key1", string(key.Suffix()))

	require.True(database.IsNotFoundError(cursor.Seek(bucket.Key([]byte("key9")))))
}

func TestBoltDBConcurrentTransactions(t *testing.T) {
	require := require.New(t)
	db := prepareDatabaseForTest(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := db.Begin()
			if err != nil {
				errs <- err
				return
			}
			bucket := database.MakeBucket([]byte(fmt.Sprintf("writer%d", i)))
			for j := 0; j < 100; j++ {
				err := tx.Put(bucket.Key([]byte(fmt.Sprintf("key%03d", j))), make([]byte, 512))
				if err != nil {
					errs <- err
					return
				}
			}
			errs <- tx.Commit()
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}

	cursor, err := db.Cursor(database.MakeBucket([]byte("writer3")))
	require.NoError(err)
	defer cursor.Close()
	count := 0
	for cursor.Next() {
		count++
	}
	require.Equal(100, count)
}
