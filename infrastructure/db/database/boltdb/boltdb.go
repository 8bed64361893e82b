package boltdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const fileName = "chainkeeper.bolt"

// rootBucket holds every key of the database. Bucketing is expressed
// through key prefixes, same as with the other backends.
var rootBucket = []byte("chainkeeper")

// BoltDB defines a thin wrapper around bbolt.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens a bbolt database inside the given directory,
// creating both the directory and the file if they don't exist.
func NewBoltDB(path string) (*BoltDB, error) {
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	dbPath := filepath.Join(path, fileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening bolt database at %s", dbPath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	log.Debugf("Opened bolt database at %s", dbPath)

	return &BoltDB{db: db}, nil
}

// Close closes the bbolt instance.
func (db *BoltDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *BoltDB) Put(key *database.Key, value []byte) error {
	err := db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key.Bytes(), value)
	})
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *BoltDB) Get(key *database.Key) ([]byte, error) {
	var value []byte
	err := db.db.View(func(tx *bolt.Tx) error {
		var err error
		value, err = get(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has returns true if the database does contains the
// given key.
func (db *BoltDB) Has(key *database.Key) (bool, error) {
	var exists bool
	err := db.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(rootBucket).Get(key.Bytes()) != nil
		return nil
	})
	return exists, errors.WithStack(err)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *BoltDB) Delete(key *database.Key) error {
	err := db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key.Bytes())
	})
	return errors.WithStack(err)
}

// Cursor begins a new cursor over the given bucket.
func (db *BoltDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	var cursor *BoltDBCursor
	err := db.db.View(func(tx *bolt.Tx) error {
		cursor = newBoltDBCursor(tx, bucket)
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cursor, nil
}

// Begin begins a new database transaction. The transaction holds a bolt
// read transaction until it is closed, so the goroutine that holds it must
// not write to the database outside of it: bolt may have to remap its file
// for that write and would wait on the open read transaction forever.
func (db *BoltDB) Begin() (database.Transaction, error) {
	readTx, err := db.db.Begin(false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &BoltDBTransaction{
		db:       db,
		readTx:   readTx,
		isClosed: false,
	}, nil
}

func get(tx *bolt.Tx, key *database.Key) ([]byte, error) {
	value := tx.Bucket(rootBucket).Get(key.Bytes())
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}

	// bbolt values are only valid for the life of the transaction
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}
