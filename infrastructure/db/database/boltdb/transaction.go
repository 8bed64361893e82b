package boltdb

import (
	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type writeOperation struct {
	key      []byte
	value    []byte
	isDelete bool
}

// BoltDBTransaction reads through a bolt read-only transaction opened at
// Begin and queues its writes, which are applied in a single bolt update
// on Commit.
//
// The read-only transaction is released before the update starts: bolt
// may need to remap its file during a write and cannot do so while a
// read transaction is open in the same goroutine.
type BoltDBTransaction struct {
	db       *BoltDB
	readTx   *bolt.Tx
	writes   []writeOperation
	isClosed bool
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *BoltDBTransaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true

	err := tx.readTx.Rollback()
	if err != nil {
		return errors.WithStack(err)
	}
	if len(tx.writes) == 0 {
		return nil
	}

	err = tx.db.db.Update(func(boltTx *bolt.Tx) error {
		bucket := boltTx.Bucket(rootBucket)
		for _, write := range tx.writes {
			var err error
			if write.isDelete {
				err = bucket.Delete(write.key)
			} else {
				err = bucket.Put(write.key, write.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	tx.writes = nil
	return errors.WithStack(err)
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *BoltDBTransaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.writes = nil
	return errors.WithStack(tx.readTx.Rollback())
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *BoltDBTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *BoltDBTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	tx.writes = append(tx.writes, writeOperation{key: key.Bytes(), value: valueCopy})
	return nil
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *BoltDBTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return get(tx.readTx, key)
}

// Has returns true if the database does contains the
// given key.
func (tx *BoltDBTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return tx.readTx.Bucket(rootBucket).Get(key.Bytes()) != nil, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *BoltDBTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	tx.writes = append(tx.writes, writeOperation{key: key.Bytes(), isDelete: true})
	return nil
}

// Cursor begins a new cursor over the given bucket.
func (tx *BoltDBTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return newBoltDBCursor(tx.readTx, bucket), nil
}
