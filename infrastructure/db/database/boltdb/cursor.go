package boltdb

import (
	"bytes"
	"sort"

	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type keyValuePair struct {
	suffix []byte
	value  []byte
}

// BoltDBCursor iterates over a copy of the bucket's entries taken when
// the cursor was opened. The copy lets the cursor outlive the bolt read
// transaction, so holding a cursor never blocks a writer from remapping
// the data file.
type BoltDBCursor struct {
	bucket  *database.Bucket
	entries []keyValuePair
	index   int

	isClosed bool
}

func newBoltDBCursor(tx *bolt.Tx, bucket *database.Bucket) *BoltDBCursor {
	prefix := bucket.Path()
	var entries []keyValuePair

	boltCursor := tx.Bucket(rootBucket).Cursor()
	for key, value := boltCursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = boltCursor.Next() {
		suffix := make([]byte, len(key)-len(prefix))
		copy(suffix, key[len(prefix):])
		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		entries = append(entries, keyValuePair{suffix: suffix, value: valueCopy})
	}

	return &BoltDBCursor{
		bucket:   bucket,
		entries:  entries,
		index:    -1,
		isClosed: false,
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *BoltDBCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if c.index < len(c.entries) {
		c.index++
	}
	return c.index < len(c.entries)
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *BoltDBCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.index = 0
	return len(c.entries) > 0
}

// Seek moves the iterator to the first key/value pair whose key is greater
// than or equal to the given key. It returns ErrNotFound if such pair does not
// exist.
func (c *BoltDBCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}

	notFoundErr := errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	prefix := c.bucket.Path()
	keyBytes := key.Bytes()
	if !bytes.HasPrefix(keyBytes, prefix) {
		return notFoundErr
	}
	suffix := keyBytes[len(prefix):]
	c.index = sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].suffix, suffix) >= 0
	})
	if c.index >= len(c.entries) {
		return notFoundErr
	}
	return nil
}

func (c *BoltDBCursor) isPositioned() bool {
	return c.index >= 0 && c.index < len(c.entries)
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *BoltDBCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if !c.isPositioned() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	return c.bucket.Key(c.entries[c.index].suffix), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *BoltDBCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if !c.isPositioned() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.entries[c.index].value, nil
}

// Close releases associated resources.
func (c *BoltDBCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.entries = nil
	c.bucket = nil
	return nil
}
