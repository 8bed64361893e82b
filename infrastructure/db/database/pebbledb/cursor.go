package pebbledb

import (
	"bytes"

	"github.com/cockroachdb/pebble"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/pkg/errors"
)

// PebbleDBCursor is a thin wrapper around native pebble iterators.
type PebbleDBCursor struct {
	iterator *pebble.Iterator
	bucket   *database.Bucket

	isPositioned bool
	isClosed     bool
}

func newPebbleCursor(reader pebbleReader, bucket *database.Bucket) (*PebbleDBCursor, error) {
	prefix := bucket.Path()
	iterator, err := reader.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &PebbleDBCursor{
		iterator: iterator,
		bucket:   bucket,
		isClosed: false,
	}, nil
}

// prefixUpperBound returns the smallest key that is greater than every key
// starting with prefix, or nil if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	upperBound := make([]byte, len(prefix))
	copy(upperBound, prefix)
	for i := len(upperBound) - 1; i >= 0; i-- {
		upperBound[i]++
		if upperBound[i] != 0 {
			return upperBound[:i+1]
		}
	}
	return nil
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *PebbleDBCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	// An unpositioned pebble iterator does not advance on Next
	if !c.isPositioned {
		return c.First()
	}
	return c.iterator.Next()
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *PebbleDBCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.isPositioned = true
	return c.iterator.First()
}

// Seek moves the iterator to the first key/value pair whose key is greater
// than or equal to the given key. It returns ErrNotFound if such pair does not
// exist.
func (c *PebbleDBCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}

	notFoundErr := errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	if !bytes.HasPrefix(key.Bytes(), c.bucket.Path()) {
		return notFoundErr
	}
	c.isPositioned = true
	if !c.iterator.SeekGE(key.Bytes()) {
		return notFoundErr
	}
	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *PebbleDBCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if !c.iterator.Valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	fullKeyPath := c.iterator.Key()
	suffix := make([]byte, len(fullKeyPath)-len(c.bucket.Path()))
	copy(suffix, fullKeyPath[len(c.bucket.Path()):])
	return c.bucket.Key(suffix), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *PebbleDBCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if !c.iterator.Valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.iterator.Value(), nil
}

// Close releases associated resources.
func (c *PebbleDBCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	err := c.iterator.Close()
	c.iterator = nil
	c.bucket = nil
	return errors.WithStack(err)
}
