package pebbledb

import (
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// PebbleDB defines a thin wrapper around pebble.
type PebbleDB struct {
	db           *pebble.DB
	writeOptions *pebble.WriteOptions
	metrics      *metrics
}

// NewPebbleDB opens a pebble instance defined by the given path.
// If cfg.InMemory is set the path only names the in-memory filesystem
// root and nothing touches the disk.
func NewPebbleDB(path string, cfg Config) (*PebbleDB, error) {
	cache := pebble.NewCache(int64(cfg.CacheSizeMiB) * 1024 * 1024)
	defer cache.Unref()

	m := newMetrics()
	options := &pebble.Options{
		Cache:         cache,
		Logger:        pebbleLogger{log: log},
		EventListener: m.eventListener(),
	}
	if cfg.InMemory {
		options.FS = vfs.NewMem()
	}

	pdb, err := pebble.Open(path, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening pebble at %s", path)
	}

	writeOptions := pebble.NoSync
	if cfg.Sync {
		writeOptions = pebble.Sync
	}
	return &PebbleDB{
		db:           pdb,
		writeOptions: writeOptions,
		metrics:      m,
	}, nil
}

// RegisterMetrics registers the database's compaction and write stall
// metrics with the given registerer.
func (db *PebbleDB) RegisterMetrics(registerer prometheus.Registerer) error {
	for _, collector := range db.metrics.collectors() {
		err := registerer.Register(collector)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Close closes the pebble instance.
func (db *PebbleDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *PebbleDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.db.Set(key.Bytes(), value, db.writeOptions))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *PebbleDB) Get(key *database.Key) ([]byte, error) {
	return get(db.db, key)
}

// Has returns true if the database does contains the
// given key.
func (db *PebbleDB) Has(key *database.Key) (bool, error) {
	return has(db.db, key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *PebbleDB) Delete(key *database.Key) error {
	return errors.WithStack(db.db.Delete(key.Bytes(), db.writeOptions))
}

// Cursor begins a new cursor over the given bucket.
func (db *PebbleDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return newPebbleCursor(db.db, bucket)
}

// Begin begins a new database transaction.
func (db *PebbleDB) Begin() (database.Transaction, error) {
	return &PebbleDBTransaction{
		db:       db,
		snapshot: db.db.NewSnapshot(),
		batch:    db.db.NewBatch(),
		isClosed: false,
	}, nil
}

type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func get(reader pebbleReader, key *database.Key) ([]byte, error) {
	value, closer, err := reader.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	defer closer.Close()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func has(reader pebbleReader, key *database.Key) (bool, error) {
	_, closer, err := reader.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, errors.WithStack(closer.Close())
}
