// Package dbfactory opens one of the supported database backends by name.
package dbfactory

import (
	"path/filepath"
	"strings"

	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/boltdb"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/pebbledb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Supported database types
const (
	TypeLevelDB = "leveldb"
	TypeBolt    = "bolt"
	TypePebble  = "pebble"
	TypeMemory  = "memory"
)

// SupportedTypes lists every database type Open accepts.
var SupportedTypes = []string{TypeLevelDB, TypeBolt, TypePebble, TypeMemory}

// Options configures the database opened by Open.
type Options struct {
	Type         string
	Path         string
	CacheSizeMiB int

	// MetricsRegisterer, when set, receives the backend's own metrics
	// for backends that export any.
	MetricsRegisterer prometheus.Registerer
}

// Open opens the database described by options. Each backend keeps its
// files in its own sub-directory of options.Path so switching types never
// mixes files.
func Open(options Options) (database.Database, error) {
	switch strings.ToLower(options.Type) {
	case TypeLevelDB, "":
		db, err := ldb.NewLevelDB(filepath.Join(options.Path, TypeLevelDB), options.CacheSizeMiB)
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypeMemory:
		db, err := ldb.NewInMemoryLevelDB()
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypeBolt:
		db, err := boltdb.NewBoltDB(filepath.Join(options.Path, TypeBolt))
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypePebble:
		cfg := pebbledb.NewDefaultConfig()
		if options.CacheSizeMiB > 0 {
			cfg.CacheSizeMiB = options.CacheSizeMiB
		}
		db, err := pebbledb.NewPebbleDB(filepath.Join(options.Path, TypePebble), cfg)
		if err != nil {
			return nil, err
		}
		if options.MetricsRegisterer != nil {
			err = db.RegisterMetrics(options.MetricsRegisterer)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return db, nil
	default:
		return nil, errors.Errorf("unknown database type %s, supported types are %s",
			options.Type, strings.Join(SupportedTypes, ", "))
	}
}
