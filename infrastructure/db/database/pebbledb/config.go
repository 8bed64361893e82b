package pebbledb

// Config defines the tunables of a pebble backed database.
type Config struct {
	CacheSizeMiB int
	Sync         bool
	InMemory     bool
}

// NewDefaultConfig returns the Config used when nothing else is specified.
func NewDefaultConfig() Config {
	return Config{
		CacheSizeMiB: 64,
		Sync:         true,
	}
}
