package chain

// Config holds the parameters of a chain manager
type Config struct {
	// MaxOrphans caps the number of orphans registered per chain. Zero or
	// less disables the cap.
	MaxOrphans int

	// LinkCacheSize is the number of block links kept in memory per chain
	LinkCacheSize int

	// OrphanCacheSize is the number of orphan registry entries kept in
	// memory per chain
	OrphanCacheSize int

	// IndexCacheSize is the number of finalized heights kept in memory
	// per chain
	IndexCacheSize int
}

const (
	defaultMaxOrphans      = 600
	defaultLinkCacheSize   = 10_000
	defaultOrphanCacheSize = 200
	defaultIndexCacheSize  = 2_000
)

// DefaultConfig returns the default chain manager parameters
func DefaultConfig() *Config {
	return &Config{
		MaxOrphans:      defaultMaxOrphans,
		LinkCacheSize:   defaultLinkCacheSize,
		OrphanCacheSize: defaultOrphanCacheSize,
		IndexCacheSize:  defaultIndexCacheSize,
	}
}
