package chain

import (
	"sync"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/blockindexstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/blocklinkstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/chainstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/orphanstore"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/bestchainmanager"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/blocklinker"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/divergencemanager"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/executionmanager"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/finalitymanager"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/orphanmanager"
	infrastructuredatabase "github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/prometheus/client_golang/prometheus"
)

var chainsBucket = database.MakeBucket([]byte("chains"))

// Factory instantiates new ChainManagers
type Factory interface {
	NewChainManager(config *Config, db infrastructuredatabase.Database) (externalapi.ChainManager, error)
	SetMetricsRegisterer(registerer prometheus.Registerer)
}

type factory struct {
	metricsRegisterer prometheus.Registerer
}

// NewFactory creates a new ChainManager factory
func NewFactory() Factory {
	return &factory{}
}

// SetMetricsRegisterer makes every ChainManager created afterwards export
// its metrics to registerer
func (f *factory) SetMetricsRegisterer(registerer prometheus.Registerer) {
	f.metricsRegisterer = registerer
}

// NewChainManager instantiates a new ChainManager over db. Chains are
// loaded lazily, on first use of their id.
func (f *factory) NewChainManager(config *Config, db infrastructuredatabase.Database) (externalapi.ChainManager, error) {
	if config == nil {
		config = DefaultConfig()
	}

	chainMetrics := newMetrics()
	if f.metricsRegisterer != nil {
		err := chainMetrics.register(f.metricsRegisterer)
		if err != nil {
			return nil, err
		}
	}

	return &chainManager{
		databaseContext: database.New(db),
		config:          config,
		metrics:         chainMetrics,
		instances:       make(map[uint32]*chainInstance),
		instancesLock:   &sync.Mutex{},
	}, nil
}

// newChainInstance wires the stores and processes of a single chain. Every
// store of the chain lives under the chain's own bucket.
func newChainInstance(databaseContext model.DBManager, config *Config, chainID uint32) *chainInstance {
	prefixBucket := chainsBucket.Bucket(serialization.SerializeChainID(chainID))

	// Data Structures
	chainStore := chainstore.New(prefixBucket)
	blockLinkStore := blocklinkstore.New(prefixBucket, config.LinkCacheSize)
	orphanStore := orphanstore.New(prefixBucket, config.OrphanCacheSize)
	blockIndexStore := blockindexstore.New(prefixBucket, config.IndexCacheSize)

	// Processes
	orphanManager := orphanmanager.New(
		databaseContext,
		orphanStore,
		blockLinkStore,
		config.MaxOrphans)
	bestChainManager := bestchainmanager.New(
		databaseContext,
		chainStore,
		blockLinkStore)
	blockLinker := blocklinker.New(
		databaseContext,
		orphanManager,
		bestChainManager,
		chainStore,
		blockLinkStore)
	finalityManager := finalitymanager.New(
		databaseContext,
		chainStore,
		blockLinkStore,
		blockIndexStore)
	divergenceManager := divergencemanager.New(
		databaseContext,
		blockLinkStore)
	executionManager := executionmanager.New(
		databaseContext,
		blockLinkStore)

	return &chainInstance{
		id:              chainID,
		lock:            &sync.RWMutex{},
		databaseContext: databaseContext,

		orphanManager:     orphanManager,
		bestChainManager:  bestChainManager,
		blockLinker:       blockLinker,
		finalityManager:   finalityManager,
		divergenceManager: divergenceManager,
		executionManager:  executionManager,

		chainStore:      chainStore,
		blockLinkStore:  blockLinkStore,
		blockIndexStore: blockIndexStore,
	}
}
