package chainstore

import (
	"sync"

	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

var chainKeyName = []byte("chain")

// chainStore represents a store for the chain record of a single chain
type chainStore struct {
	key model.DBKey

	cacheLock sync.RWMutex
	cache     *externalapi.Chain
}

// New instantiates a new ChainStore
func New(prefixBucket model.DBBucket) model.ChainStore {
	return &chainStore{
		key: prefixBucket.Key(chainKeyName),
	}
}

// Stage stages the given chain record. NotLinkedBlocks is not stored.
func (cs *chainStore) Stage(stagingArea *model.StagingArea, chain *externalapi.Chain) {
	stagingShard := cs.stagingShard(stagingArea)

	chainClone := chain.Clone()
	chainClone.NotLinkedBlocks = nil
	stagingShard.chain = chainClone
}

func (cs *chainStore) IsStaged(stagingArea *model.StagingArea) bool {
	return cs.stagingShard(stagingArea).isStaged()
}

// Chain gets the chain record. The returned chain is a copy and may be
// modified freely.
func (cs *chainStore) Chain(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.Chain, error) {
	stagingShard := cs.stagingShard(stagingArea)

	if stagingShard.chain != nil {
		return stagingShard.chain.Clone(), nil
	}

	if chain, ok := cs.getCache(); ok {
		return chain, nil
	}

	chainBytes, err := dbContext.Get(cs.key)
	if err != nil {
		return nil, err
	}

	chain, err := cs.deserializeChain(chainBytes)
	if err != nil {
		return nil, err
	}
	cs.setCache(chain)
	return chain.Clone(), nil
}

// Has returns whether a chain record exists
func (cs *chainStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	stagingShard := cs.stagingShard(stagingArea)

	if stagingShard.chain != nil {
		return true, nil
	}

	if _, ok := cs.getCache(); ok {
		return true, nil
	}

	return dbContext.Has(cs.key)
}

func (cs *chainStore) getCache() (*externalapi.Chain, bool) {
	cs.cacheLock.RLock()
	defer cs.cacheLock.RUnlock()

	if cs.cache == nil {
		return nil, false
	}
	return cs.cache.Clone(), true
}

func (cs *chainStore) setCache(chain *externalapi.Chain) {
	cs.cacheLock.Lock()
	defer cs.cacheLock.Unlock()

	cs.cache = chain.Clone()
}

func (cs *chainStore) serializeChain(chain *externalapi.Chain) ([]byte, error) {
	return serialization.SerializeChain(chain), nil
}

func (cs *chainStore) deserializeChain(chainBytes []byte) (*externalapi.Chain, error) {
	return serialization.DeserializeChain(chainBytes)
}
