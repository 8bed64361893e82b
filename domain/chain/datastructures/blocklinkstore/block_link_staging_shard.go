package blocklinkstore

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

type blockLinkStagingShard struct {
	store    *blockLinkStore
	toAdd    map[externalapi.DomainHash]*externalapi.ChainBlockLink
	toDelete map[externalapi.DomainHash]struct{}
}

func (bls *blockLinkStore) stagingShard(stagingArea *model.StagingArea) *blockLinkStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDBlockLink, func() model.StagingShard {
		return &blockLinkStagingShard{
			store:    bls,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.ChainBlockLink),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*blockLinkStagingShard)
}

func (blss *blockLinkStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash := range blss.toDelete {
		hashCopy := hash
		err := dbTx.Delete(blss.store.hashAsKey(&hashCopy))
		if err != nil {
			return err
		}
	}

	for hash, link := range blss.toAdd {
		hashCopy := hash
		err := dbTx.Put(blss.store.hashAsKey(&hashCopy), blss.store.serializeBlockLink(link))
		if err != nil {
			return err
		}
	}

	return nil
}

func (blss *blockLinkStagingShard) UpdateCache() {
	for hash := range blss.toDelete {
		hashCopy := hash
		blss.store.cache.Remove(&hashCopy)
	}
	for hash, link := range blss.toAdd {
		hashCopy := hash
		blss.store.cache.Add(&hashCopy, link)
	}
}

func (blss *blockLinkStagingShard) isStaged() bool {
	return len(blss.toAdd) != 0 || len(blss.toDelete) != 0
}
