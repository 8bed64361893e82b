package orphanstore

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

type orphanStagingShard struct {
	store    *orphanStore
	toAdd    map[externalapi.DomainHash][]*externalapi.DomainHash
	toDelete map[externalapi.DomainHash]struct{}
}

func (ors *orphanStore) stagingShard(stagingArea *model.StagingArea) *orphanStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDOrphan, func() model.StagingShard {
		return &orphanStagingShard{
			store:    ors,
			toAdd:    make(map[externalapi.DomainHash][]*externalapi.DomainHash),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*orphanStagingShard)
}

func (orss *orphanStagingShard) Commit(dbTx model.DBTransaction) error {
	for parentHash := range orss.toDelete {
		parentHashCopy := parentHash
		err := dbTx.Delete(orss.store.parentHashAsKey(&parentHashCopy))
		if err != nil {
			return err
		}
	}

	for parentHash, orphanHashes := range orss.toAdd {
		parentHashCopy := parentHash
		err := dbTx.Put(orss.store.parentHashAsKey(&parentHashCopy), orss.store.serializeOrphanHashes(orphanHashes))
		if err != nil {
			return err
		}
	}

	return nil
}

func (orss *orphanStagingShard) UpdateCache() {
	for parentHash := range orss.toDelete {
		parentHashCopy := parentHash
		orss.store.cache.Remove(&parentHashCopy)
	}
	for parentHash, orphanHashes := range orss.toAdd {
		parentHashCopy := parentHash
		orss.store.cache.Add(&parentHashCopy, orphanHashes)
	}
}

func (orss *orphanStagingShard) isStaged() bool {
	return len(orss.toAdd) != 0 || len(orss.toDelete) != 0
}
