package blockindexstore

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

type blockIndexStagingShard struct {
	store *blockIndexStore
	toAdd map[uint64]*externalapi.DomainHash
}

func (bis *blockIndexStore) stagingShard(stagingArea *model.StagingArea) *blockIndexStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDBlockIndex, func() model.StagingShard {
		return &blockIndexStagingShard{
			store: bis,
			toAdd: make(map[uint64]*externalapi.DomainHash),
		}
	}).(*blockIndexStagingShard)
}

func (biss *blockIndexStagingShard) Commit(dbTx model.DBTransaction) error {
	for height, blockHash := range biss.toAdd {
		err := dbTx.Put(biss.store.heightAsKey(height), serialization.SerializeHash(blockHash))
		if err != nil {
			return err
		}
	}

	return nil
}

func (biss *blockIndexStagingShard) UpdateCache() {
	for height, blockHash := range biss.toAdd {
		biss.store.cache.Add(height, blockHash)
	}
}

func (biss *blockIndexStagingShard) isStaged() bool {
	return len(biss.toAdd) != 0
}
