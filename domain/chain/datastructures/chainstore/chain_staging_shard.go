package chainstore

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

type chainStagingShard struct {
	store *chainStore
	chain *externalapi.Chain
}

func (cs *chainStore) stagingShard(stagingArea *model.StagingArea) *chainStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDChain, func() model.StagingShard {
		return &chainStagingShard{
			store: cs,
			chain: nil,
		}
	}).(*chainStagingShard)
}

func (css *chainStagingShard) Commit(dbTx model.DBTransaction) error {
	if css.chain == nil {
		return nil
	}

	chainBytes, err := css.store.serializeChain(css.chain)
	if err != nil {
		return err
	}
	return dbTx.Put(css.store.key, chainBytes)
}

func (css *chainStagingShard) UpdateCache() {
	if css.chain != nil {
		css.store.setCache(css.chain)
	}
}

func (css *chainStagingShard) isStaged() bool {
	return css.chain != nil
}
