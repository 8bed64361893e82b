package blocklinker

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// blockLinker attaches blocks to the link graph and resolves the orphans
// waiting on them
type blockLinker struct {
	databaseContext model.DBReader

	orphanManager    model.OrphanManager
	bestChainManager model.BestChainManager

	chainStore     model.ChainStore
	blockLinkStore model.BlockLinkStore
}

// New instantiates a new BlockLinker
func New(databaseContext model.DBReader,
	orphanManager model.OrphanManager,
	bestChainManager model.BestChainManager,
	chainStore model.ChainStore,
	blockLinkStore model.BlockLinkStore) model.BlockLinker {

	return &blockLinker{
		databaseContext:  databaseContext,
		orphanManager:    orphanManager,
		bestChainManager: bestChainManager,
		chainStore:       chainStore,
		blockLinkStore:   blockLinkStore,
	}
}

func (bl *blockLinker) blockLink(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (
	link *externalapi.ChainBlockLink, found bool, err error) {

	link, err = bl.blockLinkStore.BlockLink(bl.databaseContext, stagingArea, blockHash)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return link, true, nil
}
