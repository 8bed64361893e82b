package chain

import (
	"sync"

	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

// chainInstance holds the stores and processes of a single chain. Writers
// hold lock exclusively, readers share it.
type chainInstance struct {
	id              uint32
	lock            *sync.RWMutex
	databaseContext model.DBManager

	// isDetached marks an instance that is not kept by the chain manager
	// because its chain did not exist when it was loaded
	isDetached bool

	orphanManager     model.OrphanManager
	bestChainManager  model.BestChainManager
	blockLinker       model.BlockLinker
	finalityManager   model.FinalityManager
	divergenceManager model.DivergenceManager
	executionManager  model.ExecutionManager

	chainStore      model.ChainStore
	blockLinkStore  model.BlockLinkStore
	blockIndexStore model.BlockIndexStore
}

// requireChain fails with ErrUnknownChain unless the chain was created
func (ci *chainInstance) requireChain(stagingArea *model.StagingArea) error {
	if ci.isDetached {
		return errors.Wrapf(ruleerrors.ErrUnknownChain, "chain %d", ci.id)
	}
	exists, err := ci.chainStore.Has(ci.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ruleerrors.ErrUnknownChain, "chain %d", ci.id)
	}
	return nil
}

// chain returns the chain record together with its NotLinkedBlocks view
func (ci *chainInstance) chain(stagingArea *model.StagingArea) (*externalapi.Chain, error) {
	chain, err := ci.chainStore.Chain(ci.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	notLinkedBlocks, err := ci.orphanManager.NotLinkedBlocks(stagingArea)
	if err != nil {
		return nil, err
	}
	chain.NotLinkedBlocks = notLinkedBlocks
	return chain, nil
}

// commit writes everything staged in stagingArea in a single database
// transaction. Nothing is written, and no cache changes, if any part fails.
func (ci *chainInstance) commit(stagingArea *model.StagingArea) error {
	dbTx, err := ci.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return err
	}

	err = dbTx.Commit()
	if err != nil {
		return err
	}

	return stagingArea.UpdateCaches()
}
