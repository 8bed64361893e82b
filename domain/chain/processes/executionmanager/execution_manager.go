package executionmanager

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

type executionManager struct {
	databaseContext model.DBReader
	blockLinkStore  model.BlockLinkStore
}

// New instantiates a new ExecutionManager
func New(databaseContext model.DBReader, blockLinkStore model.BlockLinkStore) model.ExecutionManager {
	return &executionManager{
		databaseContext: databaseContext,
		blockLinkStore:  blockLinkStore,
	}
}

// NotExecutedBlocks returns the run of not yet executed blocks ending at
// blockHash, oldest first. The run stops at the first executed ancestor.
// If that ancestor failed execution, nothing above it can be executed and
// an empty run is returned.
func (em *executionManager) NotExecutedBlocks(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (
	[]*externalapi.ChainBlockLink, error) {

	link, err := em.blockLinkStore.BlockLink(em.databaseContext, stagingArea, blockHash)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownBlock, "block %s", blockHash)
	}
	if err != nil {
		return nil, err
	}

	var notExecuted []*externalapi.ChainBlockLink
	for {
		if link.ExecutionStatus == externalapi.ExecutionFailed {
			log.Debugf("Block %s failed execution, none of its descendants can be executed", link.BlockHash)
			return []*externalapi.ChainBlockLink{}, nil
		}
		if link.ExecutionStatus != externalapi.ExecutionNone {
			break
		}
		notExecuted = append(notExecuted, link)

		if link.PreviousBlockHash == nil {
			break
		}
		link, err = em.blockLinkStore.BlockLink(em.databaseContext, stagingArea, link.PreviousBlockHash)
		if database.IsNotFoundError(err) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	for i, j := 0, len(notExecuted)-1; i < j; i, j = i+1, j-1 {
		notExecuted[i], notExecuted[j] = notExecuted[j], notExecuted[i]
	}
	return notExecuted, nil
}

// SetExecutionStatus records the outcome of executing blockHash. A block is
// executed once: its status can only move from None to Success or Failed.
func (em *executionManager) SetExecutionStatus(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	status externalapi.ExecutionStatus) error {

	link, err := em.blockLinkStore.BlockLink(em.databaseContext, stagingArea, blockHash)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "block %s", blockHash)
	}
	if err != nil {
		return err
	}

	if status != externalapi.ExecutionSuccess && status != externalapi.ExecutionFailed {
		return errors.Wrapf(ruleerrors.ErrInvalidExecutionStatus, "cannot set execution status of %s to %s",
			blockHash, status)
	}
	if link.ExecutionStatus != externalapi.ExecutionNone {
		return errors.Wrapf(ruleerrors.ErrInvalidExecutionStatus, "execution status of %s is already %s",
			blockHash, link.ExecutionStatus)
	}

	log.Debugf("Execution status of %s set to %s", blockHash, status)
	link.ExecutionStatus = status
	em.blockLinkStore.Stage(stagingArea, link)
	return nil
}
