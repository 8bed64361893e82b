package finalitymanager

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

type finalityManager struct {
	databaseContext model.DBReader
	chainStore      model.ChainStore
	blockLinkStore  model.BlockLinkStore
	blockIndexStore model.BlockIndexStore
}

// New instantiates a new FinalityManager
func New(databaseContext model.DBReader,
	chainStore model.ChainStore,
	blockLinkStore model.BlockLinkStore,
	blockIndexStore model.BlockIndexStore) model.FinalityManager {

	return &finalityManager{
		databaseContext: databaseContext,
		chainStore:      chainStore,
		blockLinkStore:  blockLinkStore,
		blockIndexStore: blockIndexStore,
	}
}

// SetIrreversibleBlock moves the last irreversible block forward to the
// linked block blockHash, indexing every height in between. It returns
// false if blockHash already is the last irreversible block.
func (fm *finalityManager) SetIrreversibleBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	log.Debugf("SetIrreversibleBlock start for %s", blockHash)
	defer log.Debugf("SetIrreversibleBlock end for %s", blockHash)

	chain, err := fm.chainStore.Chain(fm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}

	target, err := fm.blockLinkStore.BlockLink(fm.databaseContext, stagingArea, blockHash)
	if database.IsNotFoundError(err) {
		return false, errors.Wrapf(ruleerrors.ErrUnlinkedFinalityTarget, "finality target %s is unknown", blockHash)
	}
	if err != nil {
		return false, err
	}
	if !target.IsLinked {
		return false, errors.Wrapf(ruleerrors.ErrUnlinkedFinalityTarget, "finality target %s is not linked", blockHash)
	}

	if blockHash.Equal(chain.LastIrreversibleBlockHash) {
		log.Debugf("%s is already the last irreversible block", blockHash)
		return false, nil
	}
	if target.Height < chain.LastIrreversibleBlockHeight {
		return false, errors.Wrapf(ruleerrors.ErrFinalityRegression,
			"finality target %s at height %d is below the last irreversible block %s at height %d",
			blockHash, target.Height, chain.LastIrreversibleBlockHash, chain.LastIrreversibleBlockHeight)
	}

	newlyIrreversible := make([]*externalapi.ChainBlockLink, 0, target.Height-chain.LastIrreversibleBlockHeight)
	current := target
	for current.Height > chain.LastIrreversibleBlockHeight {
		newlyIrreversible = append(newlyIrreversible, current)
		current, err = fm.blockLinkStore.BlockLink(fm.databaseContext, stagingArea, current.PreviousBlockHash)
		if err != nil {
			return false, errors.Wrapf(err, "failed walking back from finality target %s", blockHash)
		}
	}
	if !current.BlockHash.Equal(chain.LastIrreversibleBlockHash) {
		return false, errors.Wrapf(
			ruleerrors.NewErrConflictingFinalizedBlock(current.Height, chain.LastIrreversibleBlockHash, current.BlockHash),
			"finality target %s does not descend from the last irreversible block", blockHash)
	}

	for i := len(newlyIrreversible) - 1; i >= 0; i-- {
		link := newlyIrreversible[i]
		err := fm.blockIndexStore.Stage(fm.databaseContext, stagingArea, link.Height, link.BlockHash)
		if err != nil {
			return false, err
		}
		link.IsIrreversibleBlock = true
		fm.blockLinkStore.Stage(stagingArea, link)
	}

	log.Infof("Last irreversible block of chain %d moves from %s (height %d) to %s (height %d)",
		chain.ID, chain.LastIrreversibleBlockHash, chain.LastIrreversibleBlockHeight, blockHash, target.Height)
	chain.LastIrreversibleBlockHash = blockHash
	chain.LastIrreversibleBlockHeight = target.Height
	fm.chainStore.Stage(stagingArea, chain)
	return true, nil
}

// ChainBlockIndex returns the canonical block at a finalized height
func (fm *finalityManager) ChainBlockIndex(stagingArea *model.StagingArea, height uint64) (*externalapi.ChainBlockIndex, error) {
	chain, err := fm.chainStore.Chain(fm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	if height > chain.LastIrreversibleBlockHeight {
		return nil, errors.Wrapf(ruleerrors.ErrHeightNotFinalized,
			"height %d is above the last irreversible block height %d", height, chain.LastIrreversibleBlockHeight)
	}

	blockHash, err := fm.blockIndexStore.BlockHashAtHeight(fm.databaseContext, stagingArea, height)
	if err != nil {
		return nil, errors.Wrapf(err, "finalized height %d is missing from the block index", height)
	}
	return &externalapi.ChainBlockIndex{Height: height, BlockHash: blockHash}, nil
}
