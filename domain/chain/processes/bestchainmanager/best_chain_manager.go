package bestchainmanager

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

type bestChainManager struct {
	databaseContext model.DBReader
	chainStore      model.ChainStore
	blockLinkStore  model.BlockLinkStore
}

// New instantiates a new BestChainManager
func New(databaseContext model.DBReader,
	chainStore model.ChainStore,
	blockLinkStore model.BlockLinkStore) model.BestChainManager {

	return &bestChainManager{
		databaseContext: databaseContext,
		chainStore:      chainStore,
		blockLinkStore:  blockLinkStore,
	}
}

// ConsiderTip makes tip the best chain if it is strictly higher than the
// current best chain. On a tie the current best chain is kept.
func (bcm *bestChainManager) ConsiderTip(stagingArea *model.StagingArea, tip *externalapi.ChainBlockLink) (bool, error) {
	chain, err := bcm.chainStore.Chain(bcm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}

	if tip.Height <= chain.BestChainHeight {
		log.Tracef("Tip %s at height %d does not beat best chain %s at height %d",
			tip.BlockHash, tip.Height, chain.BestChainHash, chain.BestChainHeight)
		return false, nil
	}

	log.Debugf("Best chain moves from %s (height %d) to %s (height %d)",
		chain.BestChainHash, chain.BestChainHeight, tip.BlockHash, tip.Height)
	chain.BestChainHash = tip.BlockHash
	chain.BestChainHeight = tip.Height
	bcm.chainStore.Stage(stagingArea, chain)
	return true, nil
}

// SetBestChain moves the best chain to the linked block bestChainHash
// at bestChainHeight. The best chain never moves down.
func (bcm *bestChainManager) SetBestChain(stagingArea *model.StagingArea, bestChainHeight uint64,
	bestChainHash *externalapi.DomainHash) error {

	chain, err := bcm.chainStore.Chain(bcm.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	if bestChainHeight < chain.BestChainHeight {
		return errors.Wrapf(ruleerrors.ErrBestChainRegression, "cannot move best chain from height %d down to %d",
			chain.BestChainHeight, bestChainHeight)
	}

	link, err := bcm.blockLinkStore.BlockLink(bcm.databaseContext, stagingArea, bestChainHash)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "best chain candidate %s", bestChainHash)
	}
	if err != nil {
		return err
	}
	if !link.IsLinked {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "best chain candidate %s is not linked", bestChainHash)
	}
	if link.Height != bestChainHeight {
		return errors.Wrapf(ruleerrors.ErrUnexpectedHeight, "best chain candidate %s is at height %d, not %d",
			bestChainHash, link.Height, bestChainHeight)
	}

	log.Debugf("Best chain set to %s at height %d", bestChainHash, bestChainHeight)
	chain.BestChainHash = bestChainHash
	chain.BestChainHeight = bestChainHeight
	bcm.chainStore.Stage(stagingArea, chain)
	return nil
}
