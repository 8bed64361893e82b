package blocklinker

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// ResetToLastIrreversibleBlock forgets everything learned above the last
// irreversible block: links above it become unlinked and unexecuted, the
// orphan registry is emptied and the best chain falls back to the last
// irreversible block.
func (bl *blockLinker) ResetToLastIrreversibleBlock(stagingArea *model.StagingArea) error {
	chain, err := bl.chainStore.Chain(bl.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	links, err := bl.blockLinkStore.BlockLinks(bl.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	resetCount := 0
	for _, link := range links {
		if link.Height <= chain.LastIrreversibleBlockHeight {
			continue
		}
		if !link.IsLinked && link.ExecutionStatus == externalapi.ExecutionNone {
			continue
		}
		link.IsLinked = false
		link.ExecutionStatus = externalapi.ExecutionNone
		bl.blockLinkStore.Stage(stagingArea, link)
		resetCount++
	}

	err = bl.orphanManager.Clear(stagingArea)
	if err != nil {
		return err
	}

	chain.BestChainHash = chain.LastIrreversibleBlockHash
	chain.BestChainHeight = chain.LastIrreversibleBlockHeight
	bl.chainStore.Stage(stagingArea, chain)

	log.Infof("Reset chain %d to its last irreversible block %s at height %d, %d links unlinked",
		chain.ID, chain.LastIrreversibleBlockHash, chain.LastIrreversibleBlockHeight, resetCount)
	return nil
}
