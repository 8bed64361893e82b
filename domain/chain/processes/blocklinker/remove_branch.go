package blocklinker

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

// RemoveBranch unlinks blockHash together with every linked block that
// descends from it. The removed descendants lose their execution status,
// blockHash keeps its own. If the best chain was removed, the highest
// remaining linked block becomes the best chain, the lowest hash winning
// ties. Removing a block that is not linked changes nothing.
func (bl *blockLinker) RemoveBranch(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	root, exists, err := bl.blockLink(stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "block %s", blockHash)
	}

	chain, err := bl.chainStore.Chain(bl.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if root.IsIrreversibleBlock || root.Height <= chain.LastIrreversibleBlockHeight {
		return errors.Wrapf(ruleerrors.ErrIrreversibleBranchRemoval,
			"block %s at height %d is not above the last irreversible block %s at height %d",
			blockHash, root.Height, chain.LastIrreversibleBlockHash, chain.LastIrreversibleBlockHeight)
	}
	if !root.IsLinked {
		log.Debugf("Block %s is not linked, there is no branch to remove", blockHash)
		return nil
	}

	links, err := bl.blockLinkStore.BlockLinks(bl.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	linkedChildren := make(map[externalapi.DomainHash][]*externalapi.ChainBlockLink)
	for _, link := range links {
		if link.IsLinked && link.PreviousBlockHash != nil {
			linkedChildren[*link.PreviousBlockHash] = append(linkedChildren[*link.PreviousBlockHash], link)
		}
	}

	removed := make(map[externalapi.DomainHash]struct{})
	root.IsLinked = false
	bl.blockLinkStore.Stage(stagingArea, root)
	removed[*root.BlockHash] = struct{}{}

	queue := []*externalapi.ChainBlockLink{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range linkedChildren[*current.BlockHash] {
			child.IsLinked = false
			child.ExecutionStatus = externalapi.ExecutionNone
			bl.blockLinkStore.Stage(stagingArea, child)
			removed[*child.BlockHash] = struct{}{}
			queue = append(queue, child)
		}
	}

	if _, ok := removed[*chain.BestChainHash]; ok {
		var bestTip *externalapi.ChainBlockLink
		for _, link := range links {
			if !link.IsLinked {
				continue
			}
			if _, ok := removed[*link.BlockHash]; ok {
				continue
			}
			if bestTip == nil || link.Height > bestTip.Height ||
				(link.Height == bestTip.Height && link.BlockHash.Less(bestTip.BlockHash)) {
				bestTip = link
			}
		}
		if bestTip == nil {
			return errors.Errorf("chain %d has no linked block left after removing %s", chain.ID, blockHash)
		}

		chain.BestChainHash = bestTip.BlockHash
		chain.BestChainHeight = bestTip.Height
		bl.chainStore.Stage(stagingArea, chain)
		log.Infof("Best chain of chain %d moved to %s at height %d", chain.ID, bestTip.BlockHash, bestTip.Height)
	}

	log.Warnf("Removed the branch of block %s from chain %d, %d links unlinked", blockHash, chain.ID, len(removed))
	return nil
}
