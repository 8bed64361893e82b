package blocklinker

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

// AttachBlock records link in the link graph. If its parent is linked, the
// block is linked and every orphan waiting on it, directly or through other
// orphans, is linked as well. Otherwise the block is registered as an orphan.
func (bl *blockLinker) AttachBlock(stagingArea *model.StagingArea, link *externalapi.ChainBlockLink) (
	externalapi.BlockAttachOperationStatus, error) {

	log.Tracef("AttachBlock start for block %s", link.BlockHash)
	defer log.Tracef("AttachBlock end for block %s", link.BlockHash)

	existingLink, exists, err := bl.blockLink(stagingArea, link.BlockHash)
	if err != nil {
		return externalapi.StatusNone, err
	}
	if exists && existingLink.IsLinked {
		log.Debugf("Block %s is already linked", link.BlockHash)
		return externalapi.StatusNone, nil
	}

	if link.PreviousBlockHash == nil {
		return externalapi.StatusNone, errors.Wrapf(ruleerrors.ErrUnknownBlock,
			"block %s at height %d has no previous block", link.BlockHash, link.Height)
	}

	parentLink, parentExists, err := bl.blockLink(stagingArea, link.PreviousBlockHash)
	if err != nil {
		return externalapi.StatusNone, err
	}
	if parentExists && link.Height != parentLink.Height+1 {
		return externalapi.StatusNone, errors.Wrapf(ruleerrors.ErrUnexpectedHeight,
			"block %s is at height %d while its parent %s is at height %d",
			link.BlockHash, link.Height, parentLink.BlockHash, parentLink.Height)
	}

	newLink := link.Clone()
	newLink.IsIrreversibleBlock = false
	newLink.ExecutionStatus = externalapi.ExecutionNone

	if !parentExists || !parentLink.IsLinked {
		newLink.IsLinked = false
		bl.blockLinkStore.Stage(stagingArea, newLink)
		err := bl.orphanManager.AddOrphan(stagingArea, newLink)
		if err != nil {
			return externalapi.StatusNone, err
		}
		log.Debugf("Block %s is not linked: its parent %s is missing or not linked",
			link.BlockHash, link.PreviousBlockHash)
		return externalapi.StatusNotLinked, nil
	}

	newLink.IsLinked = true
	bl.blockLinkStore.Stage(stagingArea, newLink)

	tip, linkedCount, err := bl.linkOrphanDescendants(stagingArea, newLink)
	if err != nil {
		return externalapi.StatusNone, err
	}

	status := externalapi.StatusLinked
	if linkedCount > 1 {
		status |= externalapi.StatusMultipleLinked
	}

	isBestChainFound, err := bl.bestChainManager.ConsiderTip(stagingArea, tip)
	if err != nil {
		return externalapi.StatusNone, err
	}
	if isBestChainFound {
		status |= externalapi.StatusBestChainFound
	}

	log.Debugf("Attached block %s with status %s: %d blocks linked, tip %s at height %d",
		link.BlockHash, status, linkedCount, tip.BlockHash, tip.Height)
	return status, nil
}

// linkOrphanDescendants links every orphan that descends from the freshly
// linked root, breadth first. It returns the highest linked block, the
// first one reached on ties, and the number of blocks linked including
// the root.
func (bl *blockLinker) linkOrphanDescendants(stagingArea *model.StagingArea, root *externalapi.ChainBlockLink) (
	tip *externalapi.ChainBlockLink, linkedCount int, err error) {

	tip = root
	linkedCount = 1
	queue := []*externalapi.ChainBlockLink{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		childHashes, err := bl.orphanManager.TakeChildren(stagingArea, current.BlockHash)
		if err != nil {
			return nil, 0, err
		}

		for _, childHash := range childHashes {
			child, exists, err := bl.blockLink(stagingArea, childHash)
			if err != nil {
				return nil, 0, err
			}
			if !exists {
				log.Warnf("Orphan %s of %s has no link record. Skipping it", childHash, current.BlockHash)
				continue
			}
			if child.IsLinked {
				continue
			}
			if child.Height != current.Height+1 {
				log.Warnf("Dropping orphan %s: it is at height %d while its parent %s is at height %d",
					child.BlockHash, child.Height, current.BlockHash, current.Height)
				bl.blockLinkStore.Delete(stagingArea, child.BlockHash)
				continue
			}

			log.Tracef("Linking orphan %s at height %d through %s", child.BlockHash, child.Height, current.BlockHash)
			child.IsLinked = true
			bl.blockLinkStore.Stage(stagingArea, child)
			linkedCount++
			if child.Height > tip.Height {
				tip = child
			}
			queue = append(queue, child)
		}
	}

	return tip, linkedCount, nil
}
