package divergencemanager

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/pkg/errors"
)

type divergenceManager struct {
	databaseContext model.DBReader
	blockLinkStore  model.BlockLinkStore
}

// New instantiates a new DivergenceManager
func New(databaseContext model.DBReader, blockLinkStore model.BlockLinkStore) model.DivergenceManager {
	return &divergenceManager{
		databaseContext: databaseContext,
		blockLinkStore:  blockLinkStore,
	}
}

// ComputeDivergencePath finds the common ancestor of two linked tips and
// the blocks above it that only one of them contains
func (dm *divergenceManager) ComputeDivergencePath(stagingArea *model.StagingArea, tipA, tipB *externalapi.DomainHash) (
	*externalapi.DivergencePath, error) {

	currentA, err := dm.linkedTip(stagingArea, tipA)
	if err != nil {
		return nil, err
	}
	currentB, err := dm.linkedTip(stagingArea, tipB)
	if err != nil {
		return nil, err
	}

	var onlyInA, onlyInB []*externalapi.DomainHash
	for currentA.Height > currentB.Height {
		onlyInA = append(onlyInA, currentA.BlockHash)
		currentA, err = dm.parent(stagingArea, currentA, tipA, tipB)
		if err != nil {
			return nil, err
		}
	}
	for currentB.Height > currentA.Height {
		onlyInB = append(onlyInB, currentB.BlockHash)
		currentB, err = dm.parent(stagingArea, currentB, tipA, tipB)
		if err != nil {
			return nil, err
		}
	}

	for !currentA.BlockHash.Equal(currentB.BlockHash) {
		onlyInA = append(onlyInA, currentA.BlockHash)
		onlyInB = append(onlyInB, currentB.BlockHash)
		currentA, err = dm.parent(stagingArea, currentA, tipA, tipB)
		if err != nil {
			return nil, err
		}
		currentB, err = dm.parent(stagingArea, currentB, tipA, tipB)
		if err != nil {
			return nil, err
		}
	}

	reverseHashes(onlyInA)
	reverseHashes(onlyInB)
	log.Debugf("Divergence of %s and %s: common ancestor %s, %d blocks only in the first, %d only in the second",
		tipA, tipB, currentA.BlockHash, len(onlyInA), len(onlyInB))

	return &externalapi.DivergencePath{
		CommonAncestor: currentA.BlockHash,
		OnlyInA:        onlyInA,
		OnlyInB:        onlyInB,
	}, nil
}

func (dm *divergenceManager) linkedTip(stagingArea *model.StagingArea, tipHash *externalapi.DomainHash) (
	*externalapi.ChainBlockLink, error) {

	tip, err := dm.blockLinkStore.BlockLink(dm.databaseContext, stagingArea, tipHash)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownBlock, "tip %s", tipHash)
	}
	if err != nil {
		return nil, err
	}
	if !tip.IsLinked {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownBlock, "tip %s is not linked", tipHash)
	}
	return tip, nil
}

func (dm *divergenceManager) parent(stagingArea *model.StagingArea, link *externalapi.ChainBlockLink,
	tipA, tipB *externalapi.DomainHash) (*externalapi.ChainBlockLink, error) {

	if link.PreviousBlockHash == nil {
		log.Criticalf("The ancestries of %s and %s never meet: %s has no previous block", tipA, tipB, link.BlockHash)
		return nil, errors.Wrapf(ruleerrors.ErrDisjointBranches, "%s and %s", tipA, tipB)
	}

	parent, err := dm.blockLinkStore.BlockLink(dm.databaseContext, stagingArea, link.PreviousBlockHash)
	if database.IsNotFoundError(err) {
		log.Criticalf("The ancestries of %s and %s never meet: %s is missing", tipA, tipB, link.PreviousBlockHash)
		return nil, errors.Wrapf(ruleerrors.ErrDisjointBranches, "%s and %s", tipA, tipB)
	}
	if err != nil {
		return nil, err
	}
	return parent, nil
}

func reverseHashes(hashes []*externalapi.DomainHash) {
	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
}
