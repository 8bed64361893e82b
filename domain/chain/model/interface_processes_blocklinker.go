package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// BlockLinker attaches blocks to the block-link graph
type BlockLinker interface {
	AttachBlock(stagingArea *StagingArea, link *externalapi.ChainBlockLink) (externalapi.BlockAttachOperationStatus, error)
	ResetToLastIrreversibleBlock(stagingArea *StagingArea) error
	RemoveBranch(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error
}
