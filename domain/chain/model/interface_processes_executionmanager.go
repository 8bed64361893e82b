package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// ExecutionManager keeps track of which linked blocks were executed
type ExecutionManager interface {
	NotExecutedBlocks(stagingArea *StagingArea, blockHash *externalapi.DomainHash) ([]*externalapi.ChainBlockLink, error)
	SetExecutionStatus(stagingArea *StagingArea, blockHash *externalapi.DomainHash, status externalapi.ExecutionStatus) error
}
