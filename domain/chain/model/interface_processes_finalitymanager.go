package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// FinalityManager advances the last irreversible block and serves the
// canonical index below it
type FinalityManager interface {
	SetIrreversibleBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	ChainBlockIndex(stagingArea *StagingArea, height uint64) (*externalapi.ChainBlockIndex, error)
}
