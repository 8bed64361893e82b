package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// BestChainManager tracks the best chain of a single chain
type BestChainManager interface {
	ConsiderTip(stagingArea *StagingArea, tip *externalapi.ChainBlockLink) (bool, error)
	SetBestChain(stagingArea *StagingArea, bestChainHeight uint64, bestChainHash *externalapi.DomainHash) error
}
