package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// ChainStore represents a store of the Chain record of a single chain
type ChainStore interface {
	Store
	Stage(stagingArea *StagingArea, chain *externalapi.Chain)
	Chain(dbContext DBReader, stagingArea *StagingArea) (*externalapi.Chain, error)
	Has(dbContext DBReader, stagingArea *StagingArea) (bool, error)
}
