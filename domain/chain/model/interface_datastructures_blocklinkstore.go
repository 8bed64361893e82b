package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// BlockLinkStore represents a store of ChainBlockLinks keyed by block hash
type BlockLinkStore interface {
	Store
	Stage(stagingArea *StagingArea, link *externalapi.ChainBlockLink)
	Delete(stagingArea *StagingArea, blockHash *externalapi.DomainHash)
	BlockLink(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.ChainBlockLink, error)
	Has(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	BlockLinks(dbContext DBReader, stagingArea *StagingArea) ([]*externalapi.ChainBlockLink, error)
}
