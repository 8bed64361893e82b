package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// BlockIndexStore represents a store of the canonical block hash at every
// finalized height. Entries are written once and never change.
type BlockIndexStore interface {
	Store
	Stage(dbContext DBReader, stagingArea *StagingArea, height uint64, blockHash *externalapi.DomainHash) error
	BlockHashAtHeight(dbContext DBReader, stagingArea *StagingArea, height uint64) (*externalapi.DomainHash, error)
	Has(dbContext DBReader, stagingArea *StagingArea, height uint64) (bool, error)
}
