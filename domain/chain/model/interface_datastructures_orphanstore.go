package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// OrphanEntry is every orphan registered under one missing parent
type OrphanEntry struct {
	ParentHash   *externalapi.DomainHash
	OrphanHashes []*externalapi.DomainHash
}

// OrphanStore represents a store of orphans keyed by their missing parent
type OrphanStore interface {
	Store
	Stage(stagingArea *StagingArea, parentHash *externalapi.DomainHash, orphanHashes []*externalapi.DomainHash)
	Delete(stagingArea *StagingArea, parentHash *externalapi.DomainHash)
	Orphans(dbContext DBReader, stagingArea *StagingArea, parentHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	Has(dbContext DBReader, stagingArea *StagingArea, parentHash *externalapi.DomainHash) (bool, error)
	Entries(dbContext DBReader, stagingArea *StagingArea) ([]*OrphanEntry, error)
}
