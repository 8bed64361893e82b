package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// OrphanManager maintains the registry of blocks waiting on a missing parent
type OrphanManager interface {
	AddOrphan(stagingArea *StagingArea, orphan *externalapi.ChainBlockLink) error
	TakeChildren(stagingArea *StagingArea, parentHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	IsOrphan(stagingArea *StagingArea, orphan *externalapi.ChainBlockLink) (bool, error)
	OrphanCount(stagingArea *StagingArea) (int, error)
	NotLinkedBlocks(stagingArea *StagingArea) (map[string][]string, error)
	PruneOrphans(stagingArea *StagingArea, libHeight uint64) (int, error)
	Clear(stagingArea *StagingArea) error
}
