package orphanmanager

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
)

// orphanManager keeps the registry of blocks whose parent is not linked yet
type orphanManager struct {
	databaseContext model.DBReader
	orphanStore     model.OrphanStore
	blockLinkStore  model.BlockLinkStore
	maxOrphans      int
}

// New instantiates a new OrphanManager
func New(databaseContext model.DBReader,
	orphanStore model.OrphanStore,
	blockLinkStore model.BlockLinkStore,
	maxOrphans int) model.OrphanManager {

	return &orphanManager{
		databaseContext: databaseContext,
		orphanStore:     orphanStore,
		blockLinkStore:  blockLinkStore,
		maxOrphans:      maxOrphans,
	}
}

// AddOrphan registers orphan under its missing parent. Registering the same
// orphan twice is a no-op. When the registry grows beyond maxOrphans, other
// entries are evicted together with the link records of their orphans.
func (om *orphanManager) AddOrphan(stagingArea *model.StagingArea, orphan *externalapi.ChainBlockLink) error {
	if orphan.PreviousBlockHash == nil {
		return errors.Errorf("orphan %s has no previous block", orphan.BlockHash)
	}

	orphanHashes, err := om.orphanStore.Orphans(om.databaseContext, stagingArea, orphan.PreviousBlockHash)
	if err != nil {
		return err
	}
	for _, orphanHash := range orphanHashes {
		if orphanHash.Equal(orphan.BlockHash) {
			log.Tracef("Orphan %s is already registered under %s", orphan.BlockHash, orphan.PreviousBlockHash)
			return nil
		}
	}

	orphanHashes = append(orphanHashes, orphan.BlockHash)
	om.orphanStore.Stage(stagingArea, orphan.PreviousBlockHash, orphanHashes)
	log.Debugf("Registered orphan %s waiting on %s", orphan.BlockHash, orphan.PreviousBlockHash)

	if om.maxOrphans <= 0 {
		return nil
	}
	return om.evictExcessOrphans(stagingArea, orphan.PreviousBlockHash)
}

// evictExcessOrphans evicts whole entries in cursor order, keeping the
// entry of protectedParent for last. If that entry alone is still too
// large, its oldest orphans are dropped.
func (om *orphanManager) evictExcessOrphans(stagingArea *model.StagingArea, protectedParent *externalapi.DomainHash) error {
	entries, err := om.orphanStore.Entries(om.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	orphanCount := 0
	var protectedEntry *model.OrphanEntry
	for _, entry := range entries {
		orphanCount += len(entry.OrphanHashes)
		if entry.ParentHash.Equal(protectedParent) {
			protectedEntry = entry
		}
	}

	for _, entry := range entries {
		if orphanCount <= om.maxOrphans {
			return nil
		}
		if entry == protectedEntry {
			continue
		}

		log.Debugf("Orphan registry holds %d orphans, over the limit of %d. Evicting the %d orphans of %s",
			orphanCount, om.maxOrphans, len(entry.OrphanHashes), entry.ParentHash)
		err := om.deleteUnlinkedBlockLinks(stagingArea, entry.OrphanHashes)
		if err != nil {
			return err
		}
		om.orphanStore.Delete(stagingArea, entry.ParentHash)
		orphanCount -= len(entry.OrphanHashes)
	}

	if orphanCount <= om.maxOrphans || protectedEntry == nil {
		return nil
	}

	excess := orphanCount - om.maxOrphans
	log.Debugf("Evicting the %d oldest orphans of %s", excess, protectedEntry.ParentHash)
	err = om.deleteUnlinkedBlockLinks(stagingArea, protectedEntry.OrphanHashes[:excess])
	if err != nil {
		return err
	}
	om.orphanStore.Stage(stagingArea, protectedEntry.ParentHash, protectedEntry.OrphanHashes[excess:])
	return nil
}

func (om *orphanManager) deleteUnlinkedBlockLinks(stagingArea *model.StagingArea, blockHashes []*externalapi.DomainHash) error {
	for _, blockHash := range blockHashes {
		link, err := om.blockLinkStore.BlockLink(om.databaseContext, stagingArea, blockHash)
		if database.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return err
		}
		if link.IsLinked {
			continue
		}
		om.blockLinkStore.Delete(stagingArea, blockHash)
	}
	return nil
}

// TakeChildren unregisters and returns every orphan waiting on parentHash,
// in registration order
func (om *orphanManager) TakeChildren(stagingArea *model.StagingArea, parentHash *externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	orphanHashes, err := om.orphanStore.Orphans(om.databaseContext, stagingArea, parentHash)
	if err != nil {
		return nil, err
	}
	if len(orphanHashes) == 0 {
		return orphanHashes, nil
	}

	om.orphanStore.Delete(stagingArea, parentHash)
	return orphanHashes, nil
}

// IsOrphan returns whether orphan is registered under its previous block
func (om *orphanManager) IsOrphan(stagingArea *model.StagingArea, orphan *externalapi.ChainBlockLink) (bool, error) {
	if orphan.PreviousBlockHash == nil {
		return false, nil
	}

	orphanHashes, err := om.orphanStore.Orphans(om.databaseContext, stagingArea, orphan.PreviousBlockHash)
	if err != nil {
		return false, err
	}
	for _, orphanHash := range orphanHashes {
		if orphanHash.Equal(orphan.BlockHash) {
			return true, nil
		}
	}
	return false, nil
}

// OrphanCount returns the number of registered orphans
func (om *orphanManager) OrphanCount(stagingArea *model.StagingArea) (int, error) {
	entries, err := om.orphanStore.Entries(om.databaseContext, stagingArea)
	if err != nil {
		return 0, err
	}

	orphanCount := 0
	for _, entry := range entries {
		orphanCount += len(entry.OrphanHashes)
	}
	return orphanCount, nil
}

// NotLinkedBlocks returns the registry as a map from the hex of every
// missing parent to the hex of its orphans
func (om *orphanManager) NotLinkedBlocks(stagingArea *model.StagingArea) (map[string][]string, error) {
	entries, err := om.orphanStore.Entries(om.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	notLinkedBlocks := make(map[string][]string, len(entries))
	for _, entry := range entries {
		orphanStrings := make([]string, len(entry.OrphanHashes))
		for i, orphanHash := range entry.OrphanHashes {
			orphanStrings[i] = orphanHash.String()
		}
		notLinkedBlocks[entry.ParentHash.String()] = orphanStrings
	}
	return notLinkedBlocks, nil
}

// PruneOrphans drops every orphan at or below libHeight together with its
// link record. Such orphans can never be linked without contradicting
// finalized history. Orphans whose link record is missing are dropped as
// well. It returns the number of orphans dropped.
func (om *orphanManager) PruneOrphans(stagingArea *model.StagingArea, libHeight uint64) (int, error) {
	entries, err := om.orphanStore.Entries(om.databaseContext, stagingArea)
	if err != nil {
		return 0, err
	}

	prunedCount := 0
	for _, entry := range entries {
		remaining := make([]*externalapi.DomainHash, 0, len(entry.OrphanHashes))
		for _, orphanHash := range entry.OrphanHashes {
			link, err := om.blockLinkStore.BlockLink(om.databaseContext, stagingArea, orphanHash)
			if database.IsNotFoundError(err) {
				prunedCount++
				continue
			}
			if err != nil {
				return 0, err
			}
			if link.Height > libHeight {
				remaining = append(remaining, orphanHash)
				continue
			}

			if !link.IsLinked {
				om.blockLinkStore.Delete(stagingArea, orphanHash)
			}
			prunedCount++
		}

		if len(remaining) != len(entry.OrphanHashes) {
			om.orphanStore.Stage(stagingArea, entry.ParentHash, remaining)
		}
	}

	if prunedCount > 0 {
		log.Debugf("Pruned %d orphans at or below height %d", prunedCount, libHeight)
	}
	return prunedCount, nil
}

// Clear unregisters every orphan. Link records are left untouched.
func (om *orphanManager) Clear(stagingArea *model.StagingArea) error {
	entries, err := om.orphanStore.Entries(om.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		om.orphanStore.Delete(stagingArea, entry.ParentHash)
	}
	return nil
}
