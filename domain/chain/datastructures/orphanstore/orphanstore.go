package orphanstore

import (
	"sort"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/lrucache"
)

var bucketName = []byte("orphans")

// orphanStore maps a missing parent to every orphan waiting on it
type orphanStore struct {
	bucket model.DBBucket
	cache  *lrucache.LRUCache
}

// New instantiates a new OrphanStore
func New(prefixBucket model.DBBucket, cacheSize int) model.OrphanStore {
	return &orphanStore{
		bucket: prefixBucket.Bucket(bucketName),
		cache:  lrucache.New(cacheSize),
	}
}

// Stage stages the full set of orphans waiting on parentHash. Staging an
// empty set is the same as Delete.
func (ors *orphanStore) Stage(stagingArea *model.StagingArea, parentHash *externalapi.DomainHash,
	orphanHashes []*externalapi.DomainHash) {

	if len(orphanHashes) == 0 {
		ors.Delete(stagingArea, parentHash)
		return
	}

	stagingShard := ors.stagingShard(stagingArea)

	delete(stagingShard.toDelete, *parentHash)
	stagingShard.toAdd[*parentHash] = externalapi.CloneHashes(orphanHashes)
}

// Delete stages the removal of every orphan waiting on parentHash
func (ors *orphanStore) Delete(stagingArea *model.StagingArea, parentHash *externalapi.DomainHash) {
	stagingShard := ors.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *parentHash)
	stagingShard.toDelete[*parentHash] = struct{}{}
}

func (ors *orphanStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ors.stagingShard(stagingArea).isStaged()
}

// Orphans returns the orphans waiting on parentHash, in registration order.
// It returns an empty slice if there are none.
func (ors *orphanStore) Orphans(dbContext model.DBReader, stagingArea *model.StagingArea,
	parentHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	stagingShard := ors.stagingShard(stagingArea)

	if orphanHashes, ok := stagingShard.toAdd[*parentHash]; ok {
		return externalapi.CloneHashes(orphanHashes), nil
	}

	if _, ok := stagingShard.toDelete[*parentHash]; ok {
		return []*externalapi.DomainHash{}, nil
	}

	if orphanHashes, ok := ors.cache.Get(parentHash); ok {
		return externalapi.CloneHashes(orphanHashes.([]*externalapi.DomainHash)), nil
	}

	orphanHashesBytes, err := dbContext.Get(ors.parentHashAsKey(parentHash))
	if database.IsNotFoundError(err) {
		return []*externalapi.DomainHash{}, nil
	}
	if err != nil {
		return nil, err
	}

	orphanHashes, err := ors.deserializeOrphanHashes(orphanHashesBytes)
	if err != nil {
		return nil, err
	}
	ors.cache.Add(parentHash, orphanHashes)
	return externalapi.CloneHashes(orphanHashes), nil
}

// Has returns whether any orphan waits on parentHash
func (ors *orphanStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	parentHash *externalapi.DomainHash) (bool, error) {

	stagingShard := ors.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*parentHash]; ok {
		return true, nil
	}

	if _, ok := stagingShard.toDelete[*parentHash]; ok {
		return false, nil
	}

	if ors.cache.Has(parentHash) {
		return true, nil
	}

	return dbContext.Has(ors.parentHashAsKey(parentHash))
}

// Entries returns every registry entry, staged changes included, ordered
// by parent hash
func (ors *orphanStore) Entries(dbContext model.DBReader, stagingArea *model.StagingArea) ([]*model.OrphanEntry, error) {
	stagingShard := ors.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(ors.bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	entries := make([]*model.OrphanEntry, 0, len(stagingShard.toAdd))
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		parentHash, err := serialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		if _, ok := stagingShard.toAdd[*parentHash]; ok {
			continue
		}
		if _, ok := stagingShard.toDelete[*parentHash]; ok {
			continue
		}

		orphanHashesBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		orphanHashes, err := ors.deserializeOrphanHashes(orphanHashesBytes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &model.OrphanEntry{ParentHash: parentHash, OrphanHashes: orphanHashes})
	}

	for parentHash, orphanHashes := range stagingShard.toAdd {
		parentHashCopy := parentHash
		entries = append(entries, &model.OrphanEntry{
			ParentHash:   &parentHashCopy,
			OrphanHashes: externalapi.CloneHashes(orphanHashes),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ParentHash.Less(entries[j].ParentHash)
	})
	return entries, nil
}

func (ors *orphanStore) serializeOrphanHashes(orphanHashes []*externalapi.DomainHash) []byte {
	return serialization.SerializeHashes(orphanHashes)
}

func (ors *orphanStore) deserializeOrphanHashes(orphanHashesBytes []byte) ([]*externalapi.DomainHash, error) {
	return serialization.DeserializeHashes(orphanHashesBytes)
}

func (ors *orphanStore) parentHashAsKey(parentHash *externalapi.DomainHash) model.DBKey {
	return ors.bucket.Key(serialization.SerializeHash(parentHash))
}
