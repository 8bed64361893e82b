package blockindexstore

import (
	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/lrucache"
	"github.com/pkg/errors"
)

var bucketName = []byte("index")

// blockIndexStore maps every finalized height to its canonical block.
// Entries are written once and never change.
type blockIndexStore struct {
	bucket model.DBBucket
	cache  *lrucache.Uint64ToHashLRUCache
}

// New instantiates a new BlockIndexStore
func New(prefixBucket model.DBBucket, cacheSize int) model.BlockIndexStore {
	return &blockIndexStore{
		bucket: prefixBucket.Bucket(bucketName),
		cache:  lrucache.NewUint64ToHashLRUCache(cacheSize),
	}
}

// Stage stages the canonical block of height. Re-staging the same block is
// a no-op, while staging a different block over an existing entry fails.
func (bis *blockIndexStore) Stage(dbContext model.DBReader, stagingArea *model.StagingArea,
	height uint64, blockHash *externalapi.DomainHash) error {

	existingHash, err := bis.BlockHashAtHeight(dbContext, stagingArea, height)
	if err == nil {
		if existingHash.Equal(blockHash) {
			return nil
		}
		return errors.Errorf("refusing to overwrite block index entry of height %d: "+
			"%s is already indexed while staging %s", height, existingHash, blockHash)
	}
	if !database.IsNotFoundError(err) {
		return err
	}

	stagingShard := bis.stagingShard(stagingArea)
	stagingShard.toAdd[height] = cloneHash(blockHash)
	return nil
}

func (bis *blockIndexStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bis.stagingShard(stagingArea).isStaged()
}

// BlockHashAtHeight returns the canonical block of height, or an
// ErrNotFound error if height is not indexed
func (bis *blockIndexStore) BlockHashAtHeight(dbContext model.DBReader, stagingArea *model.StagingArea,
	height uint64) (*externalapi.DomainHash, error) {

	stagingShard := bis.stagingShard(stagingArea)

	if blockHash, ok := stagingShard.toAdd[height]; ok {
		return cloneHash(blockHash), nil
	}

	if blockHash, ok := bis.cache.Get(height); ok {
		return cloneHash(blockHash), nil
	}

	hashBytes, err := dbContext.Get(bis.heightAsKey(height))
	if err != nil {
		return nil, err
	}

	blockHash, err := serialization.DeserializeHash(hashBytes)
	if err != nil {
		return nil, err
	}
	bis.cache.Add(height, blockHash)
	return cloneHash(blockHash), nil
}

func cloneHash(hash *externalapi.DomainHash) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(hash.ByteArray())
}

// Has returns whether height is indexed
func (bis *blockIndexStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea, height uint64) (bool, error) {
	stagingShard := bis.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[height]; ok {
		return true, nil
	}

	if _, ok := bis.cache.Get(height); ok {
		return true, nil
	}

	return dbContext.Has(bis.heightAsKey(height))
}

func (bis *blockIndexStore) heightAsKey(height uint64) model.DBKey {
	return bis.bucket.Key(serialization.SerializeHeight(height))
}
