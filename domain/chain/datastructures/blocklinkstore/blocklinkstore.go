package blocklinkstore

import (
	"sort"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/database/serialization"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/lrucache"
	"github.com/pkg/errors"
)

var bucketName = []byte("block-links")

// blockLinkStore represents a store of ChainBlockLinks
type blockLinkStore struct {
	bucket model.DBBucket
	cache  *lrucache.LRUCache
}

// New instantiates a new BlockLinkStore
func New(prefixBucket model.DBBucket, cacheSize int) model.BlockLinkStore {
	return &blockLinkStore{
		bucket: prefixBucket.Bucket(bucketName),
		cache:  lrucache.New(cacheSize),
	}
}

// Stage stages the given link, replacing any link of the same hash
func (bls *blockLinkStore) Stage(stagingArea *model.StagingArea, link *externalapi.ChainBlockLink) {
	stagingShard := bls.stagingShard(stagingArea)

	delete(stagingShard.toDelete, *link.BlockHash)
	stagingShard.toAdd[*link.BlockHash] = link.Clone()
}

// Delete stages the removal of the link of the given hash
func (bls *blockLinkStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := bls.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *blockHash)
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (bls *blockLinkStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bls.stagingShard(stagingArea).isStaged()
}

// BlockLink gets the link of the given hash. The returned link is a copy.
func (bls *blockLinkStore) BlockLink(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.ChainBlockLink, error) {

	stagingShard := bls.stagingShard(stagingArea)

	if link, ok := stagingShard.toAdd[*blockHash]; ok {
		return link.Clone(), nil
	}

	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block link %s is staged for deletion", blockHash)
	}

	if link, ok := bls.cache.Get(blockHash); ok {
		return link.(*externalapi.ChainBlockLink).Clone(), nil
	}

	linkBytes, err := dbContext.Get(bls.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	link, err := bls.deserializeBlockLink(linkBytes)
	if err != nil {
		return nil, err
	}
	bls.cache.Add(blockHash, link)
	return link.Clone(), nil
}

// Has returns whether a link of the given hash exists
func (bls *blockLinkStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := bls.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}

	if bls.cache.Has(blockHash) {
		return true, nil
	}

	return dbContext.Has(bls.hashAsKey(blockHash))
}

// BlockLinks returns every link of the chain, staged changes included,
// ordered by height and then by hash
func (bls *blockLinkStore) BlockLinks(dbContext model.DBReader, stagingArea *model.StagingArea) (
	[]*externalapi.ChainBlockLink, error) {

	stagingShard := bls.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(bls.bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	links := make([]*externalapi.ChainBlockLink, 0, len(stagingShard.toAdd))
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		blockHash, err := serialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		if _, ok := stagingShard.toAdd[*blockHash]; ok {
			continue
		}
		if _, ok := stagingShard.toDelete[*blockHash]; ok {
			continue
		}

		linkBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		link, err := bls.deserializeBlockLink(linkBytes)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	for _, link := range stagingShard.toAdd {
		links = append(links, link.Clone())
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].Height != links[j].Height {
			return links[i].Height < links[j].Height
		}
		return links[i].BlockHash.Less(links[j].BlockHash)
	})
	return links, nil
}

func (bls *blockLinkStore) serializeBlockLink(link *externalapi.ChainBlockLink) []byte {
	return serialization.SerializeChainBlockLink(link)
}

func (bls *blockLinkStore) deserializeBlockLink(linkBytes []byte) (*externalapi.ChainBlockLink, error) {
	return serialization.DeserializeChainBlockLink(linkBytes)
}

func (bls *blockLinkStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bls.bucket.Key(serialization.SerializeHash(hash))
}
