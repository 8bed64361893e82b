package model

import "github.com/pkg/errors"

// StagingShard is an interface that enables every store to have it's own Commit logic
// See StagingArea for more details
type StagingShard interface {
	Commit(dbTx DBTransaction) error
	UpdateCache()
}

// StagingShardID is used to identify each of the store's staging shards
type StagingShardID uint64

// StagingShardID constants
const (
	StagingShardIDChain StagingShardID = iota
	StagingShardIDBlockLink
	StagingShardIDOrphan
	StagingShardIDBlockIndex

	// Always leave NumStagingShards as the last constant
	NumStagingShards
)

// StagingArea is single changeset inside the chain manager, that can be either committed or discarded.
//
// Every store that needs to save any data should request a unique StagingShard from the StagingArea
// and write all staged changes into it. On Commit every shard writes its changes into the same
// database transaction, so all changes of a single operation are applied atomically or not at all.
// Store caches are left untouched until UpdateCaches is called, which must happen only after that
// transaction was committed.
type StagingArea struct {
	shards      []StagingShard
	isCommitted bool
}

// NewStagingArea creates a new, empty staging area.
func NewStagingArea() *StagingArea {
	return &StagingArea{
		shards:      make([]StagingShard, NumStagingShards),
		isCommitted: false,
	}
}

// GetOrCreateShard attempts to retrieve a shard with the given name.
// If it does not exist - a new shard is created using `createFunc`.
func (sa *StagingArea) GetOrCreateShard(shardID StagingShardID, createFunc func() StagingShard) StagingShard {
	if sa.shards[shardID] == nil {
		sa.shards[shardID] = createFunc()
	}
	return sa.shards[shardID]
}

// Commit writes all the staged changes into the given transaction,
// shard by shard in StagingShardID order.
func (sa *StagingArea) Commit(dbTx DBTransaction) error {
	if sa.isCommitted {
		return errors.New("Attempt to call Commit on already committed stagingArea")
	}

	for _, shard := range sa.shards {
		if shard == nil { // since sa.shards is an array and not a map, some shard slots might be empty.
			continue
		}
		err := shard.Commit(dbTx)
		if err != nil {
			return err
		}
	}

	sa.isCommitted = true

	return nil
}

// UpdateCaches applies the staged changes to the store caches. Call it
// only after the transaction passed to Commit was itself committed, so
// that a failed commit leaves every cache in line with the database.
func (sa *StagingArea) UpdateCaches() error {
	if !sa.isCommitted {
		return errors.New("Attempt to call UpdateCaches on an uncommitted stagingArea")
	}

	for _, shard := range sa.shards {
		if shard == nil {
			continue
		}
		shard.UpdateCache()
	}
	return nil
}
