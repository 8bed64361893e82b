package orphanstore

import (
	"testing"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/testutils"
)

func commit(t *testing.T, dbManager model.DBManager, stagingArea *model.StagingArea) {
	dbTx, err := dbManager.Begin()
	if err != nil {
		t.Fatalf("Begin: %+v", err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		t.Fatalf("Commit staging area: %+v", err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("Commit: %+v", err)
	}
	err = stagingArea.UpdateCaches()
	if err != nil {
		t.Fatalf("UpdateCaches: %+v", err)
	}
}

func TestOrphanStore(t *testing.T) {
	testutils.ForAllDatabases(t, func(t *testing.T, dbManager model.DBManager) {
		bucket := database.MakeBucket([]byte("chains"), []byte{0, 0, 0, 1})
		store := New(bucket, 10)

		stagingArea := model.NewStagingArea()
		orphans, err := store.Orphans(dbManager, stagingArea, testutils.LabelHash("P"))
		if err != nil {
			t.Fatalf("TestOrphanStore: Orphans: %+v", err)
		}
		if len(orphans) != 0 {
			t.Fatalf("TestOrphanStore: expected no orphans, got %v", orphans)
		}

		store.Stage(stagingArea, testutils.LabelHash("P"), testutils.LabelHashes("X", "Y"))
		store.Stage(stagingArea, testutils.LabelHash("Q"), testutils.LabelHashes("Z"))
		commit(t, dbManager, stagingArea)

		fresh := New(bucket, 10)
		orphans, err = fresh.Orphans(dbManager, model.NewStagingArea(), testutils.LabelHash("P"))
		if err != nil {
			t.Fatalf("TestOrphanStore: Orphans: %+v", err)
		}
		if !externalapi.HashesEqual(orphans, testutils.LabelHashes("X", "Y")) {
			t.Fatalf("TestOrphanStore: unexpected orphans %v", orphans)
		}

		stagingArea = model.NewStagingArea()
		store.Stage(stagingArea, testutils.LabelHash("P"), nil)
		store.Stage(stagingArea, testutils.LabelHash("R"), testutils.LabelHashes("W"))

		has, err := store.Has(dbManager, stagingArea, testutils.LabelHash("P"))
		if err != nil {
			t.Fatalf("TestOrphanStore: Has: %+v", err)
		}
		if has {
			t.Fatalf("TestOrphanStore: staging an empty set did not delete the entry")
		}

		entries, err := store.Entries(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("TestOrphanStore: Entries: %+v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("TestOrphanStore: expected 2 entries, got %d", len(entries))
		}
		if !entries[0].ParentHash.Equal(testutils.LabelHash("Q")) ||
			!externalapi.HashesEqual(entries[0].OrphanHashes, testutils.LabelHashes("Z")) {
			t.Fatalf("TestOrphanStore: unexpected first entry %v -> %v", entries[0].ParentHash, entries[0].OrphanHashes)
		}
		if !entries[1].ParentHash.Equal(testutils.LabelHash("R")) ||
			!externalapi.HashesEqual(entries[1].OrphanHashes, testutils.LabelHashes("W")) {
			t.Fatalf("TestOrphanStore: unexpected second entry %v -> %v", entries[1].ParentHash, entries[1].OrphanHashes)
		}

		commit(t, dbManager, stagingArea)

		entries, err = New(bucket, 10).Entries(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("TestOrphanStore: Entries: %+v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("TestOrphanStore: expected 2 committed entries, got %d", len(entries))
		}
	})
}
