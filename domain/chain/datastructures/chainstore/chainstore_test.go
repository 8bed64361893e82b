package chainstore

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

func TestChainStore(t *testing.T) {
	testutils.ForAllDatabases(t, func(t *testing.T, dbManager model.DBManager) {
		bucket := database.MakeBucket([]byte("chains"), []byte{0, 0, 0, 1})
		store := New(bucket)

		stagingArea := model.NewStagingArea()
		has, err := store.Has(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("TestChainStore: Has: %+v", err)
		}
		if has {
			t.Fatalf("TestChainStore: empty store reports a chain")
		}
		_, err = store.Chain(dbManager, stagingArea)
		if !database.IsNotFoundError(err) {
			t.Fatalf("TestChainStore: expected ErrNotFound, got %+v", err)
		}

		genesis := testutils.LabelHash("genesis")
		chain := &externalapi.Chain{
			ID:                        1,
			GenesisBlockHash:          genesis,
			BestChainHash:             genesis,
			LastIrreversibleBlockHash: genesis,
			NotLinkedBlocks:           map[string][]string{"a": {"b"}},
		}
		store.Stage(stagingArea, chain)
		if !store.IsStaged(stagingArea) {
			t.Fatalf("TestChainStore: chain is not staged")
		}

		staged, err := store.Chain(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("TestChainStore: Chain: %+v", err)
		}
		if !staged.Equal(chain) || staged.NotLinkedBlocks != nil {
			t.Fatalf("TestChainStore: unexpected staged chain %+v", staged)
		}

		// Staged data is invisible outside its staging area
		has, err = store.Has(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("TestChainStore: Has: %+v", err)
		}
		if has {
			t.Fatalf("TestChainStore: staged chain leaked out of its staging area")
		}

		commit(t, dbManager, stagingArea)

		// A fresh store reads the record from the database rather than the cache
		reloaded, err := New(bucket).Chain(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("TestChainStore: Chain after commit: %+v", err)
		}
		if !reloaded.Equal(chain) {
			t.Fatalf("TestChainStore: expected %+v, got %+v", chain, reloaded)
		}

		// Modifying a returned chain does not affect the store
		reloaded.BestChainHeight = 100
		again, err := store.Chain(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("TestChainStore: Chain: %+v", err)
		}
		if again.BestChainHeight != 0 {
			t.Fatalf("TestChainStore: store returned a shared chain instance")
		}

		otherChain := New(database.MakeBucket([]byte("chains"), []byte{0, 0, 0, 2}))
		has, err = otherChain.Has(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("TestChainStore: Has: %+v", err)
		}
		if has {
			t.Fatalf("TestChainStore: chain record leaked into another chain's bucket")
		}
	})
}
