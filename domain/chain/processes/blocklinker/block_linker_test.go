package blocklinker_test

import (
	"errors"
	"testing"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/blocklinkstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/chainstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/orphanstore"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/bestchainmanager"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/blocklinker"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/orphanmanager"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/testutils"
)

type testContext struct {
	dbManager      model.DBManager
	chainStore     model.ChainStore
	blockLinkStore model.BlockLinkStore
	orphanManager  model.OrphanManager
	blockLinker    model.BlockLinker
	stagingArea    *model.StagingArea
}

func setup(t *testing.T) *testContext {
	dbManager := testutils.OpenDatabase(t, "memory")
	bucket := database.MakeBucket([]byte("chains"), []byte{0, 0, 0, 1})
	chainStore := chainstore.New(bucket)
	blockLinkStore := blocklinkstore.New(bucket, 10)
	orphanStore := orphanstore.New(bucket, 10)
	orphanManager := orphanmanager.New(dbManager, orphanStore, blockLinkStore, 100)
	bestChainManager := bestchainmanager.New(dbManager, chainStore, blockLinkStore)

	stagingArea := model.NewStagingArea()
	genesis := testutils.LabelHash("G")
	chainStore.Stage(stagingArea, &externalapi.Chain{
		ID:                        1,
		GenesisBlockHash:          genesis,
		BestChainHash:             genesis,
		LastIrreversibleBlockHash: genesis,
	})
	blockLinkStore.Stage(stagingArea, &externalapi.ChainBlockLink{
		BlockHash:           genesis,
		IsLinked:            true,
		IsIrreversibleBlock: true,
	})

	return &testContext{
		dbManager:      dbManager,
		chainStore:     chainStore,
		blockLinkStore: blockLinkStore,
		orphanManager:  orphanManager,
		blockLinker:    blocklinker.New(dbManager, orphanManager, bestChainManager, chainStore, blockLinkStore),
		stagingArea:    stagingArea,
	}
}

func (tc *testContext) attach(t *testing.T, label string, height uint64, parentLabel string,
	expectedStatus externalapi.BlockAttachOperationStatus) {

	status, err := tc.blockLinker.AttachBlock(tc.stagingArea, testutils.Link(label, height, parentLabel))
	if err != nil {
		t.Fatalf("AttachBlock %s: %+v", label, err)
	}
	if status != expectedStatus {
		t.Fatalf("AttachBlock %s: expected status %s, got %s", label, expectedStatus, status)
	}
}

func (tc *testContext) link(t *testing.T, label string) *externalapi.ChainBlockLink {
	link, err := tc.blockLinkStore.BlockLink(tc.dbManager, tc.stagingArea, testutils.LabelHash(label))
	if err != nil {
		t.Fatalf("BlockLink %s: %+v", label, err)
	}
	return link
}

func (tc *testContext) chain(t *testing.T) *externalapi.Chain {
	chain, err := tc.chainStore.Chain(tc.dbManager, tc.stagingArea)
	if err != nil {
		t.Fatalf("Chain: %+v", err)
	}
	return chain
}

func TestAttachBlockCascade(t *testing.T) {
	tc := setup(t)

	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "C", 3, "B", externalapi.StatusNotLinked)
	tc.attach(t, "D", 4, "C", externalapi.StatusNotLinked)
	tc.attach(t, "C'", 3, "B", externalapi.StatusNotLinked)

	if tc.link(t, "C").IsLinked {
		t.Fatalf("TestAttachBlockCascade: C should not be linked before B arrives")
	}

	tc.attach(t, "B", 2, "A",
		externalapi.StatusLinked|externalapi.StatusMultipleLinked|externalapi.StatusBestChainFound)

	for _, label := range []string{"A", "B", "C", "C'", "D"} {
		if !tc.link(t, label).IsLinked {
			t.Fatalf("TestAttachBlockCascade: %s should be linked", label)
		}
	}
	chain := tc.chain(t)
	if !chain.BestChainHash.Equal(testutils.LabelHash("D")) || chain.BestChainHeight != 4 {
		t.Fatalf("TestAttachBlockCascade: expected best D at 4, got %s at %d", chain.BestChainHash, chain.BestChainHeight)
	}

	count, err := tc.orphanManager.OrphanCount(tc.stagingArea)
	if err != nil {
		t.Fatalf("TestAttachBlockCascade: OrphanCount: %+v", err)
	}
	if count != 0 {
		t.Fatalf("TestAttachBlockCascade: expected no orphans left, got %d", count)
	}

	tc.attach(t, "B", 2, "A", externalapi.StatusNone)
}

func TestAttachBlockHeightChecks(t *testing.T) {
	tc := setup(t)
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)

	_, err := tc.blockLinker.AttachBlock(tc.stagingArea, testutils.Link("X", 5, "A"))
	if !errors.Is(err, ruleerrors.ErrUnexpectedHeight) {
		t.Fatalf("TestAttachBlockHeightChecks: expected ErrUnexpectedHeight, got %+v", err)
	}

	_, err = tc.blockLinker.AttachBlock(tc.stagingArea, &externalapi.ChainBlockLink{
		BlockHash: testutils.LabelHash("NoParent"),
		Height:    1,
	})
	if !errors.Is(err, ruleerrors.ErrUnknownBlock) {
		t.Fatalf("TestAttachBlockHeightChecks: expected ErrUnknownBlock, got %+v", err)
	}

	// An orphan with an inconsistent height is dropped by the cascade
	tc.attach(t, "Y", 7, "Z", externalapi.StatusNotLinked)
	tc.attach(t, "Z", 2, "A", externalapi.StatusLinked|externalapi.StatusBestChainFound)

	has, err := tc.blockLinkStore.Has(tc.dbManager, tc.stagingArea, testutils.LabelHash("Y"))
	if err != nil {
		t.Fatalf("TestAttachBlockHeightChecks: Has: %+v", err)
	}
	if has {
		t.Fatalf("TestAttachBlockHeightChecks: the inconsistent orphan was kept")
	}
}

func TestAttachBlockTieKeepsIncumbent(t *testing.T) {
	tc := setup(t)
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "A'", 1, "G", externalapi.StatusLinked)

	chain := tc.chain(t)
	if !chain.BestChainHash.Equal(testutils.LabelHash("A")) {
		t.Fatalf("TestAttachBlockTieKeepsIncumbent: expected best A, got %s", chain.BestChainHash)
	}
}

func TestResetToLastIrreversibleBlock(t *testing.T) {
	tc := setup(t)
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "B", 2, "A", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "X", 9, "W", externalapi.StatusNotLinked)

	executed := tc.link(t, "A")
	executed.ExecutionStatus = externalapi.ExecutionSuccess
	tc.blockLinkStore.Stage(tc.stagingArea, executed)

	err := tc.blockLinker.ResetToLastIrreversibleBlock(tc.stagingArea)
	if err != nil {
		t.Fatalf("TestResetToLastIrreversibleBlock: %+v", err)
	}

	for _, label := range []string{"A", "B"} {
		link := tc.link(t, label)
		if link.IsLinked || link.ExecutionStatus != externalapi.ExecutionNone {
			t.Fatalf("TestResetToLastIrreversibleBlock: %s was not reset: %s", label, link)
		}
	}
	if !tc.link(t, "G").IsLinked {
		t.Fatalf("TestResetToLastIrreversibleBlock: genesis was unlinked")
	}

	chain := tc.chain(t)
	if !chain.BestChainHash.Equal(testutils.LabelHash("G")) || chain.BestChainHeight != 0 {
		t.Fatalf("TestResetToLastIrreversibleBlock: expected best G at 0, got %s at %d",
			chain.BestChainHash, chain.BestChainHeight)
	}
	count, err := tc.orphanManager.OrphanCount(tc.stagingArea)
	if err != nil {
		t.Fatalf("TestResetToLastIrreversibleBlock: OrphanCount: %+v", err)
	}
	if count != 0 {
		t.Fatalf("TestResetToLastIrreversibleBlock: expected an empty registry, got %d orphans", count)
	}

	// Blocks above the last irreversible block can be attached again
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
}

func TestRemoveBranch(t *testing.T) {
	tc := setup(t)
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "B", 2, "A", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "C", 3, "B", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "B'", 2, "A", externalapi.StatusLinked)

	failed := tc.link(t, "B")
	failed.ExecutionStatus = externalapi.ExecutionFailed
	tc.blockLinkStore.Stage(tc.stagingArea, failed)

	err := tc.blockLinker.RemoveBranch(tc.stagingArea, testutils.LabelHash("B"))
	if err != nil {
		t.Fatalf("TestRemoveBranch: %+v", err)
	}

	for _, label := range []string{"B", "C"} {
		if tc.link(t, label).IsLinked {
			t.Fatalf("TestRemoveBranch: %s is still linked", label)
		}
	}
	if tc.link(t, "B").ExecutionStatus != externalapi.ExecutionFailed {
		t.Fatalf("TestRemoveBranch: the removed block lost its execution status")
	}
	for _, label := range []string{"G", "A", "B'"} {
		if !tc.link(t, label).IsLinked {
			t.Fatalf("TestRemoveBranch: %s was unlinked", label)
		}
	}
	chain := tc.chain(t)
	if !chain.BestChainHash.Equal(testutils.LabelHash("B'")) || chain.BestChainHeight != 2 {
		t.Fatalf("TestRemoveBranch: expected best B' at 2, got %s at %d", chain.BestChainHash, chain.BestChainHeight)
	}

	// Removing an unlinked block changes nothing
	err = tc.blockLinker.RemoveBranch(tc.stagingArea, testutils.LabelHash("C"))
	if err != nil {
		t.Fatalf("TestRemoveBranch: %+v", err)
	}
	if !tc.chain(t).BestChainHash.Equal(testutils.LabelHash("B'")) {
		t.Fatalf("TestRemoveBranch: removing an unlinked block moved the best chain")
	}

	err = tc.blockLinker.RemoveBranch(tc.stagingArea, testutils.LabelHash("G"))
	if !errors.Is(err, ruleerrors.ErrIrreversibleBranchRemoval) {
		t.Fatalf("TestRemoveBranch: expected ErrIrreversibleBranchRemoval, got %+v", err)
	}
	err = tc.blockLinker.RemoveBranch(tc.stagingArea, testutils.LabelHash("Q"))
	if !errors.Is(err, ruleerrors.ErrUnknownBlock) {
		t.Fatalf("TestRemoveBranch: expected ErrUnknownBlock, got %+v", err)
	}
}

func TestRemoveBranchKeepsUnaffectedBestChain(t *testing.T) {
	tc := setup(t)
	tc.attach(t, "A", 1, "G", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "B", 2, "A", externalapi.StatusLinked|externalapi.StatusBestChainFound)
	tc.attach(t, "A'", 1, "G", externalapi.StatusLinked)

	err := tc.blockLinker.RemoveBranch(tc.stagingArea, testutils.LabelHash("A'"))
	if err != nil {
		t.Fatalf("TestRemoveBranchKeepsUnaffectedBestChain: %+v", err)
	}
	chain := tc.chain(t)
	if !chain.BestChainHash.Equal(testutils.LabelHash("B")) || chain.BestChainHeight != 2 {
		t.Fatalf("TestRemoveBranchKeepsUnaffectedBestChain: expected best B at 2, got %s at %d",
			chain.BestChainHash, chain.BestChainHeight)
	}
	if tc.link(t, "A'").IsLinked {
		t.Fatalf("TestRemoveBranchKeepsUnaffectedBestChain: A' is still linked")
	}
}
