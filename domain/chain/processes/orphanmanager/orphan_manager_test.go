package orphanmanager_test

import (
	"reflect"
	"testing"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/blocklinkstore"
	"github.com/kaspanet/chainkeeper/domain/chain/datastructures/orphanstore"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/processes/orphanmanager"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/testutils"
)

type testContext struct {
	blockLinkStore model.BlockLinkStore
	orphanManager  model.OrphanManager
	dbManager      model.DBManager
}

func setup(t *testing.T, maxOrphans int) *testContext {
	dbManager := testutils.OpenDatabase(t, "memory")
	bucket := database.MakeBucket([]byte("chains"), []byte{0, 0, 0, 1})
	blockLinkStore := blocklinkstore.New(bucket, 10)
	orphanStore := orphanstore.New(bucket, 10)
	return &testContext{
		blockLinkStore: blockLinkStore,
		orphanManager:  orphanmanager.New(dbManager, orphanStore, blockLinkStore, maxOrphans),
		dbManager:      dbManager,
	}
}

// addOrphan stages the orphan's link record and registers it, the way
// the block linker does
func (tc *testContext) addOrphan(t *testing.T, stagingArea *model.StagingArea, orphan *externalapi.ChainBlockLink) {
	tc.blockLinkStore.Stage(stagingArea, orphan)
	err := tc.orphanManager.AddOrphan(stagingArea, orphan)
	if err != nil {
		t.Fatalf("AddOrphan %s: %+v", orphan.BlockHash, err)
	}
}

func (tc *testContext) hasLink(t *testing.T, stagingArea *model.StagingArea, label string) bool {
	has, err := tc.blockLinkStore.Has(tc.dbManager, stagingArea, testutils.LabelHash(label))
	if err != nil {
		t.Fatalf("Has %s: %+v", label, err)
	}
	return has
}

func TestAddAndTakeOrphans(t *testing.T) {
	tc := setup(t, 100)
	stagingArea := model.NewStagingArea()

	x := testutils.Link("X", 3, "P")
	tc.addOrphan(t, stagingArea, x)
	tc.addOrphan(t, stagingArea, testutils.Link("Y", 3, "P"))
	tc.addOrphan(t, stagingArea, x)

	count, err := tc.orphanManager.OrphanCount(stagingArea)
	if err != nil {
		t.Fatalf("TestAddAndTakeOrphans: OrphanCount: %+v", err)
	}
	if count != 2 {
		t.Fatalf("TestAddAndTakeOrphans: expected 2 orphans after a duplicate add, got %d", count)
	}

	isOrphan, err := tc.orphanManager.IsOrphan(stagingArea, x)
	if err != nil {
		t.Fatalf("TestAddAndTakeOrphans: IsOrphan: %+v", err)
	}
	if !isOrphan {
		t.Fatalf("TestAddAndTakeOrphans: X should be registered")
	}

	notLinkedBlocks, err := tc.orphanManager.NotLinkedBlocks(stagingArea)
	if err != nil {
		t.Fatalf("TestAddAndTakeOrphans: NotLinkedBlocks: %+v", err)
	}
	expected := map[string][]string{
		testutils.LabelHash("P").String(): {testutils.LabelHash("X").String(), testutils.LabelHash("Y").String()},
	}
	if !reflect.DeepEqual(notLinkedBlocks, expected) {
		t.Fatalf("TestAddAndTakeOrphans: expected %v, got %v", expected, notLinkedBlocks)
	}

	children, err := tc.orphanManager.TakeChildren(stagingArea, testutils.LabelHash("P"))
	if err != nil {
		t.Fatalf("TestAddAndTakeOrphans: TakeChildren: %+v", err)
	}
	if !externalapi.HashesEqual(children, testutils.LabelHashes("X", "Y")) {
		t.Fatalf("TestAddAndTakeOrphans: unexpected children %v", children)
	}

	children, err = tc.orphanManager.TakeChildren(stagingArea, testutils.LabelHash("P"))
	if err != nil {
		t.Fatalf("TestAddAndTakeOrphans: TakeChildren: %+v", err)
	}
	if len(children) != 0 {
		t.Fatalf("TestAddAndTakeOrphans: children were not unregistered: %v", children)
	}
}

func TestOrphanEviction(t *testing.T) {
	tc := setup(t, 3)
	stagingArea := model.NewStagingArea()

	tc.addOrphan(t, stagingArea, testutils.Link("A1", 5, "P1"))
	tc.addOrphan(t, stagingArea, testutils.Link("A2", 5, "P1"))
	tc.addOrphan(t, stagingArea, testutils.Link("B1", 7, "P2"))
	tc.addOrphan(t, stagingArea, testutils.Link("C1", 9, "P3"))

	count, err := tc.orphanManager.OrphanCount(stagingArea)
	if err != nil {
		t.Fatalf("TestOrphanEviction: OrphanCount: %+v", err)
	}
	if count != 2 {
		t.Fatalf("TestOrphanEviction: expected 2 orphans after eviction, got %d", count)
	}
	if tc.hasLink(t, stagingArea, "A1") || tc.hasLink(t, stagingArea, "A2") {
		t.Fatalf("TestOrphanEviction: link records of evicted orphans were kept")
	}
	if !tc.hasLink(t, stagingArea, "B1") || !tc.hasLink(t, stagingArea, "C1") {
		t.Fatalf("TestOrphanEviction: link records of retained orphans were deleted")
	}
}

func TestOrphanEvictionOfSingleEntry(t *testing.T) {
	tc := setup(t, 2)
	stagingArea := model.NewStagingArea()

	for _, label := range []string{"A", "B", "C"} {
		tc.addOrphan(t, stagingArea, testutils.Link(label, 5, "P"))
	}

	children, err := tc.orphanManager.TakeChildren(stagingArea, testutils.LabelHash("P"))
	if err != nil {
		t.Fatalf("TestOrphanEvictionOfSingleEntry: TakeChildren: %+v", err)
	}
	if !externalapi.HashesEqual(children, testutils.LabelHashes("B", "C")) {
		t.Fatalf("TestOrphanEvictionOfSingleEntry: expected the oldest orphan to go, got %v", children)
	}
	if tc.hasLink(t, stagingArea, "A") {
		t.Fatalf("TestOrphanEvictionOfSingleEntry: link record of the evicted orphan was kept")
	}
}

func TestPruneOrphans(t *testing.T) {
	tc := setup(t, 100)
	stagingArea := model.NewStagingArea()

	tc.addOrphan(t, stagingArea, testutils.Link("Low", 2, "P"))
	tc.addOrphan(t, stagingArea, testutils.Link("High", 5, "P"))
	tc.addOrphan(t, stagingArea, testutils.Link("Edge", 3, "Q"))

	pruned, err := tc.orphanManager.PruneOrphans(stagingArea, 3)
	if err != nil {
		t.Fatalf("TestPruneOrphans: PruneOrphans: %+v", err)
	}
	if pruned != 2 {
		t.Fatalf("TestPruneOrphans: expected 2 pruned orphans, got %d", pruned)
	}
	if tc.hasLink(t, stagingArea, "Low") || tc.hasLink(t, stagingArea, "Edge") {
		t.Fatalf("TestPruneOrphans: link records of pruned orphans were kept")
	}

	notLinkedBlocks, err := tc.orphanManager.NotLinkedBlocks(stagingArea)
	if err != nil {
		t.Fatalf("TestPruneOrphans: NotLinkedBlocks: %+v", err)
	}
	expected := map[string][]string{
		testutils.LabelHash("P").String(): {testutils.LabelHash("High").String()},
	}
	if !reflect.DeepEqual(notLinkedBlocks, expected) {
		t.Fatalf("TestPruneOrphans: expected %v, got %v", expected, notLinkedBlocks)
	}

	err = tc.orphanManager.Clear(stagingArea)
	if err != nil {
		t.Fatalf("TestPruneOrphans: Clear: %+v", err)
	}
	count, err := tc.orphanManager.OrphanCount(stagingArea)
	if err != nil {
		t.Fatalf("TestPruneOrphans: OrphanCount: %+v", err)
	}
	if count != 0 {
		t.Fatalf("TestPruneOrphans: expected an empty registry after Clear, got %d", count)
	}
}
