package chain

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/testutils"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var hashOf = testutils.LabelHash

func openTestDatabase(t *testing.T, dbType string, path string) database.Database {
	db, err := dbfactory.Open(dbfactory.Options{
		Type:         dbType,
		Path:         path,
		CacheSizeMiB: 8,
	})
	require.NoError(t, err)
	return db
}

func newTestChainManager(t *testing.T, dbType string, config *Config) *chainManager {
	db := openTestDatabase(t, dbType, t.TempDir())
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	factory := NewFactory()
	factory.SetMetricsRegisterer(prometheus.NewRegistry())
	manager, err := factory.NewChainManager(config, db)
	require.NoError(t, err)
	return manager.(*chainManager)
}

// forAllDatabases runs testFunc against a fresh chain manager over every
// database type
func forAllDatabases(t *testing.T, config *Config, testFunc func(t *testing.T, manager *chainManager)) {
	for _, dbType := range testutils.DatabaseTypes {
		dbType := dbType
		t.Run(dbType, func(t *testing.T) {
			t.Parallel()
			testFunc(t, newTestChainManager(t, dbType, config))
		})
	}
}

func attach(t *testing.T, manager externalapi.ChainManager, chainID uint32, label string, height uint64,
	parentLabel string, expectedStatus externalapi.BlockAttachOperationStatus) {

	t.Helper()
	status, err := manager.AttachBlockToChain(chainID, testutils.Link(label, height, parentLabel))
	require.NoError(t, err, "attaching %s", label)
	require.Equal(t, expectedStatus, status, "attaching %s", label)
}

func getChain(t *testing.T, manager externalapi.ChainManager, chainID uint32) *externalapi.Chain {
	t.Helper()
	chain, err := manager.GetChain(chainID)
	require.NoError(t, err)
	return chain
}

// requireInvariants checks every invariant of chainID that can be observed
// through the public interface. labels are every block the test attached.
func requireInvariants(t *testing.T, manager externalapi.ChainManager, chainID uint32, labels []string) {
	t.Helper()
	chain := getChain(t, manager, chainID)
	dump := spew.Sdump(chain)

	require.LessOrEqual(t, chain.LastIrreversibleBlockHeight, chain.BestChainHeight, dump)

	best, err := manager.GetChainBlockLink(chainID, chain.BestChainHash)
	require.NoError(t, err, dump)
	require.True(t, best.IsLinked, dump)
	require.Equal(t, chain.BestChainHeight, best.Height, dump)

	for _, label := range labels {
		link, err := manager.GetChainBlockLink(chainID, hashOf(label))
		if err != nil {
			continue
		}
		if link.IsLinked {
			require.Greater(t, best.Height+1, link.Height, "linked %s above best chain\n%s", label, dump)
			requireReachesGenesis(t, manager, chain, link)
			_, waiting := chain.NotLinkedBlocks[link.BlockHash.String()]
			require.False(t, waiting, "linked block %s still has orphans waiting on it\n%s", label, dump)
		}
	}

	for height := uint64(0); height <= chain.LastIrreversibleBlockHeight; height++ {
		index, err := manager.GetChainBlockIndex(chainID, height)
		require.NoError(t, err, dump)
		link, err := manager.GetChainBlockLink(chainID, index.BlockHash)
		require.NoError(t, err, dump)
		require.True(t, link.IsIrreversibleBlock, dump)
		require.Equal(t, height, link.Height, dump)
	}
	_, err = manager.GetChainBlockIndex(chainID, chain.LastIrreversibleBlockHeight+1)
	require.ErrorIs(t, err, ruleerrors.ErrHeightNotFinalized)
}

func requireReachesGenesis(t *testing.T, manager externalapi.ChainManager, chain *externalapi.Chain,
	link *externalapi.ChainBlockLink) {

	t.Helper()
	current := link
	for steps := uint64(0); steps <= link.Height; steps++ {
		if current.PreviousBlockHash == nil {
			require.True(t, current.BlockHash.Equal(chain.GenesisBlockHash),
				"%s ends at %s instead of genesis", link.BlockHash, current.BlockHash)
			return
		}
		parent, err := manager.GetChainBlockLink(chain.ID, current.PreviousBlockHash)
		require.NoError(t, err)
		require.True(t, parent.IsLinked, "linked %s has unlinked ancestor %s", link.BlockHash, parent.BlockHash)
		current = parent
	}
	require.FailNow(t, "ancestry does not terminate", "%s", spew.Sdump(link))
}
