package chain

import (
	"testing"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	require := require.New(t)
	manager := newTestChainManager(t, dbfactory.TypeMemory, DefaultConfig())

	_, err := manager.CreateChain(1, hashOf("G"))
	require.NoError(err)
	attach(t, manager, 1, "2", 2, "1", externalapi.StatusNotLinked)
	attach(t, manager, 1, "1", 1, "G",
		externalapi.StatusLinked|externalapi.StatusMultipleLinked|externalapi.StatusBestChainFound)
	attach(t, manager, 1, "2'", 2, "1", externalapi.StatusLinked)
	require.NoError(manager.SetIrreversibleBlock(1, hashOf("1")))

	require.Equal(2.0, testutil.ToFloat64(manager.metrics.linkedBlocks))
	require.Equal(1.0, testutil.ToFloat64(manager.metrics.bestChainSwitches))
	require.Equal(1.0, testutil.ToFloat64(manager.metrics.attachedBlocks.WithLabelValues("NotLinked")))
	require.Equal(1.0, testutil.ToFloat64(manager.metrics.irreversibleMoves))
	require.Equal(1.0, testutil.ToFloat64(manager.metrics.loadedChainsGauge))
	require.Zero(testutil.ToFloat64(manager.metrics.failedCommits))
}

func TestMetricsRegistration(t *testing.T) {
	require := require.New(t)
	db := openTestDatabase(t, dbfactory.TypeMemory, t.TempDir())
	defer func() {
		require.NoError(db.Close())
	}()

	registry := prometheus.NewRegistry()
	factory := NewFactory()
	factory.SetMetricsRegisterer(registry)

	_, err := factory.NewChainManager(nil, db)
	require.NoError(err)
	families, err := registry.Gather()
	require.NoError(err)
	require.NotEmpty(families)

	_, err = factory.NewChainManager(nil, db)
	require.Error(err, "a second chain manager can't export the same metrics to the same registry")
}
