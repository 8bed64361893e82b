package chain

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

const metricsNamespace = "chainkeeper"

type metrics struct {
	loadedChains *atomic.Int64

	attachedBlocks     *prometheus.CounterVec
	linkedBlocks       prometheus.Counter
	bestChainSwitches  prometheus.Counter
	irreversibleMoves  prometheus.Counter
	prunedOrphans      prometheus.Counter
	failedCommits      prometheus.Counter
	loadedChainsGauge  prometheus.GaugeFunc
	attachDuration     prometheus.Histogram
	finalizeDuration   prometheus.Histogram
	divergenceDuration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		loadedChains: atomic.NewInt64(0),
		attachedBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attached_blocks",
			Help:      "number of blocks attached, by attach status",
		}, []string{"status"}),
		linkedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "linked_blocks",
			Help:      "number of blocks attached with a linked parent, not counting cascaded orphans",
		}),
		bestChainSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "best_chain_switches",
			Help:      "number of attaches that found a new best chain",
		}),
		irreversibleMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "irreversible_block_moves",
			Help:      "number of times a last irreversible block moved forward",
		}),
		prunedOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pruned_orphans",
			Help:      "number of orphans dropped below the last irreversible block",
		}),
		failedCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "failed_commits",
			Help:      "number of staged changes that failed to commit",
		}),
		attachDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "attach_duration_seconds",
			Help:      "time spent attaching a block, cascade included",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		finalizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "set_irreversible_duration_seconds",
			Help:      "time spent moving the last irreversible block",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		divergenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "divergence_duration_seconds",
			Help:      "time spent computing divergence paths",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
	}
	m.loadedChainsGauge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "loaded_chains",
		Help:      "number of chains with an in-memory instance",
	}, func() float64 {
		return float64(m.loadedChains.Load())
	})
	return m
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.attachedBlocks,
		m.linkedBlocks,
		m.bestChainSwitches,
		m.irreversibleMoves,
		m.prunedOrphans,
		m.failedCommits,
		m.loadedChainsGauge,
		m.attachDuration,
		m.finalizeDuration,
		m.divergenceDuration,
	}
}

func (m *metrics) register(registerer prometheus.Registerer) error {
	for _, collector := range m.collectors() {
		err := registerer.Register(collector)
		if err != nil {
			return errors.Wrap(err, "failed registering chain manager metrics")
		}
	}
	return nil
}

func (m *metrics) observeAttach(status externalapi.BlockAttachOperationStatus) {
	m.attachedBlocks.WithLabelValues(status.String()).Inc()
	if status.Has(externalapi.StatusLinked) {
		m.linkedBlocks.Inc()
	}
	if status.Has(externalapi.StatusBestChainFound) {
		m.bestChainSwitches.Inc()
	}
}
