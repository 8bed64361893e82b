package pebbledb

import (
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	delayStart time.Time

	writeStall        prometheus.Counter
	l0Compactions     prometheus.Counter
	otherCompactions  prometheus.Counter
	activeCompactions prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		writeStall: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainkeeper_pebble",
			Name:      "write_stall_seconds",
			Help:      "time spent waiting for disk write",
		}),
		l0Compactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainkeeper_pebble",
			Name:      "l0_compactions",
			Help:      "number of l0 compactions",
		}),
		otherCompactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainkeeper_pebble",
			Name:      "other_compactions",
			Help:      "number of l1+ compactions",
		}),
		activeCompactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chainkeeper_pebble",
			Name:      "active_compactions",
			Help:      "number of active compactions",
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.writeStall, m.l0Compactions, m.otherCompactions, m.activeCompactions}
}

func (m *metrics) eventListener() *pebble.EventListener {
	return &pebble.EventListener{
		CompactionBegin: m.onCompactionBegin,
		CompactionEnd:   m.onCompactionEnd,
		WriteStallBegin: m.onWriteStallBegin,
		WriteStallEnd:   m.onWriteStallEnd,
	}
}

func (m *metrics) onCompactionBegin(info pebble.CompactionInfo) {
	m.activeCompactions.Inc()
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		m.l0Compactions.Inc()
	} else {
		m.otherCompactions.Inc()
	}
}

func (m *metrics) onCompactionEnd(pebble.CompactionInfo) {
	m.activeCompactions.Dec()
}

func (m *metrics) onWriteStallBegin(pebble.WriteStallBeginInfo) {
	m.delayStart = time.Now()
}

func (m *metrics) onWriteStallEnd() {
	m.writeStall.Add(time.Since(m.delayStart).Seconds())
}
