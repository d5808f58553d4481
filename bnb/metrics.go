package bnb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the dispatcher's Prometheus collector.
//
// All metrics are namespaced "parbnb":
//
//   - queue_size (gauge): current frontier size.
//   - best_objective (gauge): current incumbent.
//   - updates_total (counter, by worker_rank): update frames received.
//   - work_dispatched_total (counter): nodes handed to workers.
//   - nowork_replies_total (counter): no-work replies sent.
//   - nodes_pruned_total (counter): nodes rejected on insert or purged
//     by an incumbent refresh.
//   - nodes_explored_total (counter): explored nodes reported by workers.
//   - update_seconds (histogram): dispatcher time handling one update.
//
// A nil *Metrics is valid and records nothing, so the dispatcher can
// call the observation methods unconditionally.
type Metrics struct {
	queueSize      prometheus.Gauge
	bestObjective  prometheus.Gauge
	updates        *prometheus.CounterVec
	workDispatched prometheus.Counter
	noworkReplies  prometheus.Counter
	nodesPruned    prometheus.Counter
	nodesExplored  prometheus.Counter
	updateSeconds  prometheus.Histogram
}

// NewMetrics creates and registers the dispatcher metrics with the
// given registry (use prometheus.DefaultRegisterer for the global one).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		queueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "parbnb",
			Name:      "queue_size",
			Help:      "Current number of nodes in the dispatcher frontier.",
		}),
		bestObjective: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "parbnb",
			Name:      "best_objective",
			Help:      "Current global incumbent objective value.",
		}),
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parbnb",
			Name:      "updates_total",
			Help:      "Update frames received, by worker rank.",
		}, []string{"worker_rank"}),
		workDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "parbnb",
			Name:      "work_dispatched_total",
			Help:      "Nodes handed out to workers.",
		}),
		noworkReplies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "parbnb",
			Name:      "nowork_replies_total",
			Help:      "No-work replies sent to idle workers.",
		}),
		nodesPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "parbnb",
			Name:      "nodes_pruned_total",
			Help:      "Nodes rejected at insert or purged on incumbent refresh.",
		}),
		nodesExplored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "parbnb",
			Name:      "nodes_explored_total",
			Help:      "Explored nodes reported by workers.",
		}),
		updateSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parbnb",
			Name:      "update_seconds",
			Help:      "Dispatcher time spent handling one update frame.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
	}
}

func (m *Metrics) setQueueSize(n int) {
	if m == nil {
		return
	}
	m.queueSize.Set(float64(n))
}

func (m *Metrics) setBestObjective(v float64) {
	if m == nil {
		return
	}
	m.bestObjective.Set(v)
}

func (m *Metrics) incUpdate(rank string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(rank).Inc()
}

func (m *Metrics) incWorkDispatched() {
	if m == nil {
		return
	}
	m.workDispatched.Inc()
}

func (m *Metrics) incNoWorkReply() {
	if m == nil {
		return
	}
	m.noworkReplies.Inc()
}

func (m *Metrics) addPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.nodesPruned.Add(float64(n))
}

func (m *Metrics) addExplored(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.nodesExplored.Add(float64(n))
}

func (m *Metrics) observeUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.updateSeconds.Observe(d.Seconds())
}
