package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_network_nodes",
			Help: "Number of nodes in the current network",
		},
	)

	r.NetworkEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_network_edges",
			Help: "Number of undirected edges in the current network",
		},
	)

	r.NetworkMaxDegree = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_network_max_degree",
			Help: "Largest node degree in the current network",
		},
	)

	r.NetworkGenerationDur = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opinion_network_generation_seconds",
			Help:    "Time spent generating the preferential-attachment network",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
	)
}

func (r *Registry) initOutputMetrics() {
	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinion_exports_total",
			Help: "Result exports by sink and status",
		},
		[]string{"sink", "status"},
	)

	r.EventsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinion_events_published_total",
			Help: "Events published to subscribers by topic and status",
		},
		[]string{"topic", "status"},
	)
}
