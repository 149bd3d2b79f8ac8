package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the simulator
type Registry struct {
	// Simulation Metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	RunSteps           prometheus.Histogram
	StepsTotal         prometheus.Counter
	StepDuration       prometheus.Histogram
	InfluencedAgents   prometheus.Gauge
	SeededAgents       prometheus.Gauge
	MeanOpinion        prometheus.Gauge
	OpinionSpread      prometheus.Gauge
	SetupFailuresTotal prometheus.Counter

	// Network Metrics
	NetworkNodes         prometheus.Gauge
	NetworkEdges         prometheus.Gauge
	NetworkMaxDegree     prometheus.Gauge
	NetworkGenerationDur prometheus.Histogram

	// Export and event Metrics
	ExportsTotal         *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec

	// System Metrics
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}
