package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinion_runs_total",
			Help: "Total number of completed simulation runs",
		},
		[]string{"stop_reason"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opinion_run_duration_seconds",
			Help:    "Wall-clock duration of a simulation run in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
	)

	r.RunSteps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opinion_run_steps",
			Help:    "Number of update steps executed per run",
			Buckets: []float64{1, 2, 5, 10, 100, 1000, 10000},
		},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "opinion_steps_total",
			Help: "Total number of synchronous update steps executed",
		},
	)

	r.StepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opinion_step_duration_seconds",
			Help:    "Duration of a single synchronous update step in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)

	r.InfluencedAgents = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_influenced_agents",
			Help: "Agents whose opinion is exactly the influenced value after the last step",
		},
	)

	r.SeededAgents = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_seeded_agents",
			Help: "Agents seeded with the influenced value in the current run",
		},
	)

	r.MeanOpinion = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_mean",
			Help: "Mean opinion across the population after the last step",
		},
	)

	r.OpinionSpread = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "opinion_spread",
			Help: "Difference between the largest and smallest opinion after the last step",
		},
	)

	r.SetupFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "opinion_setup_failures_total",
			Help: "Simulation setups rejected because of invalid parameters",
		},
	)
}
