package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initSimulationMetrics()
	r.initNetworkMetrics()
	r.initOutputMetrics()
	r.initSystemMetrics()

	return r
}

// Handler returns an HTTP handler exposing the registry in the Prometheus text format.
// System gauges are refreshed on every scrape.
func (r *Registry) Handler() http.Handler {
	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		inner.ServeHTTP(w, req)
	})
}

// RecordNetwork records the shape of a freshly generated network
func (r *Registry) RecordNetwork(nodes, edges, maxDegree int, duration time.Duration) {
	r.NetworkNodes.Set(float64(nodes))
	r.NetworkEdges.Set(float64(edges))
	r.NetworkMaxDegree.Set(float64(maxDegree))
	r.NetworkGenerationDur.Observe(duration.Seconds())
}

// RecordSetupFailure counts a rejected simulation setup
func (r *Registry) RecordSetupFailure() {
	r.SetupFailuresTotal.Inc()
}

// RecordSeeding records how many agents were seeded
func (r *Registry) RecordSeeding(seeded int) {
	r.SeededAgents.Set(float64(seeded))
	r.InfluencedAgents.Set(float64(seeded))
}

// RecordStep records one synchronous update step
func (r *Registry) RecordStep(influenced int, mean, min, max float64, duration time.Duration) {
	r.StepsTotal.Inc()
	r.StepDuration.Observe(duration.Seconds())
	r.InfluencedAgents.Set(float64(influenced))
	r.MeanOpinion.Set(mean)
	r.OpinionSpread.Set(max - min)
}

// RecordRun records a finished run
func (r *Registry) RecordRun(stopReason string, steps int, duration time.Duration) {
	r.RunsTotal.WithLabelValues(stopReason).Inc()
	r.RunSteps.Observe(float64(steps))
	r.RunDuration.Observe(duration.Seconds())
}

// RecordExport records a result export attempt
func (r *Registry) RecordExport(sink string, err error) {
	r.ExportsTotal.WithLabelValues(sink, statusOf(err)).Inc()
}

// RecordEvent records a published event
func (r *Registry) RecordEvent(topic string, err error) {
	r.EventsPublishedTotal.WithLabelValues(topic, statusOf(err)).Inc()
}

// UpdateSystemMetrics refreshes uptime and goroutine gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.RLock()
	started := r.started
	r.mu.RUnlock()

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
