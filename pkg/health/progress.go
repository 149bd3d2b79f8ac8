package health

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
)

// Progress tracks a run from engine callbacks so checks can read it from
// other goroutines
type Progress struct {
	budget     int
	step       atomic.Int64
	influenced atomic.Int64
	stopped    atomic.Bool
	reason     atomic.Value // string
	updated    atomic.Int64 // unix nanos of the last callback
}

var _ diffusion.Observer = (*Progress)(nil)

// NewProgress creates a tracker for a run with the given step budget
func NewProgress(budget int) *Progress {
	p := &Progress{budget: budget}
	p.updated.Store(time.Now().UnixNano())
	return p
}

func (p *Progress) OnStep(summary diffusion.StepSummary) {
	p.step.Store(int64(summary.Step))
	p.influenced.Store(int64(summary.Influenced))
	p.updated.Store(time.Now().UnixNano())
}

func (p *Progress) OnStop(result *diffusion.Result) {
	p.step.Store(int64(result.Steps))
	p.influenced.Store(int64(result.Final.Influenced))
	p.reason.Store(result.StopReason.String())
	p.stopped.Store(true)
	p.updated.Store(time.Now().UnixNano())
}

// Step returns the last committed step
func (p *Progress) Step() int {
	return int(p.step.Load())
}

// Stopped reports whether the run has finished
func (p *Progress) Stopped() bool {
	return p.stopped.Load()
}

// SinceUpdate returns the time since the last engine callback
func (p *Progress) SinceUpdate() time.Duration {
	return time.Since(time.Unix(0, p.updated.Load()))
}

// RunCheck reports the run as degraded when no step has committed for
// stallAfter while it is still running
func RunCheck(p *Progress, stallAfter time.Duration) CheckFunc {
	return func() Check {
		check := Check{
			Name:   "simulation",
			Status: StatusHealthy,
			Details: map[string]any{
				"step":       p.Step(),
				"budget":     p.budget,
				"influenced": p.influenced.Load(),
			},
		}

		switch {
		case p.Stopped():
			reason, _ := p.reason.Load().(string)
			check.Details["stop_reason"] = reason
			check.Message = "Run finished"
		case stallAfter > 0 && p.SinceUpdate() > stallAfter:
			check.Status = StatusDegraded
			check.Message = "No step committed recently"
		default:
			check.Message = "Run in progress"
		}
		return check
	}
}

// ReadyCheck is healthy once the engine has been built
func ReadyCheck(ready *atomic.Bool) CheckFunc {
	return func() Check {
		if !ready.Load() {
			return Check{Name: "engine", Status: StatusUnhealthy, Message: "Engine not built yet"}
		}
		return Check{Name: "engine", Status: StatusHealthy}
	}
}

// MemoryCheck reports heap usage relative to memory obtained from the OS
func MemoryCheck() CheckFunc {
	return func() Check {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		check := Check{
			Name:   "memory",
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": ms.Alloc,
				"sys_bytes":   ms.Sys,
			},
			Message: "Memory usage normal",
		}
		if ms.Sys > 0 && float64(ms.Alloc)/float64(ms.Sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
