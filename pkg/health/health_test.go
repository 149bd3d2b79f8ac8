package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
)

func TestChecker_WorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.RegisterLivenessCheck("ok", func() Check { return Check{Status: StatusHealthy} })
	c.RegisterLivenessCheck("slow", func() Check { return Check{Status: StatusDegraded} })

	resp := c.CheckLiveness()
	if resp.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", resp.Status)
	}
	if resp.Checks["ok"].Name != "ok" {
		t.Errorf("unnamed check should take its registration name, got %q", resp.Checks["ok"].Name)
	}

	c.RegisterLivenessCheck("down", func() Check { return Check{Status: StatusUnhealthy} })
	if resp := c.CheckLiveness(); resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
}

func TestChecker_SeparateSets(t *testing.T) {
	c := NewChecker()

	called := false
	c.RegisterReadinessCheck("ready", func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	c.CheckLiveness()
	if called {
		t.Error("readiness check should not run for liveness")
	}
	c.CheckReadiness()
	if !called {
		t.Error("readiness check was not run")
	}
}

func TestHandlers(t *testing.T) {
	var ready atomic.Bool
	c := NewChecker()
	c.RegisterReadinessCheck("engine", ReadyCheck(&ready))
	c.RegisterLivenessCheck("degraded", func() Check { return Check{Status: StatusDegraded} })

	tests := []struct {
		name    string
		handler http.HandlerFunc
		setup   func()
		want    int
	}{
		{"not ready", c.ReadinessHandler(), func() {}, http.StatusServiceUnavailable},
		{"ready", c.ReadinessHandler(), func() { ready.Store(true) }, http.StatusOK},
		{"degraded is alive", c.LivenessHandler(), func() {}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
		})
	}
}

func TestProgress_TracksRun(t *testing.T) {
	cfg := diffusion.DefaultConfig().WithSeed(5)
	cfg.Size = 40
	cfg.InitialInfluencedShare = 1
	cfg.Steps = 3

	p := NewProgress(cfg.Steps)
	e, err := diffusion.New(cfg, diffusion.WithObserver(p))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !p.Stopped() || p.Step() != 3 {
		t.Fatalf("progress = step %d stopped %v, want 3 and true", p.Step(), p.Stopped())
	}

	check := RunCheck(p, time.Minute)()
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", check.Status)
	}
	if check.Details["stop_reason"] != "budget" {
		t.Errorf("stop_reason = %v, want budget", check.Details["stop_reason"])
	}
}

func TestRunCheck_Stalled(t *testing.T) {
	p := NewProgress(100)
	p.updated.Store(time.Now().Add(-time.Hour).UnixNano())

	if check := RunCheck(p, time.Second)(); check.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", check.Status)
	}
	if check := RunCheck(p, 0)(); check.Status != StatusHealthy {
		t.Errorf("stall detection disabled: status = %s, want healthy", check.Status)
	}
}

func TestMemoryCheck(t *testing.T) {
	check := MemoryCheck()()
	if check.Name != "memory" {
		t.Errorf("name = %q", check.Name)
	}
	if _, ok := check.Details["alloc_bytes"]; !ok {
		t.Error("missing alloc_bytes")
	}
}
