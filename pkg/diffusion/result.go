package diffusion

import (
	"slices"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/agents"
)

// StepSummary describes the opinion vector after a step.
// Step 0 is the state right after seeding.
type StepSummary struct {
	Step       int     `json:"step"`
	Influenced int     `json:"influenced"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// summarize computes a StepSummary over opinions
func summarize(step int, opinions []float64) StepSummary {
	s := StepSummary{Step: step}
	if len(opinions) == 0 {
		return s
	}

	s.Min, s.Max = opinions[0], opinions[0]
	var sum float64
	for _, v := range opinions {
		sum += v
		if v == InfluencedOpinion {
			s.Influenced++
		}
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(opinions))
	return s
}

// Result is the frozen outcome of a run
type Result struct {
	RunID      string           `json:"run_id"`
	Seed       uint64           `json:"seed"`
	Config     Config           `json:"config"`
	Steps      int              `json:"steps"`
	StopReason StopReason       `json:"stop_reason"`
	Seeds      []agents.AgentID `json:"seeds"`
	// FinalOpinions holds one value per agent in agent index order
	FinalOpinions []float64     `json:"final_opinions"`
	Initial       StepSummary   `json:"initial"`
	Final         StepSummary   `json:"final"`
	History       []StepSummary `json:"history,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Opinions returns a copy of the final opinion vector
func (r *Result) Opinions() []float64 {
	out := make([]float64, len(r.FinalOpinions))
	copy(out, r.FinalOpinions)
	return out
}

// Influenced returns how many agents ended at exactly the influenced value
func (r *Result) Influenced() int {
	return r.Final.Influenced
}

// IsSeed reports whether agent was seeded
func (r *Result) IsSeed(agent agents.AgentID) bool {
	_, found := slices.BinarySearch(r.Seeds, agent)
	return found
}
