package diffusion

import "fmt"

// State is a position in the engine lifecycle:
// Created -> Seeded -> Running -> Stopped.
type State int

const (
	StateCreated State = iota
	StateSeeded
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason records why a run terminated
type StopReason int

const (
	StopNone StopReason = iota
	// StopExtinction means no agent held the influenced value after a step
	StopExtinction
	// StopBudget means the step budget was exhausted
	StopBudget
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopExtinction:
		return "extinction"
	case StopBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason by name
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reason name
func (r *StopReason) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*r = StopNone
	case "extinction":
		*r = StopExtinction
	case "budget":
		*r = StopBudget
	default:
		return fmt.Errorf("unknown stop reason %q", text)
	}
	return nil
}
