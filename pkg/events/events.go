package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
)

// Topic prefixes carried in front of every message
const (
	TopicStep = "step"
	TopicStop = "stop"
)

var (
	ErrClosed       = errors.New("event socket closed")
	ErrTimeout      = errors.New("timed out waiting for event")
	ErrUnknownTopic = errors.New("unknown event topic")
)

// StopEvent is the header of a finished run
type StopEvent struct {
	RunID      string                `json:"run_id"`
	Seed       uint64                `json:"seed"`
	Steps      int                   `json:"steps"`
	StopReason diffusion.StopReason  `json:"stop_reason"`
	Seeded     int                   `json:"seeded"`
	Final      diffusion.StepSummary `json:"final"`
	Duration   time.Duration         `json:"duration"`
}

// Event is one decoded message. Exactly one of Step and Stop is set.
type Event struct {
	Topic string
	Step  *diffusion.StepSummary
	Stop  *StopEvent
}

func newStopEvent(r *diffusion.Result) StopEvent {
	return StopEvent{
		RunID:      r.RunID,
		Seed:       r.Seed,
		Steps:      r.Steps,
		StopReason: r.StopReason,
		Seeded:     len(r.Seeds),
		Final:      r.Final,
		Duration:   r.Duration,
	}
}

// encode frames payload as "<topic>:<json>"
func encode(topic string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}
	msg := make([]byte, 0, len(topic)+1+len(data))
	msg = append(msg, topic...)
	msg = append(msg, ':')
	return append(msg, data...), nil
}

func decode(msg []byte) (Event, error) {
	topic, body, ok := bytes.Cut(msg, []byte(":"))
	if !ok {
		return Event{}, fmt.Errorf("%w: missing topic separator", ErrUnknownTopic)
	}

	ev := Event{Topic: string(topic)}
	switch ev.Topic {
	case TopicStep:
		ev.Step = &diffusion.StepSummary{}
		if err := json.Unmarshal(body, ev.Step); err != nil {
			return Event{}, fmt.Errorf("failed to decode step event: %w", err)
		}
	case TopicStop:
		ev.Stop = &StopEvent{}
		if err := json.Unmarshal(body, ev.Stop); err != nil {
			return Event{}, fmt.Errorf("failed to decode stop event: %w", err)
		}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownTopic, ev.Topic)
	}
	return ev, nil
}
