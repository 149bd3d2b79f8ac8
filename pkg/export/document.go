package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/agents"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/report"
	"github.com/golang/snappy"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrInvalidDestination = errors.New("invalid export destination")
	ErrNoResult           = errors.New("no result to export")
)

// Format selects the encoding of an exported result
type Format string

const (
	FormatJSON Format = "json"
	// FormatJSONSnappy is JSON in a snappy framed stream
	FormatJSONSnappy Format = "json.sz"
)

// ParseFormat maps a format name to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatJSONSnappy:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension is the file extension for the format, without a leading dot
func (f Format) Extension() string {
	return string(f)
}

// ContentType is the MIME type stored alongside uploaded objects
func (f Format) ContentType() string {
	if f == FormatJSONSnappy {
		return "application/x-snappy-framed"
	}
	return "application/json"
}

// Document is the exported shape of a finished run
type Document struct {
	RunID          string                  `json:"run_id"`
	Seed           uint64                  `json:"seed"`
	Config         diffusion.Config        `json:"config"`
	Steps          int                     `json:"steps"`
	StopReason     diffusion.StopReason    `json:"stop_reason"`
	Seeds          []agents.AgentID        `json:"seeds"`
	FinalOpinions  []float64               `json:"final_opinions"`
	Summary        report.Summary          `json:"summary"`
	Histogram      report.Histogram        `json:"histogram"`
	History        []diffusion.StepSummary `json:"history,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	DurationMillis float64                 `json:"duration_ms"`
}

// NewDocument builds the export document for result
func NewDocument(result *diffusion.Result) (*Document, error) {
	if result == nil {
		return nil, ErrNoResult
	}

	summary, err := report.Summarize(result.FinalOpinions)
	if err != nil {
		return nil, err
	}
	hist, err := report.NewHistogram(result.FinalOpinions, report.DefaultBins)
	if err != nil {
		return nil, err
	}

	return &Document{
		RunID:          result.RunID,
		Seed:           result.Seed,
		Config:         result.Config,
		Steps:          result.Steps,
		StopReason:     result.StopReason,
		Seeds:          result.Seeds,
		FinalOpinions:  result.Opinions(),
		Summary:        summary,
		Histogram:      hist,
		History:        result.History,
		StartedAt:      result.StartedAt,
		DurationMillis: float64(result.Duration) / float64(time.Millisecond),
	}, nil
}

// Encode serialises result in the given format
func Encode(result *diffusion.Result, format Format) ([]byte, error) {
	doc, err := NewDocument(result)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	switch format {
	case FormatJSON:
		return data, nil
	case FormatJSONSnappy:
		var buf bytes.Buffer
		w := snappy.NewBufferedWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to compress result: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to compress result: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Decode reads a document written by Encode
func Decode(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
	case FormatJSONSnappy:
		r = snappy.NewReader(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &doc, nil
}
