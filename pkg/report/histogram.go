package report

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the bin count used when none is given
const DefaultBins = 10

// Histogram counts values in equal-width bins over [Min, Max].
// Every bin is half-open except the last, which includes Max.
type Histogram struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Counts []int   `json:"counts"`
}

// NewHistogram bins values. A non-positive bins selects DefaultBins; when all
// values are equal a single bin holds them.
func NewHistogram(values []float64, bins int) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, ErrNoValues
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Histogram{}, ErrNonFinite
	}

	h := Histogram{Min: lo, Max: hi}
	if lo == hi {
		h.Counts = []int{len(sorted)}
		return h, nil
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	h.Counts = make([]int, len(counts))
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h, nil
}

// Bins returns the number of bins
func (h Histogram) Bins() int {
	return len(h.Counts)
}

// Edges returns the lower and upper bound of bin i
func (h Histogram) Edges(i int) (float64, float64) {
	if len(h.Counts) <= 1 {
		return h.Min, h.Max
	}
	width := (h.Max - h.Min) / float64(len(h.Counts))
	lo := h.Min + float64(i)*width
	if i == len(h.Counts)-1 {
		return lo, h.Max
	}
	return lo, lo + width
}

// Total returns the number of binned values
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// RenderHistogram draws one horizontal bar per bin, scaled so the fullest bin
// spans width cells
func RenderHistogram(w io.Writer, h Histogram, width int) error {
	if width <= 0 {
		width = 40
	}
	peak := slices.Max(append([]int{0}, h.Counts...))

	var b strings.Builder
	for i, c := range h.Counts {
		lo, hi := h.Edges(i)
		closing := ")"
		if i == len(h.Counts)-1 {
			closing = "]"
		}

		bar := 0
		if peak > 0 {
			bar = c * width / peak
		}
		fmt.Fprintf(&b, "[%.4f, %.4f%s %s %d\n", lo, hi, closing, strings.Repeat("█", bar), c)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
