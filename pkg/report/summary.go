package report

import (
	"math"
	"slices"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of an opinion vector
type Summary struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	StdDev     float64 `json:"stddev"`
	Influenced int     `json:"influenced"`
}

// Summarize computes a Summary. StdDev is the population standard deviation.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoValues
	}

	mean := stat.Mean(values, nil)
	s := Summary{
		Count:  len(values),
		Mean:   mean,
		Min:    slices.Min(values),
		Max:    slices.Max(values),
		StdDev: math.Sqrt(stat.PopVariance(values, nil)),
	}
	for _, v := range values {
		if v == diffusion.InfluencedOpinion {
			s.Influenced++
		}
	}
	return s, nil
}
