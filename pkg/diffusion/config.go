package diffusion

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"

	"github.com/dd0wney/opinion-diffusion/pkg/validation"
	"gopkg.in/yaml.v3"
)

const (
	// InfluencedOpinion is the value seeded agents hold; the run stops once no
	// agent holds it exactly.
	InfluencedOpinion = 1.0
	// DefaultSteps is the step budget used when none is configured
	DefaultSteps = 10000
)

// Config describes one simulation run
type Config struct {
	Size                   int     `yaml:"size" json:"size" validate:"gt=0"`
	AvgDegree              int     `yaml:"avg_degree" json:"avg_degree"`
	InitialInfluencedShare float64 `yaml:"initial_influenced_share" json:"initial_influenced_share" validate:"gte=0,lte=1"`
	InitialOpinion         float64 `yaml:"initial_opinion" json:"initial_opinion"`
	// Steps is the step budget; zero selects DefaultSteps
	Steps int `yaml:"steps" json:"steps" validate:"gt=0"`
	// RandomSeed makes the run reproducible; nil draws a fresh seed
	RandomSeed *int64 `yaml:"random_seed,omitempty" json:"random_seed,omitempty"`
	// Workers > 1 parallelises each step across agent ranges
	Workers       int  `yaml:"workers" json:"workers" validate:"lte=4096"`
	RecordHistory bool `yaml:"record_history" json:"record_history"`
}

// DefaultConfig returns the parameters of the reference experiment
func DefaultConfig() Config {
	return Config{
		Size:                   100,
		AvgDegree:              2,
		InitialInfluencedShare: 0.1,
		InitialOpinion:         0,
		Steps:                  DefaultSteps,
		Workers:                1,
	}
}

// LoadConfig reads a YAML config file layered over DefaultConfig
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes YAML over DefaultConfig. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// WithSeed returns a copy of the config with a fixed random seed
func (c Config) WithSeed(seed int64) Config {
	c.RandomSeed = &seed
	return c
}

// withDefaults fills zero-valued optional fields
func (c Config) withDefaults() Config {
	if c.Steps == 0 {
		c.Steps = DefaultSteps
	}
	c.Workers = validation.DefaultOrInt(c.Workers, 1)
	return c
}

// Validate reports whether the config can generate a network and run
func (c Config) Validate() error {
	return c.withDefaults().validate(false)
}

// validate checks the config; prebuilt skips the generator-only checks
// because the network was supplied by the caller.
func (c Config) validate(prebuilt bool) error {
	if err := validation.Struct(&c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	err := validation.NewConfigValidator("Config").
		RangeFloat("initial_influenced_share", c.InitialInfluencedShare, 0, 1).
		Finite("initial_opinion", c.InitialOpinion).
		When(!prebuilt, func(cv *validation.ConfigValidator) {
			cv.Positive("avg_degree", c.AvgDegree).
				LessThan("avg_degree", c.AvgDegree, "size", c.Size)
		}).
		Validate()
	if err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return nil
}

// seedValue returns the configured seed, or a fresh one
func (c Config) seedValue() uint64 {
	if c.RandomSeed != nil {
		return uint64(*c.RandomSeed)
	}
	return rand.Uint64()
}

// SeedCount returns how many agents are seeded: floor(share * size)
func SeedCount(share float64, size int) int {
	k := int(math.Floor(share * float64(size)))
	if k < 0 {
		return 0
	}
	if k > size {
		return size
	}
	return k
}

// NewRand returns the deterministic random source used for a given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
