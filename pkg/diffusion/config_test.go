package diffusion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfig(t *testing.T) {
	input := `
size: 500
avg_degree: 4
initial_influenced_share: 0.05
initial_opinion: 0.2
steps: 250
random_seed: 99
workers: 3
record_history: true
`
	cfg, err := DecodeConfig(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Size)
	assert.Equal(t, 4, cfg.AvgDegree)
	assert.Equal(t, 0.05, cfg.InitialInfluencedShare)
	assert.Equal(t, 0.2, cfg.InitialOpinion)
	assert.Equal(t, 250, cfg.Steps)
	require.NotNil(t, cfg.RandomSeed)
	assert.Equal(t, int64(99), *cfg.RandomSeed)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.RecordHistory)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeConfig_KeepsDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader("size: 40\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Size = 40
	assert.Equal(t, want, cfg)

	empty, err := DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), empty)
}

func TestDecodeConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("size: 10\nagents: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agents")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: 64\navg_degree: 3\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Size)
	assert.Equal(t, 3, cfg.AvgDegree)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero steps selects default", func(c *Config) { c.Steps = 0 }, false},
		{"zero workers selects one", func(c *Config) { c.Workers = 0 }, false},
		{"share of zero", func(c *Config) { c.InitialInfluencedShare = 0 }, false},
		{"share of one", func(c *Config) { c.InitialInfluencedShare = 1 }, false},
		{"negative steps", func(c *Config) { c.Steps = -1 }, true},
		{"negative size", func(c *Config) { c.Size = -1 }, true},
		{"degree too large", func(c *Config) { c.AvgDegree = c.Size }, true},
		{"zero degree", func(c *Config) { c.AvgDegree = 0 }, true},
		{"negative degree", func(c *Config) { c.AvgDegree = -2 }, true},
		{"share too large", func(c *Config) { c.InitialInfluencedShare = 1.01 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateNamesDegreeBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Size = 5
	cfg.AvgDegree = 5

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "Config.avg_degree")
	assert.Contains(t, err.Error(), "less than size (5)")

	// A prebuilt network skips the generator bound
	assert.NoError(t, cfg.validate(true))
}

func TestSeedCount(t *testing.T) {
	assert.Equal(t, 10, SeedCount(0.1, 100))
	assert.Equal(t, 0, SeedCount(0.09, 10))
	assert.Equal(t, 1, SeedCount(0.25, 4))
	assert.Equal(t, 5, SeedCount(1, 5))
	assert.Equal(t, 0, SeedCount(0, 5))
}

func TestStopReasonText(t *testing.T) {
	for _, r := range []StopReason{StopNone, StopExtinction, StopBudget} {
		text, err := r.MarshalText()
		require.NoError(t, err)

		var back StopReason
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, r, back)
	}

	var r StopReason
	assert.Error(t, r.UnmarshalText([]byte("converged")))
}
