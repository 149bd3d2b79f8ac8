package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/export"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output %q missing %q", out, version)
	}

	out, _, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if v["version"] != version {
		t.Errorf("version = %q, want %q", v["version"], version)
	}
}

func TestRunCommand_Text(t *testing.T) {
	out, _, err := execute(t, "run", "--size", "60", "--avg-degree", "2", "--share", "0.2",
		"--seed", "3", "--steps", "100", "--table", "--bins", "5", "--log-level", "error")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{"(seed 3)", "Stopped by", "Agents 60, seeded 12", "Agent 59", "]"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "run", "--size", "40", "--seed", "9", "--steps", "20", "--json", "--history")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var doc export.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if doc.Config.Size != 40 {
		t.Errorf("size = %d, want 40", doc.Config.Size)
	}
	if doc.Seed != 9 {
		t.Errorf("seed = %d, want 9", doc.Seed)
	}
	if len(doc.FinalOpinions) != 40 {
		t.Errorf("got %d final opinions, want 40", len(doc.FinalOpinions))
	}
	if len(doc.History) != doc.Steps {
		t.Errorf("history has %d entries for %d steps", len(doc.History), doc.Steps)
	}
}

func TestRunCommand_Export(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := execute(t, "run", "--size", "30", "--seed", "1", "--export", dir, "--format", "json.sz")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stderr, "exported to") {
		t.Errorf("stderr missing export location:\n%s", stderr)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.json.sz"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one exported file, got %v (%v)", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	doc, err := export.Decode(f, export.FormatJSONSnappy)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if filepath.Base(matches[0]) != doc.RunID+".json.sz" {
		t.Errorf("file %s does not match run id %s", matches[0], doc.RunID)
	}
}

func TestRunCommand_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	out, _, err := executeContext(t, ctx, "run", "--size", "2000", "--avg-degree", "3", "--share", "1",
		"--steps", "1000000", "--seed", "1", "--log-level", "error")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancelled run took %s", elapsed)
	}
	if out != "" {
		t.Errorf("cancelled run printed a result:\n%s", out)
	}
}

func TestRunCommand_InvalidParameters(t *testing.T) {
	_, _, err := execute(t, "run", "--size", "5", "--avg-degree", "5")
	if !errors.Is(err, diffusion.ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}

	_, _, err = execute(t, "run", "--share", "2")
	if !errors.Is(err, diffusion.ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}

	_, _, err = execute(t, "run", "--format", "xml", "--export", t.TempDir(), "--size", "10", "--seed", "1")
	if !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRunCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("size: 25\navg_degree: 3\nsteps: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "run", "--config", path, "--steps", "4", "--share", "1", "--seed", "2", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var doc export.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if doc.Config.Size != 25 || doc.Config.AvgDegree != 3 {
		t.Errorf("config file not applied: %+v", doc.Config)
	}
	if doc.Config.Steps != 4 || doc.Steps != 4 {
		t.Errorf("--steps should override the file: config %d, ran %d", doc.Config.Steps, doc.Steps)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("population: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "run", "--config", bad); err == nil {
		t.Error("expected unknown config key to fail")
	}
}

func TestNetworkCommand(t *testing.T) {
	out, _, err := execute(t, "network", "--size", "50", "--avg-degree", "2", "--json")
	if err != nil {
		t.Fatalf("network failed: %v", err)
	}

	var stats network.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if stats.Order != 50 || stats.Edges != 96 {
		t.Errorf("stats = %d nodes %d edges, want 50 and 96", stats.Order, stats.Edges)
	}
	if stats.Components != 1 {
		t.Errorf("components = %d, want 1", stats.Components)
	}

	out, _, err = execute(t, "network", "--size", "20")
	if err != nil {
		t.Fatalf("network failed: %v", err)
	}
	if !strings.Contains(out, "Degree histogram:") {
		t.Errorf("text output missing histogram:\n%s", out)
	}

	if _, _, err := execute(t, "network", "--size", "2", "--avg-degree", "2"); err == nil {
		t.Error("expected invalid parameters to fail")
	}
}

func TestWatchCommand_NoPublisher(t *testing.T) {
	if _, _, err := execute(t, "watch", "--addr", "inproc://opinionsim-nobody", "--timeout", "10ms"); err == nil {
		t.Error("expected watch without a publisher to fail")
	}
}
