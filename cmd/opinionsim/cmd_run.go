package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/events"
	"github.com/dd0wney/opinion-diffusion/pkg/export"
	"github.com/dd0wney/opinion-diffusion/pkg/health"
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/dd0wney/opinion-diffusion/pkg/metrics"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
	"github.com/dd0wney/opinion-diffusion/pkg/report"
	"github.com/dd0wney/opinion-diffusion/pkg/tui"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one opinion diffusion simulation",
		Long: `Run one simulation and print a summary and a histogram of final opinions.

Parameters come from --config (YAML) layered over the defaults, then from
any flags given explicitly.

Examples:
  opinionsim run --size 1000 --avg-degree 3 --share 0.05 --seed 42
  opinionsim run --config run.yaml --table
  opinionsim run --export s3://results/sims --format json.sz
  opinionsim run --publish tcp://127.0.0.1:40899 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd)
		},
	}

	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().Int("size", 0, "Number of agents")
	cmd.Flags().Int("avg-degree", 0, "Edges attached per new node")
	cmd.Flags().Float64("share", 0, "Initial influenced share in [0,1]")
	cmd.Flags().Float64("initial-opinion", 0, "Opinion of non-seeded agents")
	cmd.Flags().Int("steps", 0, "Step budget")
	cmd.Flags().Int64("seed", 0, "Random seed for a reproducible run")
	cmd.Flags().Int("workers", 0, "Parallel workers per step")
	cmd.Flags().Bool("history", false, "Record per-step summaries")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics and health checks on this address")
	cmd.Flags().String("export", "", "Export destination (dir, file:///dir or s3://bucket/prefix)")
	cmd.Flags().String("format", "json", "Export format (json, json.sz)")
	cmd.Flags().String("s3-region", "", "S3 region")
	cmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().String("publish", "", "Publish step events on this address")
	cmd.Flags().Bool("tui", false, "Show live progress in a terminal UI")
	cmd.Flags().Bool("table", false, "Print the per-agent results table")
	cmd.Flags().Int("bins", report.DefaultBins, "Histogram bins")

	return cmd
}

// configFromFlags loads --config and overlays explicitly set flags
func configFromFlags(cmd *cobra.Command) (diffusion.Config, error) {
	cfg := diffusion.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := diffusion.LoadConfig(path)
		if err != nil {
			return diffusion.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size, _ = flags.GetInt("size")
	}
	if flags.Changed("avg-degree") {
		cfg.AvgDegree, _ = flags.GetInt("avg-degree")
	}
	if flags.Changed("share") {
		cfg.InitialInfluencedShare, _ = flags.GetFloat64("share")
	}
	if flags.Changed("initial-opinion") {
		cfg.InitialOpinion, _ = flags.GetFloat64("initial-opinion")
	}
	if flags.Changed("steps") {
		cfg.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg = cfg.WithSeed(seed)
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("history") {
		cfg.RecordHistory, _ = flags.GetBool("history")
	}
	if cfg.Steps == 0 {
		cfg.Steps = diffusion.DefaultSteps
	}

	return cfg, cfg.Validate()
}

func runSimulation(ctx context.Context, cmd *cobra.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()

	var exporter *export.Exporter
	if dest, _ := cmd.Flags().GetString("export"); dest != "" {
		if exporter, err = newExporter(ctx, cmd, dest, logger, reg); err != nil {
			return err
		}
	}

	progress := health.NewProgress(cfg.Steps)
	var ready atomic.Bool
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		checker := health.NewChecker()
		checker.RegisterLivenessCheck("simulation", health.RunCheck(progress, 30*time.Second))
		checker.RegisterLivenessCheck("memory", health.MemoryCheck())
		checker.RegisterReadinessCheck("engine", health.ReadyCheck(&ready))

		shutdown := serveHTTP(addr, reg, checker, logger)
		defer shutdown()
	}

	opts := []diffusion.Option{
		diffusion.WithLogger(logger),
		diffusion.WithMetrics(reg),
		diffusion.WithObserver(progress),
	}
	if addr, _ := cmd.Flags().GetString("publish"); addr != "" {
		pub, err := events.NewPublisher(addr, logger, reg)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, diffusion.WithObserver(pub))
	}

	engine, err := diffusion.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()
	ready.Store(true)

	bins, _ := cmd.Flags().GetInt("bins")

	var result *diffusion.Result
	if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
		result, err = tui.Run(ctx, engine, bins, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	} else {
		result, err = engine.RunContext(ctx)
	}
	if err != nil {
		return err
	}

	if exporter != nil {
		location, err := exporter.Write(ctx, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", location)
	}

	return printResult(cmd, cmd.OutOrStdout(), result, engine.Graph(), bins)
}

// newExporter resolves the export flags before any simulation work starts
func newExporter(ctx context.Context, cmd *cobra.Command, raw string, logger logging.Logger, reg *metrics.Registry) (*export.Exporter, error) {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	dest, err := export.ParseDestination(raw)
	if err != nil {
		return nil, err
	}

	region, _ := cmd.Flags().GetString("s3-region")
	endpoint, _ := cmd.Flags().GetString("s3-endpoint")
	sink, err := export.NewSink(ctx, dest, export.S3Options{Region: region, Endpoint: endpoint})
	if err != nil {
		return nil, err
	}

	return export.NewExporter(sink, format, logger, reg), nil
}

func printResult(cmd *cobra.Command, w io.Writer, result *diffusion.Result, g *network.Graph, bins int) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		doc, err := export.NewDocument(result)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	summary, err := report.Summarize(result.FinalOpinions)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s (seed %d)\n", result.RunID, result.Seed)
	fmt.Fprintf(w, "Stopped by %s after %d steps\n", result.StopReason, result.Steps)
	fmt.Fprintf(w, "Agents %d, seeded %d, influenced at end %d\n", summary.Count, len(result.Seeds), summary.Influenced)
	fmt.Fprintf(w, "Mean %.6f  StdDev %.6f  Min %.6f  Max %.6f\n\n", summary.Mean, summary.StdDev, summary.Min, summary.Max)

	if showTable, _ := cmd.Flags().GetBool("table"); showTable {
		rows, err := report.Rows(result, g)
		if err != nil {
			return err
		}
		if err := report.RenderTable(w, rows); err != nil {
			return err
		}
	}

	hist, err := report.NewHistogram(result.FinalOpinions, bins)
	if err != nil {
		return err
	}
	return report.RenderHistogram(w, hist, 40)
}

// serveHTTP exposes metrics and health endpoints until the returned function is called
func serveHTTP(addr string, reg *metrics.Registry, checker *health.Checker, logger logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", logging.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", logging.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Error(err))
		}
	}
}
