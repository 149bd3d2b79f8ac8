package diffusion

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/agents"
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/dd0wney/opinion-diffusion/pkg/metrics"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
	"github.com/dd0wney/opinion-diffusion/pkg/parallel"
	"github.com/google/uuid"
)

// minParallelAgents is the population size below which steps always run on
// the calling goroutine even when workers are configured.
const minParallelAgents = 2048

// Option configures an Engine
type Option func(*options)

type options struct {
	logger    logging.Logger
	metrics   *metrics.Registry
	observers []Observer
	graph     *network.Graph
	workers   int
}

// WithLogger sets the engine logger
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records setup, steps and runs into r
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// WithObserver registers an observer for step and stop notifications
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithGraph runs on a caller-supplied network instead of generating one.
// Config.AvgDegree is ignored and Config.Size must be zero or match g.Order().
func WithGraph(g *network.Graph) Option {
	return func(o *options) { o.graph = g }
}

// WithWorkers overrides Config.Workers and parallelises steps whenever n > 1,
// regardless of population size
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Engine owns the network, the population and the simulation state of one run.
// It is not safe for concurrent use.
type Engine struct {
	cfg       Config
	seed      uint64
	rng       *rand.Rand
	graph     *network.Graph
	pop       *agents.Population
	adjacency [][]agents.AgentID
	pool      *parallel.WorkerPool
	logger    logging.Logger
	metrics   *metrics.Registry
	observers []Observer

	runID     string
	state     State
	step      int
	seeds     []agents.AgentID
	initial   StepSummary
	last      StepSummary
	history   []StepSummary
	startedAt time.Time
	result    *Result
}

// New validates cfg, builds the network and population, and returns an engine
// in the Created state. On error no engine or partial network is returned.
func New(cfg Config, opts ...Option) (*Engine, error) {
	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.workers != 0 {
		cfg.Workers = o.workers
	}
	cfg = cfg.withDefaults()
	if o.graph != nil && cfg.Size == 0 {
		cfg.Size = o.graph.Order()
	}

	if err := setupCheck(cfg, o.graph); err != nil {
		if o.metrics != nil {
			o.metrics.RecordSetupFailure()
		}
		o.logger.Error("simulation setup rejected", logging.Component("diffusion"), logging.Error(err))
		return nil, err
	}

	seed := cfg.seedValue()
	runID := uuid.NewString()
	logger := o.logger.With(logging.Component("diffusion"), logging.RunID(runID))

	e := &Engine{
		cfg:       cfg,
		seed:      seed,
		rng:       NewRand(seed),
		logger:    logger,
		metrics:   o.metrics,
		observers: o.observers,
		runID:     runID,
		state:     StateCreated,
	}

	g := o.graph
	if g == nil {
		timer := logging.StartTimer(logger, "network generated",
			logging.Int("size", cfg.Size), logging.Int("avg_degree", cfg.AvgDegree), logging.Seed(seed))

		var err error
		g, err = network.Generate(cfg.Size, cfg.AvgDegree, e.rng)
		if err != nil {
			if o.metrics != nil {
				o.metrics.RecordSetupFailure()
			}
			return nil, fmt.Errorf("failed to generate network: %w", err)
		}

		elapsed := timer.End(logging.Int("edges", g.Size()))
		if o.metrics != nil {
			stats := network.ComputeStats(g)
			o.metrics.RecordNetwork(stats.Order, stats.Edges, stats.MaxDegree, elapsed)
		}
	}

	pop, err := agents.NewPopulation(g, cfg.InitialOpinion)
	if err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}

	e.graph = g
	e.pop = pop
	e.adjacency = pop.NeighborAgents()

	if cfg.Workers > 1 && (o.workers > 1 || pop.Len() >= minParallelAgents) {
		pool, err := parallel.NewWorkerPool(cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		e.pool = pool
	}

	workers := 1
	if e.pool != nil {
		workers = e.pool.Workers()
	}
	logger.Info("population created",
		logging.Count(pop.Len()),
		logging.Float64("initial_opinion", cfg.InitialOpinion),
		logging.Int("workers", workers))

	return e, nil
}

// setupCheck validates cfg, and a supplied graph against it
func setupCheck(cfg Config, g *network.Graph) error {
	if err := cfg.validate(g != nil); err != nil {
		return err
	}
	if g != nil && g.Order() != cfg.Size {
		return fmt.Errorf("%w: graph has %d nodes but size is %d", ErrInvalidParameter, g.Order(), cfg.Size)
	}
	return nil
}

// Seed selects floor(share*size) distinct agents uniformly at random and
// sets them to the influenced value. It is valid only once, before the first step.
func (e *Engine) Seed() error {
	if e.state != StateCreated {
		return fmt.Errorf("%w: cannot seed in state %s", ErrInvalidState, e.state)
	}

	n := e.pop.Len()
	k := SeedCount(e.cfg.InitialInfluencedShare, n)

	// Partial Fisher-Yates: the first k slots are a uniform sample without replacement
	perm := make([]agents.AgentID, n)
	for i := range perm {
		perm[i] = agents.AgentID(i)
	}
	for i := 0; i < k; i++ {
		j := i + e.rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}

	seeds := slices.Clone(perm[:k])
	slices.Sort(seeds)
	for _, id := range seeds {
		if err := e.pop.SetAgentOpinion(id, InfluencedOpinion); err != nil {
			return err
		}
	}

	e.seeds = seeds
	e.startedAt = time.Now()
	e.initial = summarize(0, e.pop.Current())
	e.last = e.initial
	e.state = StateSeeded

	if e.metrics != nil {
		e.metrics.RecordSeeding(k)
	}
	e.logger.Info("population seeded", logging.Count(k), logging.Influenced(e.initial.Influenced))

	return nil
}

// Step applies one synchronous update to every agent, evaluates the stopping
// condition and reports whether the run continues.
func (e *Engine) Step() (bool, error) {
	switch e.state {
	case StateSeeded:
		e.state = StateRunning
	case StateRunning:
	default:
		return false, fmt.Errorf("%w: cannot step in state %s", ErrInvalidState, e.state)
	}

	start := time.Now()
	if err := e.update(); err != nil {
		return false, fmt.Errorf("step %d: %w", e.step+1, err)
	}
	e.pop.Commit()
	e.step++

	summary := summarize(e.step, e.pop.Current())
	e.last = summary
	if e.cfg.RecordHistory {
		e.history = append(e.history, summary)
	}

	if e.metrics != nil {
		e.metrics.RecordStep(summary.Influenced, summary.Mean, summary.Min, summary.Max, time.Since(start))
	}
	e.logger.Debug("step completed", logging.Step(e.step), logging.Influenced(summary.Influenced),
		logging.Float64("mean", summary.Mean))

	for _, obs := range e.observers {
		obs.OnStep(summary)
	}

	switch {
	case summary.Influenced == 0:
		e.stop(StopExtinction)
	case e.step >= e.cfg.Steps:
		e.stop(StopBudget)
	}

	return e.state == StateRunning, nil
}

// update computes the next opinion vector from the committed one.
// Every agent reads only Current and writes only its own slot in Next.
func (e *Engine) update() error {
	cur, next := e.pop.Current(), e.pop.Next()
	if e.pool == nil {
		updateRange(cur, next, e.adjacency, 0, len(cur))
		return nil
	}
	return e.pool.Sweep(len(cur), func(lo, hi int) {
		updateRange(cur, next, e.adjacency, lo, hi)
	})
}

// updateRange applies the averaging rule to agents [lo,hi):
// an agent moves halfway towards the mean of its neighbours; isolated agents keep their value.
func updateRange(cur, next []float64, adjacency [][]agents.AgentID, lo, hi int) {
	for i := lo; i < hi; i++ {
		neighbors := adjacency[i]
		if len(neighbors) == 0 {
			next[i] = cur[i]
			continue
		}

		// Running mean over halved terms: it stays within the neighbours' range
		// and keeps a uniform neighbourhood exact, even near MaxFloat64.
		var mean float64
		for k, n := range neighbors {
			mean += 2 * ((cur[n]/2 - mean/2) / float64(k+1))
		}
		next[i] = cur[i]/2 + mean/2
	}
}

func (e *Engine) stop(reason StopReason) {
	e.state = StateStopped
	duration := time.Since(e.startedAt)

	e.result = &Result{
		RunID:         e.runID,
		Seed:          e.seed,
		Config:        e.cfg,
		Steps:         e.step,
		StopReason:    reason,
		Seeds:         slices.Clone(e.seeds),
		FinalOpinions: e.pop.Snapshot(),
		Initial:       e.initial,
		Final:         e.last,
		History:       e.history,
		StartedAt:     e.startedAt,
		Duration:      duration,
	}

	e.Close()

	if e.metrics != nil {
		e.metrics.RecordRun(reason.String(), e.step, duration)
	}
	e.logger.Info("simulation stopped", logging.StopReason(reason.String()), logging.Int("steps", e.step),
		logging.Influenced(e.last.Influenced), logging.Latency(duration))

	for _, obs := range e.observers {
		obs.OnStop(e.result)
	}
}

// Observe registers obs for the remaining steps. Observers added after the
// run stopped are never called.
func (e *Engine) Observe(obs Observer) {
	e.observers = append(e.observers, obs)
}

// Run seeds the population if needed and steps until the run stops.
// Calling Run on a stopped engine returns the existing result.
func (e *Engine) Run() (*Result, error) {
	return e.RunContext(context.Background())
}

// RunContext is Run with cancellation checked before every step. A cancelled
// run keeps its state and a later call resumes it.
func (e *Engine) RunContext(ctx context.Context) (*Result, error) {
	if e.state == StateCreated {
		if err := e.Seed(); err != nil {
			return nil, err
		}
	}

	for e.state != StateStopped {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("simulation interrupted", logging.Step(e.step), logging.Error(err))
			return nil, fmt.Errorf("interrupted after %d steps: %w", e.step, err)
		}
		if _, err := e.Step(); err != nil {
			return nil, err
		}
	}
	return e.result, nil
}

// Result returns the frozen result of a stopped run
func (e *Engine) Result() (*Result, error) {
	if e.state != StateStopped {
		return nil, fmt.Errorf("%w: no result in state %s", ErrInvalidState, e.state)
	}
	return e.result, nil
}

// Close releases the step worker pool. It is called automatically when the
// run stops and is safe to call more than once.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
}

// State returns the lifecycle state
func (e *Engine) State() State {
	return e.state
}

// StepCount returns the number of steps applied so far
func (e *Engine) StepCount() int {
	return e.step
}

// RunID returns the unique identifier of this run
func (e *Engine) RunID() string {
	return e.runID
}

// RandomSeed returns the seed driving generation and seeding
func (e *Engine) RandomSeed() uint64 {
	return e.seed
}

// Config returns the effective configuration, with defaults applied
func (e *Engine) Config() Config {
	return e.cfg
}

// Graph returns the immutable network
func (e *Engine) Graph() *network.Graph {
	return e.graph
}

// Seeds returns the seeded agents in ascending order
func (e *Engine) Seeds() []agents.AgentID {
	return slices.Clone(e.seeds)
}

// Opinions returns a copy of the committed opinion vector in agent order
func (e *Engine) Opinions() []float64 {
	return e.pop.Snapshot()
}

// Last returns the summary of the most recent step, or of seeding
func (e *Engine) Last() StepSummary {
	return e.last
}
