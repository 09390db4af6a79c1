package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
	"golang.org/x/sync/errgroup"
)

// Stage outcomes passed to the Observer.
const (
	StageOutcomeOK       = "ok"
	StageOutcomeSkipped  = "skipped"
	StageOutcomeNoResult = "no_result"
	StageOutcomeError    = "error"
)

// Step defines the interface that all pipeline steps must implement.
// A step performs one network call and writes only its own field of the
// lookup.
type Step interface {
	// Do executes the step. It returns ErrNoResult to end the lookup as not
	// found, ErrStageSkipped when the step does not apply, and any other
	// error to fail the lookup.
	Do(ctx context.Context, lookup *model.Lookup) error

	// Name returns the step's name for logging purposes.
	Name() string

	// Stage returns the stage the step implements.
	Stage() model.Stage
}

// Renderer receives display updates as stages complete.
// Render may be called from several goroutines, but never concurrently
// for the same lookup.
type Renderer interface {
	Render(update model.PanelUpdate)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(update model.PanelUpdate)

// Render calls f(update).
func (f RendererFunc) Render(update model.PanelUpdate) {
	f(update)
}

// discardRenderer drops every update.
type discardRenderer struct{}

func (discardRenderer) Render(model.PanelUpdate) {}

// Observer is notified about stage timings and lookup results.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveStage(stage model.Stage, outcome string, elapsed time.Duration)
	ObserveLookup(status model.Status)
}

// Pipeline orchestrates the execution of the lookup steps.
// A Pipeline holds no per-lookup state and may execute several lookups
// concurrently.
type Pipeline struct {
	// gate steps run in order before any independent step.
	gate []Step

	// independent steps only depend on the gate steps.
	independent []Step

	// concurrent runs the independent steps concurrently.
	concurrent bool

	// stageTimeout bounds each step. Zero means no extra limit.
	stageTimeout time.Duration

	renderer Renderer
	observer Observer
	logger   *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithConcurrentEnrichment runs the independent steps concurrently once the
// gate steps have finished. The order in which their panels are rendered is
// then unspecified.
func WithConcurrentEnrichment(concurrent bool) Option {
	return func(p *Pipeline) {
		p.concurrent = concurrent
	}
}

// WithRenderer sets the renderer used by Execute.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// WithObserver sets the stage and lookup observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithStageTimeout bounds the duration of each step.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.stageTimeout = d
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep and AddIndependentSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.renderer == nil {
		p.renderer = discardRenderer{}
	}

	return p
}

// AddStep appends a gate step. Gate steps run in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.gate = append(p.gate, step)
}

// AddSteps appends multiple gate steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.gate = append(p.gate, steps...)
}

// AddIndependentSteps appends steps that run after all gate steps and do
// not depend on each other.
func (p *Pipeline) AddIndependentSteps(steps ...Step) {
	p.independent = append(p.independent, steps...)
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.gate) + len(p.independent)
}

// StepNames returns the names of all steps, gate steps first.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.gate {
		names = append(names, step.Name())
	}
	for _, step := range p.independent {
		names = append(names, step.Name())
	}
	return names
}

// Concurrent reports whether independent steps run concurrently.
func (p *Pipeline) Concurrent() bool {
	return p.concurrent
}

// Execute runs the lookup with the pipeline's renderer.
// See ExecuteWithRenderer.
func (p *Pipeline) Execute(ctx context.Context, lookup *model.Lookup) error {
	return p.ExecuteWithRenderer(ctx, lookup, p.renderer)
}

// ExecuteWithRenderer runs all steps for lookup, sending display updates to r.
//
// The first update clears every panel and shows the loading message. A
// search without hits ends the lookup as not found and returns nil. The
// first failing step aborts the rest and its *StageError is returned. In
// every case lookup.Outcome describes how the lookup ended.
func (p *Pipeline) ExecuteWithRenderer(ctx context.Context, lookup *model.Lookup, r Renderer) error {
	if r == nil {
		r = discardRenderer{}
	}
	run := &execution{pipeline: p, lookup: lookup, renderer: r}
	start := time.Now()

	run.render(model.ResetUpdate(lookup.Token, model.MessageLoading))

	err := run.gate(ctx)
	if err == nil {
		err = run.enrich(ctx)
	}
	lookup.Elapsed = time.Since(start)

	return run.finish(err)
}

// execution is the state of one lookup.
type execution struct {
	pipeline *Pipeline
	lookup   *model.Lookup
	renderer Renderer

	// mu serializes lookup bookkeeping and rendering.
	mu sync.Mutex
	// ended is set once the lookup failed or was found empty; no panel
	// updates are rendered after that.
	ended bool
}

func (e *execution) gate(ctx context.Context) error {
	for _, step := range e.pipeline.gate {
		if err := e.step(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (e *execution) enrich(ctx context.Context) error {
	if !e.pipeline.concurrent {
		for _, step := range e.pipeline.independent {
			if err := e.step(ctx, step); err != nil {
				return err
			}
		}
		return nil
	}

	// The first error cancels the remaining steps.
	g, gctx := errgroup.WithContext(ctx)
	for _, step := range e.pipeline.independent {
		g.Go(func() error {
			return e.step(gctx, step)
		})
	}
	return g.Wait()
}

// step runs one step and records or renders its result.
func (e *execution) step(ctx context.Context, step Step) error {
	p := e.pipeline
	stage := step.Stage()

	select {
	case <-ctx.Done():
		p.logger.Warn("lookup cancelled",
			"step", step.Name(),
			"query", e.lookup.Query,
			"reason", ctx.Err(),
		)
		return &StageError{Stage: stage, Err: ctx.Err()}
	default:
	}

	p.logger.Debug("executing step",
		"step", step.Name(),
		"query", e.lookup.Query,
	)

	stepCtx := ctx
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := step.Do(stepCtx, e.lookup)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		p.observeStage(stage, StageOutcomeOK, elapsed)
		e.completed(stage)
		p.logger.Debug("step completed",
			"step", step.Name(),
			"query", e.lookup.Query,
			"elapsed", elapsed,
		)
		return nil

	case errors.Is(err, ErrStageSkipped):
		p.observeStage(stage, StageOutcomeSkipped, elapsed)
		e.mu.Lock()
		e.lookup.SkippedStages = append(e.lookup.SkippedStages, stage)
		e.mu.Unlock()
		p.logger.Debug("step skipped",
			"step", step.Name(),
			"query", e.lookup.Query,
		)
		return nil

	case errors.Is(err, ErrNoResult):
		p.observeStage(stage, StageOutcomeNoResult, elapsed)
		e.mu.Lock()
		e.lookup.PerformedStages = append(e.lookup.PerformedStages, stage)
		e.mu.Unlock()
		return err

	default:
		p.observeStage(stage, StageOutcomeError, elapsed)
		e.end()
		p.logger.Error("step failed",
			"step", step.Name(),
			"query", e.lookup.Query,
			"error", err,
		)
		return &StageError{Stage: stage, Err: err}
	}
}

// completed records a finished stage and renders its panel.
func (e *execution) completed(stage model.Stage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lookup.PerformedStages = append(e.lookup.PerformedStages, stage)
	if e.ended {
		return
	}
	if update, ok := e.lookup.PanelUpdate(stage); ok {
		e.renderer.Render(update)
	}
}

// render sends an update unless the lookup has already ended.
func (e *execution) render(update model.PanelUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ended {
		e.renderer.Render(update)
	}
}

// end stops panel rendering for the rest of the lookup.
func (e *execution) end() {
	e.mu.Lock()
	e.ended = true
	e.mu.Unlock()
}

// finish sets the lookup outcome and renders the final message, if any.
func (e *execution) finish(err error) error {
	l := e.lookup

	switch {
	case err == nil:
		l.Outcome = model.Succeeded()
	case errors.Is(err, ErrNoResult):
		l.Outcome = model.NotFound()
		err = nil
	default:
		var se *StageError
		if errors.As(err, &se) {
			l.Outcome = model.Failed(se.Stage, se.Err)
		} else {
			l.Outcome = model.Failed(model.StageNone, err)
		}
	}

	if update, ok := model.OutcomeUpdate(l.Token, l.Outcome); ok {
		e.mu.Lock()
		e.ended = true
		e.renderer.Render(update)
		e.mu.Unlock()
	}

	if e.pipeline.observer != nil {
		e.pipeline.observer.ObserveLookup(l.Outcome.Status)
	}

	return err
}

func (p *Pipeline) observeStage(stage model.Stage, outcome string, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveStage(stage, outcome, elapsed)
	}
}
