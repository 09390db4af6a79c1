package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/wikiscope/internal/model"
)

// Runner starts lookups from raw user input and makes sure only the most
// recently started lookup reaches the renderer.
type Runner struct {
	pipeline *Pipeline
	renderer Renderer
	seq      *Sequencer
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner executing p and rendering to renderer.
func NewRunner(p *Pipeline, renderer Renderer, opts ...RunnerOption) *Runner {
	if renderer == nil {
		renderer = discardRenderer{}
	}
	r := &Runner{
		pipeline: p,
		seq:      &Sequencer{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.renderer = LatestOnly(renderer, r.seq)
	return r
}

// Run looks up input.
//
// A blank input clears the display and returns model.ErrEmptyQuery without
// any request. Otherwise a new token supersedes every earlier lookup and
// the pipeline runs. The returned lookup is nil only for blank input.
func (r *Runner) Run(ctx context.Context, input string) (*model.Lookup, error) {
	query, err := model.NormalizeQuery(input)
	if err != nil {
		r.renderer.Render(model.ResetUpdate(r.seq.Next(), ""))
		return nil, err
	}

	lookup := model.NewLookup(query)
	lookup.Token = r.seq.Next()

	r.logger.Debug("starting lookup",
		"query", query,
		"token", lookup.Token,
	)

	err = r.pipeline.ExecuteWithRenderer(ctx, lookup, r.renderer)
	return lookup, err
}

// Latest returns the token of the most recently started lookup.
func (r *Runner) Latest() uint64 {
	return r.seq.Latest()
}
