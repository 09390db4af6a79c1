package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/wikiscope/internal/model"
)

// Source is the upstream data needed by the lookup steps.
// *wiki.Client implements this interface.
type Source interface {
	Search(ctx context.Context, query string) ([]model.SearchHit, error)
	Summary(ctx context.Context, title string) (*model.PageSummary, error)
	Metadata(ctx context.Context, title string) (*model.PageMetadata, error)
	Entity(ctx context.Context, id string) (*model.Entity, error)
	Revisions(ctx context.Context, title string) ([]model.Revision, error)
	Images(ctx context.Context, title string) (*model.ImageSet, error)
}

// StepOption configures a step.
type StepOption func(*baseStep)

// WithStepLogger sets a custom logger for a step.
func WithStepLogger(logger *slog.Logger) StepOption {
	return func(s *baseStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// baseStep holds what every step needs.
type baseStep struct {
	source Source
	logger *slog.Logger
}

func newBaseStep(source Source, opts []StepOption) baseStep {
	b := baseStep{source: source, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// requireTitle fails a step that runs before the title is known.
func requireTitle(lookup *model.Lookup, stage model.Stage) error {
	if lookup.Title == "" {
		return fmt.Errorf("%s: canonical title not resolved", stage)
	}
	return nil
}

// ResolveStep searches for the query and takes the first hit as the
// canonical title. There is no ranking or disambiguation beyond that.
type ResolveStep struct {
	baseStep
}

// NewResolveStep creates a new resolve step.
func NewResolveStep(source Source, opts ...StepOption) *ResolveStep {
	return &ResolveStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Stage returns model.StageResolve.
func (s *ResolveStep) Stage() model.Stage {
	return model.StageResolve
}

// Do executes the resolve step.
func (s *ResolveStep) Do(ctx context.Context, lookup *model.Lookup) error {
	hits, err := s.source.Search(ctx, lookup.Query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		s.logger.Debug("no search result", "query", lookup.Query)
		return ErrNoResult
	}

	hit := hits[0]
	lookup.Hit = &hit
	lookup.Title = hit.Title
	s.logger.Debug("resolved title",
		"query", lookup.Query,
		"title", hit.Title,
		"hits", len(hits),
	)
	return nil
}

// SummaryStep fetches the intro extract and the linked Wikidata item.
type SummaryStep struct {
	baseStep
}

// NewSummaryStep creates a new summary step.
func NewSummaryStep(source Source, opts ...StepOption) *SummaryStep {
	return &SummaryStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Stage returns model.StageSummary.
func (s *SummaryStep) Stage() model.Stage {
	return model.StageSummary
}

// Do executes the summary step.
func (s *SummaryStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if err := requireTitle(lookup, s.Stage()); err != nil {
		return err
	}
	summary, err := s.source.Summary(ctx, lookup.Title)
	if err != nil {
		return err
	}
	lookup.Summary = summary
	return nil
}

// MetadataStep fetches the page ID, edit count and size.
type MetadataStep struct {
	baseStep
}

// NewMetadataStep creates a new metadata step.
func NewMetadataStep(source Source, opts ...StepOption) *MetadataStep {
	return &MetadataStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return "metadata"
}

// Stage returns model.StageMetadata.
func (s *MetadataStep) Stage() model.Stage {
	return model.StageMetadata
}

// Do executes the metadata step.
func (s *MetadataStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if err := requireTitle(lookup, s.Stage()); err != nil {
		return err
	}
	meta, err := s.source.Metadata(ctx, lookup.Title)
	if err != nil {
		return err
	}
	lookup.Metadata = meta
	return nil
}

// EntityStep fetches the Wikidata item linked from the summary.
// It is skipped, without a request, when the article has no linked item.
type EntityStep struct {
	baseStep
}

// NewEntityStep creates a new entity step.
func NewEntityStep(source Source, opts ...StepOption) *EntityStep {
	return &EntityStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *EntityStep) Name() string {
	return "entity"
}

// Stage returns model.StageEntity.
func (s *EntityStep) Stage() model.Stage {
	return model.StageEntity
}

// Do executes the entity step.
func (s *EntityStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if !lookup.Summary.HasEntity() {
		return ErrStageSkipped
	}
	entity, err := s.source.Entity(ctx, lookup.Summary.WikibaseItem)
	if err != nil {
		return err
	}
	lookup.Entity = entity
	return nil
}

// HistoryStep fetches recent revisions and reduces them to counts.
type HistoryStep struct {
	baseStep
}

// NewHistoryStep creates a new history step.
func NewHistoryStep(source Source, opts ...StepOption) *HistoryStep {
	return &HistoryStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Stage returns model.StageHistory.
func (s *HistoryStep) Stage() model.Stage {
	return model.StageHistory
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if err := requireTitle(lookup, s.Stage()); err != nil {
		return err
	}
	revisions, err := s.source.Revisions(ctx, lookup.Title)
	if err != nil {
		return err
	}
	lookup.History = model.SummarizeRevisions(revisions)
	return nil
}

// ImagesStep searches Wikimedia Commons for files about the title.
type ImagesStep struct {
	baseStep
}

// NewImagesStep creates a new images step.
func NewImagesStep(source Source, opts ...StepOption) *ImagesStep {
	return &ImagesStep{baseStep: newBaseStep(source, opts)}
}

// Name returns the step name.
func (s *ImagesStep) Name() string {
	return "images"
}

// Stage returns model.StageImages.
func (s *ImagesStep) Stage() model.Stage {
	return model.StageImages
}

// Do executes the images step.
func (s *ImagesStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if err := requireTitle(lookup, s.Stage()); err != nil {
		return err
	}
	images, err := s.source.Images(ctx, lookup.Title)
	if err != nil {
		return err
	}
	if images == nil {
		images = &model.ImageSet{}
	}
	lookup.Images = images
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// StepLogger is the logger used by the steps. Defaults to slog.Default().
	StepLogger *slog.Logger

	// SkipEntity leaves the Wikidata panel empty for every lookup.
	SkipEntity bool

	// SkipImages leaves the Commons panel empty for every lookup.
	SkipImages bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineStepLogger sets the logger used by the steps.
func WithPipelineStepLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.StepLogger = logger
	}
}

// WithPipelineSkipEntity disables the Wikidata stage.
func WithPipelineSkipEntity(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipEntity = skip
	}
}

// WithPipelineSkipImages disables the Commons stage.
func WithPipelineSkipImages(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipImages = skip
	}
}

// DefaultPipeline creates a pipeline with the standard lookup steps:
// resolve and summary as gate steps, then metadata, entity, history and
// images as independent steps in that order.
func DefaultPipeline(source Source, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	stepOpts := []StepOption{WithStepLogger(cfg.StepLogger)}

	p := New(pipelineOpts...)
	p.AddSteps(
		NewResolveStep(source, stepOpts...),
		NewSummaryStep(source, stepOpts...),
	)
	p.AddIndependentSteps(NewMetadataStep(source, stepOpts...))
	if !cfg.SkipEntity {
		p.AddIndependentSteps(NewEntityStep(source, stepOpts...))
	}
	p.AddIndependentSteps(NewHistoryStep(source, stepOpts...))
	if !cfg.SkipImages {
		p.AddIndependentSteps(NewImagesStep(source, stepOpts...))
	}

	return p
}
