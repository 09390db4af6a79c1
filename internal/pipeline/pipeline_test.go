package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	stage     model.Stage
	doFunc    func(ctx context.Context, lookup *model.Lookup) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, lookup *model.Lookup) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, lookup)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// Stage implements Step.Stage.
func (m *mockStep) Stage() model.Stage {
	return m.stage
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.Concurrent() {
			t.Error("expected sequential enrichment by default")
		}
	})

	t.Run("applies WithConcurrentEnrichment option", func(t *testing.T) {
		t.Parallel()

		p := New(WithConcurrentEnrichment(true))

		if !p.Concurrent() {
			t.Error("expected concurrent enrichment")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "a"})
	p.AddSteps(&mockStep{name: "b"}, &mockStep{name: "c"})
	p.AddIndependentSteps(&mockStep{name: "d"})

	if p.StepCount() != 4 {
		t.Errorf("expected 4 steps, got %d", p.StepCount())
	}
	if got := strings.Join(p.StepNames(), ","); got != "a,b,c,d" {
		t.Errorf("StepNames() = %s", got)
	}
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("contains every stage in order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(newFakeSource(), nil)
		want := "resolve,summary,metadata,entity,history,images"
		if got := strings.Join(p.StepNames(), ","); got != want {
			t.Errorf("StepNames() = %s, want %s", got, want)
		}
	})

	t.Run("optional stages can be left out", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(newFakeSource(), nil, WithPipelineSkipEntity(true), WithPipelineSkipImages(true))
		want := "resolve,summary,metadata,history"
		if got := strings.Join(p.StepNames(), ","); got != want {
			t.Errorf("StepNames() = %s, want %s", got, want)
		}
	})
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	rec := &recordingRenderer{}
	obs := &recordingObserver{}
	p := newTestPipeline(src, false, WithRenderer(rec), WithObserver(obs))

	lookup := model.NewLookup("einstein")
	if err := p.Execute(context.Background(), lookup); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if lookup.Outcome.Status != model.StatusSuccess {
		t.Errorf("Status = %v, want success", lookup.Outcome.Status)
	}
	if lookup.Title != "Albert Einstein" {
		t.Errorf("Title = %q", lookup.Title)
	}

	got := strings.Join(kinds(rec.snapshot()), " ")
	want := "reset summary metadata entity history images"
	if got != want {
		t.Errorf("updates = %q, want %q", got, want)
	}
	if first := rec.snapshot()[0]; first.Message != model.MessageLoading {
		t.Errorf("reset message = %q, want %q", first.Message, model.MessageLoading)
	}

	wantStages := []model.Stage{
		model.StageResolve, model.StageSummary, model.StageMetadata,
		model.StageEntity, model.StageHistory, model.StageImages,
	}
	if !slices.Equal(lookup.PerformedStages, wantStages) {
		t.Errorf("PerformedStages = %v", lookup.PerformedStages)
	}

	if lookup.History.Analyzed != 50 || lookup.History.UniqueContributors != 12 {
		t.Errorf("History = %+v, want 50 analyzed and 12 contributors", lookup.History)
	}
	if len(obs.statuses) != 1 || obs.statuses[0] != model.StatusSuccess {
		t.Errorf("observed statuses = %v", obs.statuses)
	}
	if len(obs.stages) != 6 {
		t.Errorf("observed stages = %v", obs.stages)
	}
}

func TestExecuteNoResult(t *testing.T) {
	t.Parallel()

	for _, concurrent := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "concurrent"}[concurrent], func(t *testing.T) {
			t.Parallel()

			src := newFakeSource()
			src.hits = nil
			rec := &recordingRenderer{}
			p := newTestPipeline(src, concurrent, WithRenderer(rec))

			lookup := model.NewLookup("qwxzzzq")
			if err := p.Execute(context.Background(), lookup); err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}

			if lookup.Outcome.Status != model.StatusNotFound {
				t.Errorf("Status = %v, want not_found", lookup.Outcome.Status)
			}
			if src.total() != 1 || src.count("search") != 1 {
				t.Errorf("calls = %v, want only one search", src.calls)
			}

			updates := rec.snapshot()
			if got := strings.Join(kinds(updates), " "); got != "reset not_found" {
				t.Errorf("updates = %q", got)
			}
			if last := updates[len(updates)-1]; last.Message != model.MessageNoResult {
				t.Errorf("message = %q", last.Message)
			}
		})
	}
}

func TestExecuteWithoutEntity(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.summary = &model.PageSummary{Title: "Obscure", Extract: "x"}
	rec := &recordingRenderer{}
	p := newTestPipeline(src, false, WithRenderer(rec))

	lookup := model.NewLookup("obscure")
	if err := p.Execute(context.Background(), lookup); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if src.count("entity") != 0 {
		t.Errorf("entity calls = %d, want 0", src.count("entity"))
	}
	if lookup.Entity != nil {
		t.Errorf("Entity = %+v, want nil", lookup.Entity)
	}
	if !slices.Equal(lookup.SkippedStages, []model.Stage{model.StageEntity}) {
		t.Errorf("SkippedStages = %v", lookup.SkippedStages)
	}
	if got := strings.Join(kinds(rec.snapshot()), " "); got != "reset summary metadata history images" {
		t.Errorf("updates = %q", got)
	}
	if !lookup.Succeeded() {
		t.Errorf("Outcome = %+v, want success", lookup.Outcome)
	}
}

func TestExecuteStageFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		failing     string
		stage       model.Stage
		wantUpdates string
		notCalled   []string
	}{
		{
			name:        "search failure",
			failing:     "search",
			stage:       model.StageResolve,
			wantUpdates: "reset failed",
			notCalled:   []string{"summary", "metadata", "entity", "revisions", "images"},
		},
		{
			name:        "summary failure",
			failing:     "summary",
			stage:       model.StageSummary,
			wantUpdates: "reset failed",
			notCalled:   []string{"metadata", "entity", "revisions", "images"},
		},
		{
			name:        "metadata failure",
			failing:     "metadata",
			stage:       model.StageMetadata,
			wantUpdates: "reset summary failed",
			notCalled:   []string{"entity", "revisions", "images"},
		},
		{
			name:        "wikidata failure",
			failing:     "entity",
			stage:       model.StageEntity,
			wantUpdates: "reset summary metadata failed",
			notCalled:   []string{"revisions", "images"},
		},
		{
			name:        "history failure keeps earlier panels",
			failing:     "revisions",
			stage:       model.StageHistory,
			wantUpdates: "reset summary metadata entity failed",
			notCalled:   []string{"images"},
		},
		{
			name:        "images failure",
			failing:     "images",
			stage:       model.StageImages,
			wantUpdates: "reset summary metadata entity history failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newFakeSource()
			src.errs[tt.failing] = errUpstream
			rec := &recordingRenderer{}
			p := newTestPipeline(src, false, WithRenderer(rec))

			lookup := model.NewLookup("einstein")
			err := p.Execute(context.Background(), lookup)
			if !errors.Is(err, errUpstream) {
				t.Fatalf("Execute() error = %v, want errUpstream", err)
			}

			var se *StageError
			if !errors.As(err, &se) || se.Stage != tt.stage {
				t.Errorf("StageError = %v, want stage %v", err, tt.stage)
			}
			if lookup.Outcome.Status != model.StatusFailed || lookup.Outcome.FailedStage != tt.stage {
				t.Errorf("Outcome = %+v", lookup.Outcome)
			}

			updates := rec.snapshot()
			if got := strings.Join(kinds(updates), " "); got != tt.wantUpdates {
				t.Errorf("updates = %q, want %q", got, tt.wantUpdates)
			}
			last := updates[len(updates)-1]
			if last.Panel != model.PanelSummary || last.Message != model.MessageFailure {
				t.Errorf("last update = %+v", last)
			}

			for _, op := range tt.notCalled {
				if n := src.count(op); n != 0 {
					t.Errorf("%s called %d times after failure", op, n)
				}
			}
		})
	}
}

func TestExecuteStageTimeout(t *testing.T) {
	t.Parallel()

	slow := &mockStep{
		name:  "slow",
		stage: model.StageMetadata,
		doFunc: func(ctx context.Context, _ *model.Lookup) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}
	after := &mockStep{name: "after", stage: model.StageHistory}

	p := New(WithStageTimeout(10 * time.Millisecond))
	p.AddIndependentSteps(slow, after)

	lookup := model.NewLookup("einstein")
	err := p.Execute(context.Background(), lookup)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Execute() error = %v, want deadline exceeded", err)
	}
	if lookup.Outcome.FailedStage != model.StageMetadata {
		t.Errorf("FailedStage = %v, want metadata", lookup.Outcome.FailedStage)
	}
	if after.callCount != 0 {
		t.Errorf("step after the timeout called %d times", after.callCount)
	}
}

func TestExecuteConcurrent(t *testing.T) {
	t.Parallel()

	t.Run("renders every panel once", func(t *testing.T) {
		t.Parallel()

		src := newFakeSource()
		rec := &recordingRenderer{}
		p := newTestPipeline(src, true, WithRenderer(rec))

		lookup := model.NewLookup("einstein")
		if err := p.Execute(context.Background(), lookup); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		got := kinds(rec.snapshot())
		if len(got) != 6 || got[0] != "reset" || got[1] != "summary" {
			t.Fatalf("updates = %v", got)
		}
		rest := slices.Clone(got[2:])
		slices.Sort(rest)
		if strings.Join(rest, ",") != "entity,history,images,metadata" {
			t.Errorf("independent updates = %v", rest)
		}
		if len(lookup.PerformedStages) != 6 {
			t.Errorf("PerformedStages = %v", lookup.PerformedStages)
		}
	})

	t.Run("failure ends with the failure message", func(t *testing.T) {
		t.Parallel()

		src := newFakeSource()
		src.errs["metadata"] = errUpstream
		rec := &recordingRenderer{}
		p := newTestPipeline(src, true, WithRenderer(rec))

		lookup := model.NewLookup("einstein")
		err := p.Execute(context.Background(), lookup)
		if !errors.Is(err, errUpstream) {
			t.Fatalf("Execute() error = %v", err)
		}
		if lookup.Outcome.FailedStage != model.StageMetadata {
			t.Errorf("FailedStage = %v", lookup.Outcome.FailedStage)
		}

		updates := rec.snapshot()
		last := updates[len(updates)-1]
		if last.Kind != model.UpdateFailed {
			t.Errorf("last update = %v, want failed", last.Kind)
		}
		for _, u := range updates {
			if u.Panel == model.PanelMetadata {
				t.Error("failed metadata panel was rendered")
			}
		}
	})
}

func TestExecuteCancelledContext(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	p := newTestPipeline(src, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lookup := model.NewLookup("einstein")
	err := p.Execute(ctx, lookup)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if lookup.Outcome.FailedStage != model.StageResolve {
		t.Errorf("FailedStage = %v", lookup.Outcome.FailedStage)
	}
	if src.total() != 0 {
		t.Errorf("calls = %d, want 0", src.total())
	}
}

func TestExecuteNilEditCount(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.metadata = &model.PageMetadata{PageID: 1, Length: 10}
	p := newTestPipeline(src, false)

	lookup := model.NewLookup("x")
	if err := p.Execute(context.Background(), lookup); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := lookup.Metadata.EditCountText(); got != model.NotAvailable {
		t.Errorf("EditCountText() = %q", got)
	}
}

func TestExecuteNoImages(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.images = nil
	rec := &recordingRenderer{}
	p := newTestPipeline(src, false, WithRenderer(rec))

	lookup := model.NewLookup("x")
	if err := p.Execute(context.Background(), lookup); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if lookup.Images == nil || !lookup.Images.Empty() {
		t.Errorf("Images = %+v, want empty set", lookup.Images)
	}

	updates := rec.snapshot()
	last := updates[len(updates)-1]
	if last.Panel != model.PanelImages || !last.Images.Empty() {
		t.Errorf("last update = %+v", last)
	}
}

func TestStageError(t *testing.T) {
	t.Parallel()

	err := &StageError{Stage: model.StageHistory, Err: errUpstream}
	if !strings.Contains(err.Error(), "history") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, errUpstream) {
		t.Error("StageError does not unwrap")
	}
}
