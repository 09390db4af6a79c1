package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSource is an in-memory Source that counts calls per operation.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int

	hits      []model.SearchHit
	summary   *model.PageSummary
	metadata  *model.PageMetadata
	entity    *model.Entity
	revisions []model.Revision
	images    *model.ImageSet

	// errs makes the named operation fail.
	errs map[string]error

	// searchHook runs at the start of Search.
	searchHook func(ctx context.Context, query string)
}

func newFakeSource() *fakeSource {
	editCount := 4321
	revs := make([]model.Revision, 0, 50)
	for i := range 50 {
		revs = append(revs, model.Revision{User: fmt.Sprintf("editor-%d", i%12)})
	}
	return &fakeSource{
		calls: make(map[string]int),
		hits: []model.SearchHit{
			{Title: "Albert Einstein", PageID: 736},
			{Title: "Einstein family", PageID: 99},
		},
		summary: &model.PageSummary{
			Title:        "Albert Einstein",
			Extract:      "German-born theoretical physicist.",
			WikibaseItem: "Q937",
		},
		metadata:  &model.PageMetadata{PageID: 736, EditCount: &editCount, Length: 180000},
		entity:    model.NewEntity("Q937", "Albert Einstein", "physicist"),
		revisions: revs,
		images: &model.ImageSet{Images: []model.Image{
			{Title: "File:Einstein.jpg", URL: "https://upload.example/einstein.jpg"},
		}},
		errs: make(map[string]error),
	}
}

func (f *fakeSource) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeSource) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	if f.searchHook != nil {
		f.searchHook(ctx, query)
	}
	if err := f.record("search"); err != nil {
		return nil, err
	}
	return f.hits, nil
}

func (f *fakeSource) Summary(_ context.Context, _ string) (*model.PageSummary, error) {
	if err := f.record("summary"); err != nil {
		return nil, err
	}
	return f.summary, nil
}

func (f *fakeSource) Metadata(_ context.Context, _ string) (*model.PageMetadata, error) {
	if err := f.record("metadata"); err != nil {
		return nil, err
	}
	return f.metadata, nil
}

func (f *fakeSource) Entity(_ context.Context, _ string) (*model.Entity, error) {
	if err := f.record("entity"); err != nil {
		return nil, err
	}
	return f.entity, nil
}

func (f *fakeSource) Revisions(_ context.Context, _ string) ([]model.Revision, error) {
	if err := f.record("revisions"); err != nil {
		return nil, err
	}
	return f.revisions, nil
}

func (f *fakeSource) Images(_ context.Context, _ string) (*model.ImageSet, error) {
	if err := f.record("images"); err != nil {
		return nil, err
	}
	return f.images, nil
}

// recordingRenderer collects every update it receives.
type recordingRenderer struct {
	mu      sync.Mutex
	updates []model.PanelUpdate
}

func (r *recordingRenderer) Render(u model.PanelUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingRenderer) snapshot() []model.PanelUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PanelUpdate(nil), r.updates...)
}

// kinds returns a compact description of the updates, e.g. "reset summary metadata".
func kinds(updates []model.PanelUpdate) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		if u.Kind == model.UpdatePanel {
			out = append(out, u.Panel.String())
			continue
		}
		out = append(out, u.Kind.String())
	}
	return out
}

// recordingObserver records stage outcomes and lookup statuses.
type recordingObserver struct {
	mu       sync.Mutex
	stages   []string
	statuses []model.Status
}

func (o *recordingObserver) ObserveStage(stage model.Stage, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage.String()+":"+outcome)
}

func (o *recordingObserver) ObserveLookup(status model.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPipeline builds the default pipeline over src with a quiet logger.
func newTestPipeline(src Source, concurrent bool, opts ...Option) *Pipeline {
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithConcurrentEnrichment(concurrent),
	}, opts...)
	return DefaultPipeline(src, opts, WithPipelineStepLogger(quietLogger()))
}
