package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/nao1215/wikiscope/internal/model"
)

// fakeSource serves canned API answers keyed by query or title.
type fakeSource struct {
	mu sync.Mutex

	suggestions []string
	// titles maps a query to the article title its search resolves to.
	titles map[string]string
	// failHistory makes the revisions call fail for every title.
	failHistory bool
	calls       int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		suggestions: []string{"Albert Einstein", "Albert Camus"},
		titles: map[string]string{
			"Albert Einstein": "Albert Einstein",
			"einstein":        "Albert Einstein",
			"paris":           "Paris",
			"london":          "London",
		},
	}
}

func (f *fakeSource) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeSource) Suggest(_ context.Context, _ string) ([]string, error) {
	f.count()
	return f.suggestions, nil
}

func (f *fakeSource) Search(_ context.Context, query string) ([]model.SearchHit, error) {
	f.count()
	title, ok := f.titles[query]
	if !ok {
		return nil, nil
	}
	return []model.SearchHit{{Title: title}}, nil
}

func (f *fakeSource) Summary(_ context.Context, title string) (*model.PageSummary, error) {
	f.count()
	return &model.PageSummary{Title: title, Extract: title + " is a test article.", WikibaseItem: "Q937"}, nil
}

func (f *fakeSource) Metadata(_ context.Context, _ string) (*model.PageMetadata, error) {
	f.count()
	edits := 4200
	return &model.PageMetadata{PageID: 736, EditCount: &edits, Length: 180000}, nil
}

func (f *fakeSource) Entity(_ context.Context, id string) (*model.Entity, error) {
	f.count()
	return model.NewEntity(id, "Albert Einstein", "physicist"), nil
}

func (f *fakeSource) Revisions(_ context.Context, _ string) ([]model.Revision, error) {
	f.count()
	if f.failHistory {
		return nil, errors.New("upstream timeout")
	}
	return []model.Revision{{User: "Alice"}, {User: "Bob"}, {User: "Alice"}}, nil
}

func (f *fakeSource) Images(_ context.Context, _ string) (*model.ImageSet, error) {
	f.count()
	return &model.ImageSet{Images: []model.Image{{Title: "File:A.jpg", URL: "https://upload.example/A.jpg"}}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
