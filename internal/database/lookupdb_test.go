package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *LookupDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// newStoredLookup builds a successful lookup of title at the given time.
func newStoredLookup(title string, at time.Time, size, analyzed, contributors int) *model.Lookup {
	l := model.NewLookup(strings.ToLower(title))
	l.Title = title
	l.DateLookedUp = at
	l.Summary = &model.PageSummary{Title: title, Extract: "extract", WikibaseItem: "Q1"}
	l.Metadata = &model.PageMetadata{PageID: 1, Length: size}
	l.Entity = model.NewEntity("Q1", title, "description")
	l.History = &model.RevisionSummary{Analyzed: analyzed, UniqueContributors: contributors}
	l.Images = &model.ImageSet{}
	l.Outcome = model.Succeeded()
	return l
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := db.SaveLookup(context.Background(), newStoredLookup("Paris", time.Now(), 1, 1, 1)); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		n, err := db.CountLookups(context.Background())
		if err != nil || n != 1 {
			t.Errorf("CountLookups() = %d, %v", n, err)
		}
	})
}

func TestSaveAndGetLookup(t *testing.T) {
	t.Parallel()

	t.Run("round trips the lookup", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		want := newStoredLookup("Albert Einstein", time.Now(), 180000, 50, 12)
		want.PerformedStages = model.AllStages()

		if err := db.SaveLookup(ctx, want); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}

		got, err := db.GetLookupByID(ctx, want.ID)
		if err != nil {
			t.Fatalf("GetLookupByID() error = %v", err)
		}
		if got == nil {
			t.Fatal("expected lookup, got nil")
		}
		if got.Title != want.Title || got.Query != want.Query {
			t.Errorf("got %q/%q", got.Title, got.Query)
		}
		if got.History.UniqueContributors != 12 || got.Metadata.Length != 180000 {
			t.Errorf("panels = %+v, %+v", got.History, got.Metadata)
		}
		if got.Outcome.Status != model.StatusSuccess {
			t.Errorf("Status = %v", got.Outcome.Status)
		}
		if len(got.PerformedStages) != 6 || got.PerformedStages[5] != model.StageImages {
			t.Errorf("PerformedStages = %v", got.PerformedStages)
		}
	})

	t.Run("missing id returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetLookupByID(context.Background(), "does-not-exist")
		if err != nil || got != nil {
			t.Errorf("GetLookupByID() = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("saving twice replaces the row", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		l := newStoredLookup("Paris", time.Now(), 100, 10, 5)
		if err := db.SaveLookup(ctx, l); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}
		l.Metadata.Length = 200
		if err := db.SaveLookup(ctx, l); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}

		n, _ := db.CountLookups(ctx) //nolint:errcheck // checked via n
		if n != 1 {
			t.Errorf("CountLookups() = %d, want 1", n)
		}
		got, _ := db.GetLookupByID(ctx, l.ID) //nolint:errcheck // checked via got
		if got.Metadata.Length != 200 {
			t.Errorf("Length = %d, want 200", got.Metadata.Length)
		}
	})

	t.Run("failed lookup keeps the failed stage", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		l := newStoredLookup("Paris", time.Now(), 100, 0, 0)
		l.History, l.Images = nil, nil
		l.Outcome = model.Failed(model.StageHistory, errors.New("timeout"))
		if err := db.SaveLookup(ctx, l); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}

		meta, err := db.GetLookupHistoryWithMetadata(ctx, "Paris")
		if err != nil {
			t.Fatalf("GetLookupHistoryWithMetadata() error = %v", err)
		}
		if len(meta) != 1 {
			t.Fatalf("len = %d, want 1", len(meta))
		}
		if meta[0].Status != model.StatusFailed || meta[0].FailedStage != model.StageHistory {
			t.Errorf("metadata = %+v", meta[0])
		}
		if meta[0].EditsAnalyzed != nil {
			t.Errorf("EditsAnalyzed = %v, want nil", *meta[0].EditsAnalyzed)
		}

		got, _ := db.GetLookupByID(ctx, l.ID) //nolint:errcheck // checked via got
		if got.Outcome.ErrorMessage != "timeout" {
			t.Errorf("ErrorMessage = %q", got.Outcome.ErrorMessage)
		}
	})
}

func TestLookupHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	older := newStoredLookup("Albert Einstein", base, 100, 50, 10)
	newer := newStoredLookup("Albert Einstein", base.Add(time.Hour), 150, 50, 12)
	other := newStoredLookup("Marie Curie", base.Add(30*time.Minute), 90, 40, 8)
	notFound := model.NewLookup("qwxzzzq")
	notFound.Outcome = model.NotFound()

	for _, l := range []*model.Lookup{newer, other, older, notFound} {
		if err := db.SaveLookup(ctx, l); err != nil {
			t.Fatalf("SaveLookup() error = %v", err)
		}
	}

	t.Run("latest lookup of a title", func(t *testing.T) {
		latest, err := db.GetLatestLookup(ctx, "Albert Einstein")
		if err != nil {
			t.Fatalf("GetLatestLookup() error = %v", err)
		}
		if latest == nil || latest.ID != newer.ID {
			t.Errorf("GetLatestLookup() = %v, want %s", latest, newer.ID)
		}
	})

	t.Run("unknown title", func(t *testing.T) {
		latest, err := db.GetLatestLookup(ctx, "Nobody")
		if err != nil || latest != nil {
			t.Errorf("GetLatestLookup() = %v, %v", latest, err)
		}
	})

	t.Run("history is newest first", func(t *testing.T) {
		history, err := db.GetLookupHistory(ctx, "Albert Einstein")
		if err != nil {
			t.Fatalf("GetLookupHistory() error = %v", err)
		}
		if len(history) != 2 || history[0].ID != newer.ID || history[1].ID != older.ID {
			t.Errorf("history order wrong: %d entries", len(history))
		}
	})

	t.Run("metadata carries summary columns", func(t *testing.T) {
		meta, err := db.GetLookupHistoryWithMetadata(ctx, "Albert Einstein")
		if err != nil {
			t.Fatalf("GetLookupHistoryWithMetadata() error = %v", err)
		}
		if len(meta) != 2 {
			t.Fatalf("len = %d, want 2", len(meta))
		}
		m := meta[0]
		if m.PageSize == nil || *m.PageSize != 150 || m.UniqueContributors == nil || *m.UniqueContributors != 12 {
			t.Errorf("metadata = %+v", m)
		}
		if m.EntityID != "Q1" || m.Status != model.StatusSuccess {
			t.Errorf("metadata = %+v", m)
		}
		if !m.Timestamp.Equal(base.Add(time.Hour)) {
			t.Errorf("Timestamp = %v", m.Timestamp)
		}
	})

	t.Run("titles exclude unresolved lookups", func(t *testing.T) {
		titles, err := db.ListTitles(ctx)
		if err != nil {
			t.Fatalf("ListTitles() error = %v", err)
		}
		if strings.Join(titles, ",") != "Albert Einstein,Marie Curie" {
			t.Errorf("ListTitles() = %v", titles)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01 12:00:00.000000000", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"2025-03-01 12:00:00", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"2025-03-01T12:00:00Z", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
	}

	for _, tt := range tests {
		if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
