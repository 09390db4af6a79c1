package model

import (
	"fmt"
	"testing"
	"time"
)

func TestSummarizeRevisions(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		s := SummarizeRevisions(nil)
		if s.Analyzed != 0 || s.UniqueContributors != 0 {
			t.Errorf("expected zero counts, got %+v", s)
		}
		if !s.Newest.IsZero() || !s.Oldest.IsZero() {
			t.Errorf("expected zero timestamps, got %+v", s)
		}
	})

	t.Run("repeated editors are counted once", func(t *testing.T) {
		t.Parallel()

		revs := []Revision{{User: "a"}, {User: "a"}, {User: "b"}, {User: "c"}, {User: "b"}}
		s := SummarizeRevisions(revs)
		if s.Analyzed != 5 {
			t.Errorf("expected 5 analyzed, got %d", s.Analyzed)
		}
		if s.UniqueContributors != 3 {
			t.Errorf("expected 3 contributors, got %d", s.UniqueContributors)
		}
	})

	t.Run("fifty revisions by twelve editors", func(t *testing.T) {
		t.Parallel()

		revs := make([]Revision, 50)
		for i := range revs {
			revs[i] = Revision{User: fmt.Sprintf("editor-%d", i%12)}
		}
		s := SummarizeRevisions(revs)
		if s.Analyzed != 50 {
			t.Errorf("expected 50 analyzed, got %d", s.Analyzed)
		}
		if s.UniqueContributors != 12 {
			t.Errorf("expected 12 contributors, got %d", s.UniqueContributors)
		}
	})

	t.Run("hidden editors share one identity", func(t *testing.T) {
		t.Parallel()

		s := SummarizeRevisions([]Revision{{User: ""}, {User: ""}, {User: "a"}})
		if s.UniqueContributors != 2 {
			t.Errorf("expected 2 contributors, got %d", s.UniqueContributors)
		}
	})

	t.Run("tracks newest and oldest timestamps", func(t *testing.T) {
		t.Parallel()

		newest := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		middle := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		oldest := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

		s := SummarizeRevisions([]Revision{
			{User: "a", Timestamp: newest},
			{User: "b", Timestamp: oldest},
			{User: "c", Timestamp: middle},
		})
		if !s.Newest.Equal(newest) {
			t.Errorf("expected newest %v, got %v", newest, s.Newest)
		}
		if !s.Oldest.Equal(oldest) {
			t.Errorf("expected oldest %v, got %v", oldest, s.Oldest)
		}
	})
}
