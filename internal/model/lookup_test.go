package model

import (
	"errors"
	"testing"
)

var errTest = errors.New("test error")

func TestNewLookup(t *testing.T) {
	t.Parallel()

	l := NewLookup("Go")
	if l.ID == "" {
		t.Error("expected non-empty ID")
	}
	if l.Query != "Go" {
		t.Errorf("expected query Go, got %q", l.Query)
	}
	if l.Outcome.Status != StatusPending {
		t.Errorf("expected pending status, got %v", l.Outcome.Status)
	}
	if l.DateLookedUp.IsZero() {
		t.Error("expected DateLookedUp to be set")
	}

	other := NewLookup("Go")
	if other.ID == l.ID {
		t.Error("expected unique IDs")
	}
}

func TestLookupPanelUpdate(t *testing.T) {
	t.Parallel()

	t.Run("missing data yields no update", func(t *testing.T) {
		t.Parallel()

		l := NewLookup("Go")
		for _, stage := range AllStages() {
			if _, ok := l.PanelUpdate(stage); ok {
				t.Errorf("%s: expected no update", stage)
			}
		}
	})

	t.Run("present data yields panel update with token", func(t *testing.T) {
		t.Parallel()

		l := NewLookup("Go")
		l.Token = 7
		l.History = &RevisionSummary{Analyzed: 3, UniqueContributors: 2}

		u, ok := l.PanelUpdate(StageHistory)
		if !ok {
			t.Fatal("expected update")
		}
		if u.Token != 7 || u.Kind != UpdatePanel || u.Panel != PanelHistory {
			t.Errorf("unexpected update %+v", u)
		}
		if u.History != l.History {
			t.Error("expected history payload")
		}
	})
}

func TestOutcomeUpdate(t *testing.T) {
	t.Parallel()

	u, ok := OutcomeUpdate(3, NotFound())
	if !ok || u.Kind != UpdateNotFound || u.Message != MessageNoResult || u.Panel != PanelSummary {
		t.Errorf("unexpected not-found update %+v", u)
	}

	u, ok = OutcomeUpdate(3, Failed(StageImages, errTest))
	if !ok || u.Kind != UpdateFailed || u.Message != MessageFailure {
		t.Errorf("unexpected failed update %+v", u)
	}

	if _, ok := OutcomeUpdate(3, Succeeded()); ok {
		t.Error("expected no update for success")
	}
}
