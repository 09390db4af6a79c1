package model

import (
	"time"

	"github.com/google/uuid"
)

// Lookup is the result of one aggregation run.
// It carries one named field per display region, filled in as stages complete.
type Lookup struct {
	// ID uniquely identifies the lookup in the history database.
	ID string `json:"id"`

	// Token orders lookups started by the same runner. Higher is newer.
	Token uint64 `json:"token,omitempty"`

	// Query is the normalized search term.
	Query string `json:"query"`

	// Title is the canonical article title chosen by the resolve stage.
	Title string `json:"title,omitempty"`

	// Hit is the search match the title came from.
	Hit *SearchHit `json:"hit,omitempty"`

	// Panels. Nil means the stage did not run or did not finish.
	Summary  *PageSummary     `json:"summary,omitempty"`
	Metadata *PageMetadata    `json:"metadata,omitempty"`
	Entity   *Entity          `json:"entity,omitempty"`
	History  *RevisionSummary `json:"history,omitempty"`
	Images   *ImageSet        `json:"images,omitempty"`

	// Outcome is how the lookup ended.
	Outcome Outcome `json:"outcome"`

	// PerformedStages lists completed stages in completion order.
	PerformedStages []Stage `json:"performed_stages,omitempty"`

	// SkippedStages lists conditional stages that did not apply.
	SkippedStages []Stage `json:"skipped_stages,omitempty"`

	// DateLookedUp is when the lookup started.
	DateLookedUp time.Time `json:"date_looked_up"`

	// Elapsed is how long the lookup took.
	Elapsed time.Duration `json:"elapsed"`
}

// NewLookup creates a pending lookup for an already normalized query.
func NewLookup(query string) *Lookup {
	return &Lookup{
		ID:           uuid.NewString(),
		Query:        query,
		Outcome:      Outcome{Status: StatusPending},
		DateLookedUp: time.Now(),
	}
}

// PanelUpdate returns the display update for the panel written by stage.
// It returns false if the stage has no panel or its data is not present.
func (l *Lookup) PanelUpdate(stage Stage) (PanelUpdate, bool) {
	u := PanelUpdate{Token: l.Token, Kind: UpdatePanel, Panel: stage.Panel()}

	switch stage {
	case StageSummary:
		u.Summary = l.Summary
		return u, l.Summary != nil
	case StageMetadata:
		u.Metadata = l.Metadata
		return u, l.Metadata != nil
	case StageEntity:
		u.Entity = l.Entity
		return u, l.Entity != nil
	case StageHistory:
		u.History = l.History
		return u, l.History != nil
	case StageImages:
		u.Images = l.Images
		return u, l.Images != nil
	default:
		return PanelUpdate{}, false
	}
}

// Succeeded reports whether the lookup completed successfully.
func (l *Lookup) Succeeded() bool {
	return l.Outcome.Status == StatusSuccess
}
