package model

import "fmt"

// Stage identifies one network call of the aggregation pipeline.
// Stages are listed in their required execution order.
type Stage int

const (
	// StageNone is the zero value, used when no stage applies.
	StageNone Stage = iota

	// StageResolve runs a full-text search and picks the canonical title.
	StageResolve

	// StageSummary fetches the intro extract and page properties.
	StageSummary

	// StageMetadata fetches the page ID, edit count and size.
	StageMetadata

	// StageEntity fetches the linked Wikidata item. It only runs when the
	// summary exposes a wikibase item.
	StageEntity

	// StageHistory fetches recent revisions and reduces them to counts.
	StageHistory

	// StageImages searches Wikimedia Commons for file pages.
	StageImages
)

// stageNames maps stages to their stable names used in logs, JSON and the database.
var stageNames = map[Stage]string{
	StageNone:     "none",
	StageResolve:  "resolve",
	StageSummary:  "summary",
	StageMetadata: "metadata",
	StageEntity:   "entity",
	StageHistory:  "history",
	StageImages:   "images",
}

// AllStages returns every real stage in execution order.
func AllStages() []Stage {
	return []Stage{
		StageResolve,
		StageSummary,
		StageMetadata,
		StageEntity,
		StageHistory,
		StageImages,
	}
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStage converts a stage name back into a Stage.
func ParseStage(name string) (Stage, error) {
	for stage, n := range stageNames {
		if n == name {
			return stage, nil
		}
	}
	return StageNone, fmt.Errorf("unknown stage %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	stage, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

// Panel returns the display region a stage writes to.
// StageResolve has no region of its own.
func (s Stage) Panel() Panel {
	switch s {
	case StageSummary:
		return PanelSummary
	case StageMetadata:
		return PanelMetadata
	case StageEntity:
		return PanelEntity
	case StageHistory:
		return PanelHistory
	case StageImages:
		return PanelImages
	default:
		return PanelNone
	}
}
