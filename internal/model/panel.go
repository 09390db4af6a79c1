package model

// User-facing messages shown in display regions.
const (
	// MessageLoading is shown in the summary region while a lookup runs.
	MessageLoading = "Loading..."

	// MessageNoResult is shown when the search returns no hits.
	MessageNoResult = "No result found."

	// MessageFailure replaces the summary region when any stage fails.
	MessageFailure = "Something went wrong."

	// MessageNoImages is shown when no Commons images were found.
	MessageNoImages = "No images available for this topic."
)

// Panel names one display region.
type Panel int

const (
	// PanelNone is the zero value.
	PanelNone Panel = iota
	// PanelSummary shows the title and intro extract.
	PanelSummary
	// PanelMetadata shows page ID, edit count and size.
	PanelMetadata
	// PanelEntity shows the linked Wikidata facts.
	PanelEntity
	// PanelHistory shows the edit history counts.
	PanelHistory
	// PanelImages shows the Commons images.
	PanelImages
)

// String returns the panel name.
func (p Panel) String() string {
	switch p {
	case PanelSummary:
		return "summary"
	case PanelMetadata:
		return "metadata"
	case PanelEntity:
		return "entity"
	case PanelHistory:
		return "history"
	case PanelImages:
		return "images"
	default:
		return "none"
	}
}

// UpdateKind classifies a PanelUpdate.
type UpdateKind int

const (
	// UpdateReset clears every panel. Message holds the summary placeholder,
	// empty when the display should be left blank.
	UpdateReset UpdateKind = iota

	// UpdatePanel fills one panel with stage data.
	UpdatePanel

	// UpdateNotFound replaces the summary with MessageNoResult.
	UpdateNotFound

	// UpdateFailed replaces the summary with MessageFailure.
	UpdateFailed
)

// String returns the update kind name.
func (k UpdateKind) String() string {
	switch k {
	case UpdateReset:
		return "reset"
	case UpdatePanel:
		return "panel"
	case UpdateNotFound:
		return "not_found"
	case UpdateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PanelUpdate is one display update produced while a lookup runs.
// Exactly one of the payload fields is set for UpdatePanel.
type PanelUpdate struct {
	// Token identifies the lookup that produced the update.
	Token uint64

	// Kind classifies the update.
	Kind UpdateKind

	// Panel is the region being updated. PanelSummary for not-found and failure.
	Panel Panel

	// Message is the text shown for reset, not-found and failure updates.
	Message string

	Summary  *PageSummary
	Metadata *PageMetadata
	Entity   *Entity
	History  *RevisionSummary
	Images   *ImageSet
}

// ResetUpdate returns an update clearing every panel and showing placeholder
// in the summary region.
func ResetUpdate(token uint64, placeholder string) PanelUpdate {
	return PanelUpdate{Token: token, Kind: UpdateReset, Message: placeholder}
}

// OutcomeUpdate returns the summary replacement for a not-found or failed outcome.
// It returns false for other outcomes.
func OutcomeUpdate(token uint64, o Outcome) (PanelUpdate, bool) {
	switch o.Status {
	case StatusNotFound:
		return PanelUpdate{Token: token, Kind: UpdateNotFound, Panel: PanelSummary, Message: MessageNoResult}, true
	case StatusFailed:
		return PanelUpdate{Token: token, Kind: UpdateFailed, Panel: PanelSummary, Message: MessageFailure}, true
	default:
		return PanelUpdate{}, false
	}
}
