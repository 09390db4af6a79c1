package model

import "time"

// Revision is one edit in a page's history.
type Revision struct {
	// User is the editor's user name. Empty when the name is hidden.
	User string `json:"user"`

	// Timestamp is when the edit was saved.
	Timestamp time.Time `json:"timestamp"`
}

// RevisionSummary reduces a bounded set of recent revisions to two metrics.
type RevisionSummary struct {
	// Analyzed is the number of revisions inspected.
	Analyzed int `json:"analyzed"`

	// UniqueContributors is the number of distinct editor names.
	// Repeated editors count once; hidden editors share a single identity.
	UniqueContributors int `json:"unique_contributors"`

	// Newest is the timestamp of the most recent revision, if any.
	Newest time.Time `json:"newest,omitzero"`

	// Oldest is the timestamp of the oldest revision inspected, if any.
	Oldest time.Time `json:"oldest,omitzero"`
}

// SummarizeRevisions counts revisions and distinct contributors.
func SummarizeRevisions(revisions []Revision) *RevisionSummary {
	summary := &RevisionSummary{Analyzed: len(revisions)}

	contributors := make(map[string]struct{}, len(revisions))
	for _, r := range revisions {
		contributors[r.User] = struct{}{}

		if r.Timestamp.IsZero() {
			continue
		}
		if summary.Newest.IsZero() || r.Timestamp.After(summary.Newest) {
			summary.Newest = r.Timestamp
		}
		if summary.Oldest.IsZero() || r.Timestamp.Before(summary.Oldest) {
			summary.Oldest = r.Timestamp
		}
	}
	summary.UniqueContributors = len(contributors)

	return summary
}
