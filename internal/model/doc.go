// Package model defines the data structures shared across wikiscope.
//
// This package contains the following main types:
//   - SearchHit: One full-text search match; the first one names the article
//   - PageSummary, PageMetadata, Entity, RevisionSummary, ImageSet: panel data
//   - Lookup: The explicit output of one aggregation run, one field per panel
//   - Outcome: Success, not-found, or failure at a named Stage
//   - PanelUpdate: A single incremental display update delivered to renderers
//
// Every value is scoped to a single lookup. Nothing is mutated after the stage
// that produced it has finished, and everything is serializable to JSON for
// report output and the history database.
package model
