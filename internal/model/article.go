package model

import "strconv"

// NotAvailable is displayed in place of values the APIs did not provide.
const NotAvailable = "N/A"

// SearchHit is a single full-text search match.
// Only the first hit of a search is used; there is no ranking or disambiguation.
type SearchHit struct {
	// Title is the article title, used as the canonical lookup key.
	Title string `json:"title"`

	// Snippet is the match context with search highlighting markup removed.
	Snippet string `json:"snippet,omitempty"`

	// PageID is the numeric page identifier.
	PageID int64 `json:"page_id,omitempty"`

	// WordCount is the article length in words as reported by search.
	WordCount int `json:"word_count,omitempty"`
}

// PageSummary is the intro extract of an article.
type PageSummary struct {
	// Title is the article title as returned by the API.
	Title string `json:"title"`

	// Extract is the plain-text intro, capped at a few sentences.
	Extract string `json:"extract"`

	// WikibaseItem is the linked Wikidata item ID (e.g. "Q42"), if any.
	WikibaseItem string `json:"wikibase_item,omitempty"`
}

// HasEntity reports whether the page links to a Wikidata item.
func (s *PageSummary) HasEntity() bool {
	return s != nil && s.WikibaseItem != ""
}

// PageMetadata holds page-level information.
type PageMetadata struct {
	// PageID is the numeric page identifier.
	PageID int64 `json:"page_id"`

	// EditCount is the total number of edits. Nil when the API omits it.
	EditCount *int `json:"edit_count"`

	// Length is the page size in bytes.
	Length int `json:"length"`
}

// EditCountText returns the edit count for display, or NotAvailable when unknown.
func (m *PageMetadata) EditCountText() string {
	if m == nil || m.EditCount == nil {
		return NotAvailable
	}
	return strconv.Itoa(*m.EditCount)
}
