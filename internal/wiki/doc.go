// Package wiki is a read-only client for the public Wikipedia, Wikidata and
// Wikimedia Commons APIs.
//
// Every operation is a single HTTP GET returning JSON. The client adds the
// format=json and origin=* parameters, a descriptive User-Agent and an
// Accept header to every request. It never retries, authenticates or
// paginates; a request either yields decoded data or an error that can be
// matched against the sentinel errors in this package.
//
// Operations:
//   - Suggest: opensearch title completion (up to 8 candidates)
//   - Search: full-text article search
//   - Summary: intro extract and linked Wikidata item
//   - Metadata: page ID, edit count and size
//   - Entity: Wikidata label and description
//   - Revisions: the 50 most recent edits
//   - Images: file pages found on Wikimedia Commons
package wiki
