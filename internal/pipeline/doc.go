// Package pipeline runs the aggregation stages for one search query.
//
// A lookup resolves a free-text query to a canonical article title and then
// fills one display panel per stage: summary, metadata, Wikidata entity,
// edit history and Commons images. Each stage is a Step. Gate steps (resolve
// and summary) run strictly in order because later stages need their
// output. The remaining steps are independent of each other and run either
// sequentially, in the classic order, or concurrently with errgroup.
//
// Every finished stage is handed to a Renderer as a model.PanelUpdate the
// moment it completes. The first failing stage aborts the rest of the lookup
// and replaces the summary with the generic failure message; panels that
// were already rendered stay as they are.
//
// Runner adds lookup tokens so that when lookups overlap only the most
// recently started one reaches the display. BatchProcessor looks up many
// queries concurrently.
package pipeline
