// Package suggest keeps the title suggestion list shown while a query is
// being typed.
//
// Suggestions are best-effort: a failed request is logged and the current
// list is kept. Selecting a suggestion makes it the query, clears the list
// and starts an aggregation immediately.
package suggest
