// Package server exposes the suggestion and aggregation flows over HTTP.
//
// Routes:
//
//	GET /healthz               liveness probe
//	GET /api/suggest?q=        title completions for a prefix
//	GET /api/lookup?q=         run a lookup and return the finished result
//	GET /api/lookup/stream?q=  run a lookup and stream panel updates (SSE)
//	GET /api/lookups/:id       a stored lookup
//	GET /api/history?title=    stored lookups of a title, newest first
//	GET /metrics               Prometheus metrics, when configured
package server
