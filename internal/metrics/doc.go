// Package metrics exposes Prometheus counters and histograms for upstream
// API requests and pipeline stages.
//
// A Collector registers its metrics on a private registry so that several
// collectors can coexist in one process (tests, embedded servers). It
// implements both wiki.Observer and pipeline.Observer and is passed to the
// client and the pipeline through their WithObserver options.
package metrics
