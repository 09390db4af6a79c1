package suggest

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/nao1215/wikiscope/internal/model"
)

// Source fetches title completions for a prefix.
// *wiki.Client implements this interface.
type Source interface {
	Suggest(ctx context.Context, prefix string) ([]string, error)
}

// SearchFunc runs the aggregation flow for a query.
type SearchFunc func(ctx context.Context, query string) (*model.Lookup, error)

// Provider holds the current suggestion list and query.
// It is safe for concurrent use.
type Provider struct {
	source Source
	search SearchFunc
	logger *slog.Logger

	mu    sync.Mutex
	items []string
	query string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for swallowed suggestion errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a Provider. search is invoked by Select and may be nil
// when selection is not needed.
func NewProvider(source Source, search SearchFunc, opts ...Option) *Provider {
	p := &Provider{
		source: source,
		search: search,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh replaces the list with suggestions for input and returns it.
//
// A blank input clears the list without any request. When the request fails
// the error is logged and the list is returned unchanged.
func (p *Provider) Refresh(ctx context.Context, input string) []string {
	query := strings.TrimSpace(input)

	p.mu.Lock()
	p.query = query
	if query == "" {
		p.items = nil
		p.mu.Unlock()
		return []string{}
	}
	p.mu.Unlock()

	items, err := p.source.Suggest(ctx, query)
	if err != nil {
		p.logger.Warn("suggestion request failed", "query", query, "error", err)
		return p.Items()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// A newer Refresh may have changed the query while this one was in flight.
	if p.query != query {
		return slices.Clone(p.items)
	}
	p.items = slices.Clone(items)
	return slices.Clone(p.items)
}

// Select makes item the current query, clears the list and runs the
// aggregation for it.
func (p *Provider) Select(ctx context.Context, item string) (*model.Lookup, error) {
	p.mu.Lock()
	p.query = item
	p.items = nil
	p.mu.Unlock()

	if p.search == nil {
		return nil, nil
	}
	return p.search(ctx, item)
}

// Items returns a copy of the current suggestion list.
func (p *Provider) Items() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.items == nil {
		return []string{}
	}
	return slices.Clone(p.items)
}

// Query returns the current query.
func (p *Provider) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}
