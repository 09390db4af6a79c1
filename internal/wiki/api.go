package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
)

// page is one entry of a query.pages map. Only the fields used by some
// operation are decoded.
type page struct {
	PageID    int64           `json:"pageid"`
	Title     string          `json:"title"`
	Missing   json.RawMessage `json:"missing"`
	Invalid   json.RawMessage `json:"invalid"`
	Extract   string          `json:"extract"`
	PageProps struct {
		WikibaseItem string `json:"wikibase_item"`
	} `json:"pageprops"`
	EditCount *int `json:"editcount"`
	Length    int  `json:"length"`
	Revisions []struct {
		User      string `json:"user"`
		Timestamp string `json:"timestamp"`
	} `json:"revisions"`
	Index     int `json:"index"`
	ImageInfo []struct {
		URL string `json:"url"`
	} `json:"imageinfo"`
}

// flagged reports whether a MediaWiki boolean flag is present.
// Format version 1 sends "" and version 2 sends true.
func flagged(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "false" && string(raw) != "null"
}

// queryResponse is the envelope of action=query responses.
type queryResponse struct {
	Error *apiError `json:"error"`
	Query *struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			PageID    int64  `json:"pageid"`
			WordCount int    `json:"wordcount"`
		} `json:"search"`
		Pages map[string]page `json:"pages"`
	} `json:"query"`
}

// titleQuery fetches action=query for a single title and returns its page.
func (c *Client) titleQuery(ctx context.Context, endpoint, title string, params url.Values) (*page, error) {
	params.Set("action", "query")
	params.Set("titles", title)

	var resp queryResponse
	if err := c.getJSON(ctx, endpoint, apiURL(c.endpoints.Wikipedia, params), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.err()
	}
	if resp.Query == nil {
		return nil, fmt.Errorf("%w: %s: no query object", ErrMalformedResponse, endpoint)
	}

	p, err := firstPage(resp.Query.Pages)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", endpoint, title, err)
	}
	return p, nil
}

// firstPage returns the page of a single-title query.
// When several pages are present the one with the lowest key is used.
func firstPage(pages map[string]page) (*page, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrMalformedResponse)
	}

	keys := make([]string, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case pageKeyLess(a, b):
			return -1
		case pageKeyLess(b, a):
			return 1
		default:
			return 0
		}
	})

	p := pages[keys[0]]
	if flagged(p.Missing) || flagged(p.Invalid) {
		return nil, ErrPageMissing
	}
	return &p, nil
}

// Suggest returns up to 8 article titles completing prefix, in API order.
func (c *Client) Suggest(ctx context.Context, prefix string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", prefix)
	params.Set("limit", strconv.Itoa(suggestLimit))

	// opensearch answers [query, [titles], [descriptions], [urls]].
	var resp []json.RawMessage
	if err := c.getJSON(ctx, EndpointSuggest, apiURL(c.endpoints.Wikipedia, params), &resp); err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: %s: expected at least 2 elements, got %d", ErrMalformedResponse, EndpointSuggest, len(resp))
	}

	var titles []string
	if err := json.Unmarshal(resp[1], &titles); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, EndpointSuggest, err) //nolint:errorlint // decode errors are not matched by callers
	}
	if len(titles) > suggestLimit {
		titles = titles[:suggestLimit]
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

// Search runs a full-text search and returns the hits in relevance order.
// An empty slice means nothing matched.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)

	var resp queryResponse
	if err := c.getJSON(ctx, EndpointSearch, apiURL(c.endpoints.Wikipedia, params), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.err()
	}
	if resp.Query == nil {
		return nil, fmt.Errorf("%w: %s: no query object", ErrMalformedResponse, EndpointSearch)
	}

	hits := make([]model.SearchHit, 0, len(resp.Query.Search))
	for _, s := range resp.Query.Search {
		hits = append(hits, model.SearchHit{
			Title:     s.Title,
			Snippet:   StripTags(s.Snippet),
			PageID:    s.PageID,
			WordCount: s.WordCount,
		})
	}
	return hits, nil
}

// Summary fetches the plain-text intro (at most six sentences) and the
// linked Wikidata item of title.
func (c *Client) Summary(ctx context.Context, title string) (*model.PageSummary, error) {
	params := url.Values{}
	params.Set("prop", "extracts|pageprops")
	params.Set("exintro", "true")
	params.Set("explaintext", "true")
	params.Set("exsentences", strconv.Itoa(summarySentences))

	p, err := c.titleQuery(ctx, EndpointSummary, title, params)
	if err != nil {
		return nil, err
	}
	return &model.PageSummary{
		Title:        p.Title,
		Extract:      p.Extract,
		WikibaseItem: p.PageProps.WikibaseItem,
	}, nil
}

// Metadata fetches the page ID, edit count and size of title.
// EditCount is nil when the API does not report it.
func (c *Client) Metadata(ctx context.Context, title string) (*model.PageMetadata, error) {
	params := url.Values{}
	params.Set("prop", "info")
	params.Set("inprop", "editcount")

	p, err := c.titleQuery(ctx, EndpointMetadata, title, params)
	if err != nil {
		return nil, err
	}
	return &model.PageMetadata{
		PageID:    p.PageID,
		EditCount: p.EditCount,
		Length:    p.Length,
	}, nil
}

// entityResponse is the Special:EntityData document.
type entityResponse struct {
	Entities map[string]struct {
		ID           string                     `json:"id"`
		Missing      json.RawMessage            `json:"missing"`
		Labels       map[string]localizedString `json:"labels"`
		Descriptions map[string]localizedString `json:"descriptions"`
	} `json:"entities"`
}

type localizedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Entity fetches a Wikidata item and returns its label and description in
// the client language. Missing values are reported as model.NotAvailable.
func (c *Client) Entity(ctx context.Context, id string) (*model.Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty entity id", ErrPageMissing)
	}
	rawURL := strings.TrimRight(c.endpoints.WikidataEntity, "/") + "/" + url.PathEscape(id) + ".json"

	var resp entityResponse
	if err := c.getJSON(ctx, EndpointEntity, rawURL, &resp); err != nil {
		return nil, err
	}

	e, ok := resp.Entities[id]
	if !ok && len(resp.Entities) == 1 {
		// Redirected items are keyed by their target id.
		for _, only := range resp.Entities {
			e = only
		}
		ok = true
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s: entity %s not in response", ErrMalformedResponse, EndpointEntity, id)
	}
	if flagged(e.Missing) {
		return nil, fmt.Errorf("entity %s: %w", id, ErrPageMissing)
	}

	return model.NewEntity(id, e.Labels[c.language].Value, e.Descriptions[c.language].Value), nil
}

// Revisions fetches the 50 most recent revisions of title, newest first.
// A page without revisions yields an empty slice.
func (c *Client) Revisions(ctx context.Context, title string) ([]model.Revision, error) {
	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("rvlimit", strconv.Itoa(revisionLimit))
	params.Set("rvprop", "user|timestamp")

	p, err := c.titleQuery(ctx, EndpointRevisions, title, params)
	if err != nil {
		return nil, err
	}

	revs := make([]model.Revision, 0, len(p.Revisions))
	for _, r := range p.Revisions {
		rev := model.Revision{User: r.User}
		if r.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, r.Timestamp)
			if err != nil {
				// Only users are counted; a bad timestamp is left zero.
				c.logger.Debug("ignoring revision timestamp",
					"title", title,
					"timestamp", r.Timestamp,
					"error", err,
				)
			} else {
				rev.Timestamp = ts
			}
		}
		revs = append(revs, rev)
	}
	if len(revs) > revisionLimit {
		revs = revs[:revisionLimit]
	}
	return revs, nil
}

// Images searches Wikimedia Commons file pages for title and returns the
// files that have image information, in search order.
func (c *Client) Images(ctx context.Context, title string) (*model.ImageSet, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", title)
	params.Set("gsrnamespace", strconv.Itoa(fileNamespace))
	params.Set("gsrlimit", strconv.Itoa(imageLimit))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")

	var resp queryResponse
	if err := c.getJSON(ctx, EndpointImages, apiURL(c.endpoints.Commons, params), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.err()
	}

	set := &model.ImageSet{Images: []model.Image{}}
	if resp.Query == nil {
		// Commons omits the query object when the search has no results.
		return set, nil
	}

	pages := make([]page, 0, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if len(p.ImageInfo) == 0 || p.ImageInfo[0].URL == "" {
			continue
		}
		pages = append(pages, p)
	}
	slices.SortFunc(pages, func(a, b page) int {
		if a.Index != b.Index {
			return a.Index - b.Index
		}
		return strings.Compare(a.Title, b.Title)
	})

	for _, p := range pages {
		set.Images = append(set.Images, model.Image{Title: p.Title, URL: p.ImageInfo[0].URL})
	}
	return set, nil
}
