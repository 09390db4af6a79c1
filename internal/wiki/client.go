package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Default client settings.
const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent identifies the client to the Wikimedia APIs.
	DefaultUserAgent = "wikiscope/1.0 (+https://github.com/nao1215/wikiscope)"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultLanguage selects the English Wikipedia and English entity labels.
	DefaultLanguage = "en"
)

// Request limits sent to the APIs.
const (
	suggestLimit     = 8
	summarySentences = 6
	revisionLimit    = 50
	imageLimit       = 10
	fileNamespace    = 6
)

// Endpoint names passed to the Observer.
const (
	EndpointSuggest   = "suggest"
	EndpointSearch    = "search"
	EndpointSummary   = "summary"
	EndpointMetadata  = "metadata"
	EndpointEntity    = "entity"
	EndpointRevisions = "revisions"
	EndpointImages    = "images"
)

// Request outcomes passed to the Observer.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeStatus = "bad_status"
)

// Endpoints holds the base URLs of the three upstream APIs.
type Endpoints struct {
	// Wikipedia is the action API of a Wikipedia edition.
	Wikipedia string

	// WikidataEntity is the Special:EntityData base URL.
	WikidataEntity string

	// Commons is the Wikimedia Commons action API.
	Commons string
}

// DefaultEndpoints returns the public endpoints for the given language edition.
func DefaultEndpoints(lang string) Endpoints {
	if lang == "" {
		lang = DefaultLanguage
	}
	return Endpoints{
		Wikipedia:      fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		WikidataEntity: "https://www.wikidata.org/wiki/Special:EntityData",
		Commons:        "https://commons.wikimedia.org/w/api.php",
	}
}

// Observer is notified after every upstream request.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

// Client is a Wikipedia, Wikidata and Commons API client.
// It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	endpoints   Endpoints
	language    string
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	proxyAddr   string
	observer    Observer
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. It takes precedence over WithProxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoints overrides the API base URLs. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		if e.Wikipedia != "" {
			c.endpoints.Wikipedia = e.Wikipedia
		}
		if e.WikidataEntity != "" {
			c.endpoints.WikidataEntity = e.WikidataEntity
		}
		if e.Commons != "" {
			c.endpoints.Commons = e.Commons
		}
	}
}

// WithLanguage sets the language of Wikidata labels and descriptions.
// Wikidata keys labels by lower-case code, so "DE" selects "de".
// It does not change explicitly configured endpoints.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
			c.language = lang
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the response body cap in bytes.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithProxy routes requests through a SOCKS5 proxy at host:port.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddr = address
	}
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client. Without options it talks to the English
// Wikipedia and the public Wikidata and Commons endpoints.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoints:   DefaultEndpoints(DefaultLanguage),
		language:    DefaultLanguage,
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := newHTTPClient(c.proxyAddr, c.timeout)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// Endpoints returns the configured API base URLs.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// newHTTPClient builds the default HTTP client, dialing through a SOCKS5
// proxy when proxyAddr is set.
func newHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.MaxIdleConnsPerHost = 4

	if proxyAddr != "" {
		host, port, err := net.SplitHostPort(proxyAddr)
		if err != nil || host == "" || port == "" {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// getJSON performs a GET request and decodes the JSON body into v.
// The endpoint name is only used for logging and the observer.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, v any) (err error) {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if err != nil && outcome == OutcomeOK {
			outcome = OutcomeError
		}
		elapsed := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveRequest(endpoint, outcome, elapsed)
		}
		c.logger.Debug("api request",
			"endpoint", endpoint,
			"url", rawURL,
			"outcome", outcome,
			"elapsed", elapsed,
		)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome = OutcomeStatus
		// Drain a little of the body so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if int64(len(body)) > c.maxBodySize {
		return fmt.Errorf("%w: %s exceeded %d bytes", ErrBodyTooLarge, endpoint, c.maxBodySize)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err) //nolint:errorlint // decode errors are not matched by callers
	}

	return nil
}

// apiURL builds an action API URL with the common parameters.
func apiURL(base string, params url.Values) string {
	params.Set("format", "json")
	params.Set("origin", "*")
	return base + "?" + params.Encode()
}

// pageKeyLess orders query.pages keys numerically, falling back to string order.
func pageKeyLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
