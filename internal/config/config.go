package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"
)

// Default configuration values.
const (
	// DefaultLanguage selects the English Wikipedia and English Wikidata labels.
	DefaultLanguage = "en"

	// DefaultWikidataEntityURL is the base of Special:EntityData.
	// Entities are fetched from <base>/<id>.json.
	DefaultWikidataEntityURL = "https://www.wikidata.org/wiki/Special:EntityData"

	// DefaultCommonsAPI is the Wikimedia Commons action API endpoint.
	DefaultCommonsAPI = "https://commons.wikimedia.org/w/api.php"

	// DefaultTimeout bounds each individual API request.
	DefaultTimeout = 15 * time.Second

	// DefaultBatchSize is the number of concurrent lookups for multiple queries.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies wikiscope to the Wikimedia APIs, which
	// require a descriptive User-Agent.
	DefaultUserAgent = "wikiscope/1.0 (+https://github.com/nao1215/wikiscope)"

	// DefaultMaxBodySize limits how much of an API response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultListenAddress is the address the HTTP API listens on.
	DefaultListenAddress = "127.0.0.1:8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "wikiscope"
)

// Config holds all configuration options for wikiscope.
// It is populated from defaults, the configuration file and CLI flags, in
// that order, and passed through the application explicitly.
type Config struct {
	// Language is the Wikipedia language edition and the language used for
	// Wikidata labels and descriptions.
	Language string

	// WikipediaAPI is the action API endpoint of the Wikipedia edition.
	// When empty it is derived from Language.
	WikipediaAPI string

	// WikidataEntityURL is the Special:EntityData base URL.
	WikidataEntityURL string

	// CommonsAPI is the Wikimedia Commons action API endpoint.
	CommonsAPI string

	// Timeout bounds each API request.
	Timeout time.Duration

	// StageTimeout bounds each lookup stage. Zero means only Timeout applies.
	StageTimeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// ConcurrentEnrichment runs the metadata, entity, history and image
	// stages concurrently once the canonical title is known.
	ConcurrentEnrichment bool

	// BatchSize is the number of concurrent lookups when several queries are given.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wikiscope is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport writes the final lookup as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the final lookup as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Queries are the search terms to look up.
	Queries []string

	// DBDir is the directory holding the SQLite history database.
	DBDir string

	// SaveToDB stores every finished lookup in the history database.
	SaveToDB bool

	// ListenAddress is the address of the HTTP API.
	ListenAddress string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Language:          DefaultLanguage,
		WikidataEntityURL: DefaultWikidataEntityURL,
		CommonsAPI:        DefaultCommonsAPI,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		BatchSize:         DefaultBatchSize,
		ListenAddress:     DefaultListenAddress,
	}
}

// WikipediaEndpoint returns the configured Wikipedia API endpoint, deriving
// it from Language when not set explicitly.
func (c *Config) WikipediaEndpoint() string {
	if c.WikipediaAPI != "" {
		return c.WikipediaAPI
	}
	return WikipediaAPIFor(c.Language)
}

// WikipediaAPIFor returns the action API endpoint of a language edition.
func WikipediaAPIFor(lang string) string {
	if lang == "" {
		lang = DefaultLanguage
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", strings.ToLower(lang))
}

// ApplyFile overlays non-zero values from a configuration file.
// CLI flags are applied afterwards by the caller and take precedence.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.Language != "" {
		c.Language = f.Language
	}
	if f.Endpoints.Wikipedia != "" {
		c.WikipediaAPI = f.Endpoints.Wikipedia
	}
	if f.Endpoints.Wikidata != "" {
		c.WikidataEntityURL = f.Endpoints.Wikidata
	}
	if f.Endpoints.Commons != "" {
		c.CommonsAPI = f.Endpoints.Commons
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.StageTimeout > 0 {
		c.StageTimeout = f.StageTimeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.Concurrent {
		c.ConcurrentEnrichment = true
	}
	if f.BatchSize > 0 {
		c.BatchSize = f.BatchSize
	}
	if f.Listen != "" {
		c.ListenAddress = f.Listen
	}
}

// XDGDataDir returns the XDG data directory for wikiscope.
// On Linux: ~/.local/share/wikiscope
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikiscope.
// On Linux: ~/.config/wikiscope
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.StageTimeout < 0 {
		return ErrInvalidStageTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !IsValidLanguage(c.Language) {
		return ErrInvalidLanguage
	}
	if c.ProxyAddress != "" && !IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	for _, endpoint := range []string{c.WikipediaEndpoint(), c.WikidataEntityURL, c.CommonsAPI} {
		if !isValidEndpoint(endpoint) {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
		}
	}
	return nil
}

// ValidateSearch checks the configuration for commands that need queries.
func (c *Config) ValidateSearch() error {
	if len(c.Queries) == 0 {
		return ErrNoQuery
	}
	return c.Validate()
}

// IsValidLanguage reports whether lang is a well-formed language tag whose
// form can be used as a Wikipedia subdomain (e.g. "en", "de", "zh-yue").
func IsValidLanguage(lang string) bool {
	if lang == "" {
		return false
	}
	if _, err := language.Parse(lang); err != nil {
		return false
	}
	for _, r := range lang {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-') {
			return false
		}
	}
	return true
}

// IsValidProxyAddress reports whether address is host:port with a port in 1-65535.
func IsValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// isValidEndpoint reports whether s is an absolute http(s) URL with a host.
func isValidEndpoint(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
