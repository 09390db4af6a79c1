package config

import "time"

// Endpoints overrides the API endpoints, e.g. to point at a mirror.
type Endpoints struct {
	// Wikipedia is the action API endpoint of a Wikipedia edition.
	Wikipedia string `yaml:"wikipedia,omitempty"`

	// Wikidata is the Special:EntityData base URL.
	Wikidata string `yaml:"wikidata,omitempty"`

	// Commons is the Wikimedia Commons action API endpoint.
	Commons string `yaml:"commons,omitempty"`
}

// File represents the structure of the .wikiscope configuration file.
type File struct {
	// Language is the Wikipedia language edition, e.g. "en".
	Language string `yaml:"language,omitempty"`

	// Endpoints overrides individual API endpoints.
	Endpoints Endpoints `yaml:"endpoints,omitempty"`

	// Timeout bounds each API request, e.g. "15s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// StageTimeout bounds each lookup stage, e.g. "30s".
	StageTimeout time.Duration `yaml:"stageTimeout,omitempty"`

	// UserAgent replaces the default User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Proxy is a SOCKS5 proxy address in host:port form.
	Proxy string `yaml:"proxy,omitempty"`

	// Concurrent runs the enrichment stages concurrently.
	Concurrent bool `yaml:"concurrent,omitempty"`

	// BatchSize is the number of concurrent lookups for multiple queries.
	BatchSize int `yaml:"batchSize,omitempty"`

	// Listen is the HTTP API listen address.
	Listen string `yaml:"listen,omitempty"`
}
