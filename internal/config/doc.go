// Package config provides configuration structures and utilities for wikiscope.
// It defines API endpoints, HTTP client settings, pipeline behavior and
// report preferences, and loads overrides from a YAML configuration file.
package config
