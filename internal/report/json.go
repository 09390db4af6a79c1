package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wikiscope/internal/model"
)

// JSONWriter outputs lookups in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is included in the output envelope when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the output in an envelope carrying the tool version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps lookups with the version that produced them.
type JSONReport struct {
	// Version is the wikiscope version that generated this report.
	Version string `json:"version"`

	// Lookups are the lookup results.
	Lookups []*model.Lookup `json:"lookups"`
}

// Write outputs a single lookup in JSON format.
func (w *JSONWriter) Write(lookup *model.Lookup) (int, error) {
	if w.version != "" {
		return w.writeJSON(&JSONReport{Version: w.version, Lookups: []*model.Lookup{lookup}})
	}
	return w.writeJSON(lookup)
}

// WriteAll outputs several lookups as a JSON array.
func (w *JSONWriter) WriteAll(lookups []*model.Lookup) (int, error) {
	if lookups == nil {
		lookups = []*model.Lookup{}
	}
	if w.version != "" {
		return w.writeJSON(&JSONReport{Version: w.version, Lookups: lookups})
	}
	return w.writeJSON(lookups)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
