package report

import (
	"io"

	"github.com/nao1215/wikiscope/internal/model"
)

// Writer defines the interface for report output.
// Implementations write lookup results in various formats.
type Writer interface {
	// Write outputs a single lookup.
	// Returns the number of bytes written and any error encountered.
	Write(lookup *model.Lookup) (int, error)

	// WriteAll outputs several lookups, e.g. the results of a batch.
	WriteAll(lookups []*model.Lookup) (int, error)
}

// MultiWriter sends every lookup to several Writers in order, e.g. the
// terminal and a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the lookup to each Writer and returns the total bytes
// written. It stops at the first error.
func (m *MultiWriter) Write(lookup *model.Lookup) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(lookup)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the lookups to all configured Writers.
func (m *MultiWriter) WriteAll(lookups []*model.Lookup) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(lookups)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
