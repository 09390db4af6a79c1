package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// Each display region is printed as its own section, in stage order.
type SimpleWriter struct {
	baseWriter

	// showStages adds the performed and skipped stages to the header.
	showStages bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowStages adds stage bookkeeping to the header.
func WithShowStages(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showStages = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the lookup in human-readable format.
func (w *SimpleWriter) Write(lookup *model.Lookup) (int, error) {
	var sb strings.Builder
	w.writeLookup(&sb, lookup)
	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs several lookups one after another.
func (w *SimpleWriter) WriteAll(lookups []*model.Lookup) (int, error) {
	var sb strings.Builder
	for _, l := range lookups {
		w.writeLookup(&sb, l)
	}
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeLookup(sb *strings.Builder, lookup *model.Lookup) {
	w.writeHeader(sb, lookup)
	w.writePanels(sb, lookup)
}

// writeHeader writes the report header with lookup information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, lookup *model.Lookup) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          WIKISCOPE LOOKUP\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Query:       %s\n", lookup.Query))
	if lookup.Title != "" {
		sb.WriteString(fmt.Sprintf("Article:     %s\n", lookup.Title))
	}
	sb.WriteString(fmt.Sprintf("Looked Up:   %s\n", lookup.DateLookedUp.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Status:      %s\n", statusText(lookup.Outcome)))

	if w.showStages {
		sb.WriteString(fmt.Sprintf("Stages:      %s\n", joinStages(lookup.PerformedStages)))
		if len(lookup.SkippedStages) > 0 {
			sb.WriteString(fmt.Sprintf("Skipped:     %s\n", joinStages(lookup.SkippedStages)))
		}
		sb.WriteString(fmt.Sprintf("Elapsed:     %s\n", lookup.Elapsed.Round(time.Millisecond)))
	}

	sb.WriteString("\n")
}

// writePanels writes every display region that has content.
// A not-found or failed outcome replaces the summary region.
func (w *SimpleWriter) writePanels(sb *strings.Builder, lookup *model.Lookup) {
	if msg := lookup.Outcome.Message(); msg != "" {
		sb.WriteString(msg + "\n\n")
	} else if lookup.Summary != nil {
		writeSummaryPanel(sb, lookup.Summary)
	}

	if lookup.Metadata != nil {
		writeMetadataPanel(sb, lookup.Metadata)
	}
	if lookup.Entity != nil {
		writeEntityPanel(sb, lookup.Entity)
	}
	if lookup.History != nil {
		writeHistoryPanel(sb, lookup.History)
	}
	if lookup.Images != nil {
		writeImagesPanel(sb, lookup.Images)
	}
}

// statusText returns a one-line description of an outcome.
func statusText(o model.Outcome) string {
	switch o.Status {
	case model.StatusSuccess:
		return "Complete"
	case model.StatusNotFound:
		return "No result"
	case model.StatusFailed:
		if o.FailedStage != model.StageNone {
			return fmt.Sprintf("Failed at %s stage", o.FailedStage)
		}
		return "Failed"
	default:
		return "Pending"
	}
}

func joinStages(stages []model.Stage) string {
	if len(stages) == 0 {
		return "-"
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
