package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikiscope/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the lookup in Markdown format.
func (w *MarkdownWriter) Write(lookup *model.Lookup) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeLookup(md, lookup)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteAll outputs several lookups in one Markdown document.
func (w *MarkdownWriter) WriteAll(lookups []*model.Lookup) (int, error) {
	md := markdown.NewMarkdown(w.output)
	for _, l := range lookups {
		w.writeLookup(md, l)
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeLookup(md *markdown.Markdown, lookup *model.Lookup) {
	w.writeHeader(md, lookup)
	w.writeSummary(md, lookup)
	w.writeMetadata(md, lookup.Metadata)
	w.writeEntity(md, lookup.Entity)
	w.writeHistory(md, lookup.History)
	w.writeImages(md, lookup.Images)
}

// writeHeader writes the lookup title and property table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, lookup *model.Lookup) {
	title := lookup.Title
	if title == "" {
		title = lookup.Query
	}
	md.H1(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + lookup.Query + "`"},
			{"Looked Up", lookup.DateLookedUp.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(lookup.Outcome)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the outcome.
func (w *MarkdownWriter) getStatusText(o model.Outcome) string {
	switch o.Status {
	case model.StatusSuccess:
		return "✅ Complete"
	case model.StatusNotFound:
		return "🔍 No result"
	case model.StatusFailed:
		return "❌ " + statusText(o)
	default:
		return "⏳ Pending"
	}
}

// writeSummary writes the summary region, or the outcome message that
// replaces it.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, lookup *model.Lookup) {
	switch lookup.Outcome.Status {
	case model.StatusNotFound:
		md.Note(model.MessageNoResult)
		md.PlainText("")
		return
	case model.StatusFailed:
		md.Cautionf("%s (%s stage)", model.MessageFailure, lookup.Outcome.FailedStage)
		md.PlainText("")
		return
	}

	if lookup.Summary == nil {
		return
	}
	md.H2("Summary")
	md.PlainText("")
	md.PlainText(lookup.Summary.Extract)
	md.PlainText("")
	if lookup.Hit != nil && lookup.Hit.Snippet != "" {
		md.Details("Search match", lookup.Hit.Snippet)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, m *model.PageMetadata) {
	if m == nil {
		return
	}
	md.H2(headingMetadata)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page ID", strconv.FormatInt(m.PageID, 10)},
			{"Total Edits", m.EditCountText()},
			{"Page Size", strconv.Itoa(m.Length) + " bytes"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntity(md *markdown.Markdown, e *model.Entity) {
	if e == nil {
		return
	}
	md.H2(headingEntity)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", "`" + e.ID + "`"},
			{"Title", e.Label},
			{"Description", e.Description},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeHistory(md *markdown.Markdown, h *model.RevisionSummary) {
	if h == nil {
		return
	}
	md.H2(headingHistory)
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("Total edits analyzed: %d", h.Analyzed),
		fmt.Sprintf("Unique contributors: %d", h.UniqueContributors),
	)
	md.PlainText("")

	if h.Analyzed > 0 {
		w.writePieChart(md, h)
	}
}

// writePieChart writes a mermaid pie chart splitting the analyzed edits
// into first edits by each contributor and repeat edits.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, h *model.RevisionSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Recent Edits"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Distinct contributors", uint64(h.UniqueContributors)) //nolint:gosec // counts are non-negative
	if repeat := h.Analyzed - h.UniqueContributors; repeat > 0 {
		chart.LabelAndIntValue("Repeat edits", uint64(repeat)) //nolint:gosec // checked above
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeImages(md *markdown.Markdown, s *model.ImageSet) {
	if s == nil {
		return
	}
	md.H2(headingImages)
	md.PlainText("")
	if s.Empty() {
		md.Tip(model.MessageNoImages)
		md.PlainText("")
		return
	}

	items := make([]string, len(s.Images))
	for i, img := range s.Images {
		name := img.Title
		if name == "" {
			name = img.URL
		}
		items[i] = fmt.Sprintf("[%s](%s)", name, img.URL)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wikiscope](https://github.com/nao1215/wikiscope)*")
}
