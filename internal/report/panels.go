package report

import (
	"fmt"
	"strings"

	"github.com/nao1215/wikiscope/internal/model"
)

// Panel headings shared by the text and Markdown output.
const (
	headingMetadata = "Metadata"
	headingEntity   = "Wikidata Facts"
	headingHistory  = "Edit History"
	headingImages   = "Wikimedia Commons Images"
)

// writeSummaryPanel writes the title and intro extract.
func writeSummaryPanel(sb *strings.Builder, s *model.PageSummary) {
	sb.WriteString(s.Title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", len([]rune(s.Title))))
	sb.WriteString("\n")
	if s.Extract != "" {
		sb.WriteString(wrap(s.Extract, 76))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeMetadataPanel(sb *strings.Builder, m *model.PageMetadata) {
	sb.WriteString(headingMetadata + "\n")
	fmt.Fprintf(sb, "  Page ID:     %d\n", m.PageID)
	fmt.Fprintf(sb, "  Total Edits: %s\n", m.EditCountText())
	fmt.Fprintf(sb, "  Page Size:   %d bytes\n", m.Length)
	sb.WriteString("\n")
}

func writeEntityPanel(sb *strings.Builder, e *model.Entity) {
	sb.WriteString(headingEntity + "\n")
	fmt.Fprintf(sb, "  ID:          %s\n", e.ID)
	fmt.Fprintf(sb, "  Title:       %s\n", e.Label)
	fmt.Fprintf(sb, "  Description: %s\n", e.Description)
	sb.WriteString("\n")
}

func writeHistoryPanel(sb *strings.Builder, h *model.RevisionSummary) {
	sb.WriteString(headingHistory + "\n")
	fmt.Fprintf(sb, "  Total edits analyzed: %d\n", h.Analyzed)
	fmt.Fprintf(sb, "  Unique contributors: %d\n", h.UniqueContributors)
	sb.WriteString("\n")
}

func writeImagesPanel(sb *strings.Builder, s *model.ImageSet) {
	sb.WriteString(headingImages + "\n")
	if s.Empty() {
		sb.WriteString("  " + model.MessageNoImages + "\n\n")
		return
	}
	for _, img := range s.Images {
		sb.WriteString("  " + img.URL + "\n")
	}
	sb.WriteString("\n")
}

// writeUpdate writes the text form of one display update.
func writeUpdate(sb *strings.Builder, u model.PanelUpdate) {
	switch u.Kind {
	case model.UpdateReset:
		if u.Message != "" {
			sb.WriteString(u.Message + "\n\n")
		}
	case model.UpdateNotFound, model.UpdateFailed:
		sb.WriteString(u.Message + "\n\n")
	case model.UpdatePanel:
		switch u.Panel {
		case model.PanelSummary:
			writeSummaryPanel(sb, u.Summary)
		case model.PanelMetadata:
			writeMetadataPanel(sb, u.Metadata)
		case model.PanelEntity:
			writeEntityPanel(sb, u.Entity)
		case model.PanelHistory:
			writeHistoryPanel(sb, u.History)
		case model.PanelImages:
			writeImagesPanel(sb, u.Images)
		}
	}
}

// wrap breaks text into lines of at most width runes at word boundaries.
// Words longer than width are kept whole.
func wrap(text string, width int) string {
	var sb strings.Builder
	for i, paragraph := range strings.Split(text, "\n") {
		if i > 0 {
			sb.WriteString("\n")
		}
		lineLen := 0
		for _, word := range strings.Fields(paragraph) {
			n := len([]rune(word))
			switch {
			case lineLen == 0:
			case lineLen+1+n > width:
				sb.WriteString("\n")
				lineLen = 0
			default:
				sb.WriteString(" ")
				lineLen++
			}
			sb.WriteString(word)
			lineLen += n
		}
	}
	return sb.String()
}
