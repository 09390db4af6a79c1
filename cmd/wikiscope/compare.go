package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wikiscope/internal/config"
	"github.com/nao1215/wikiscope/internal/database"
	"github.com/nao1215/wikiscope/internal/model"
	"github.com/spf13/cobra"
)

// compareDateLayout is the format of --since.
const compareDateLayout = "2006-01-02"

// NewCompareCmd creates the compare command.
// This command compares lookups of the same article stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [article-title]",
		Short: "Compare lookups of an article with earlier ones",
		Long: `Compare shows how an article changed between two stored lookups:
- Page size and total edit count
- Unique contributors among the recent revisions
- The linked Wikidata item
- Commons images that appeared or disappeared

The comparison requires at least two lookups of the article in the history
database. Use 'wikiscope search' to look up articles and save results.
Articles are identified by their resolved title, not by the query typed.

Examples:
  # Compare the latest two lookups of an article
  wikiscope compare "Albert Einstein"

  # List the lookup history of an article
  wikiscope compare --list "Albert Einstein"

  # Compare with a specific stored lookup
  wikiscope compare --with-lookup-id 6f1c... "Albert Einstein"

  # Compare with the first lookup since a date
  wikiscope compare --since 2025-01-01 "Albert Einstein"

  # List every article in the history database
  wikiscope compare --list-titles`,
		Args: cobra.ArbitraryArgs,
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List lookup history for the specified article")
	cmd.Flags().BoolP("list-titles", "L", false,
		"List all articles in the history database")

	// Comparison target flags
	cmd.Flags().StringP("with-lookup-id", "i", "",
		"Compare with a specific lookup by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first lookup on or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// compareOptions selects the lookups to compare and the output format.
type compareOptions struct {
	withLookupID string
	since        string
	json         bool
	markdown     bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listTitles, err := cmd.Flags().GetBool("list-titles")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	title := strings.TrimSpace(strings.Join(args, " "))
	if !listTitles && title == "" {
		return errors.New("article title is required (use --list-titles to see available articles)")
	}

	var opts compareOptions
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	if opts.withLookupID, err = cmd.Flags().GetString("with-lookup-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listTitles {
		return listStoredTitles(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listLookupHistory(ctx, out, db, title)
	}

	return runComparison(ctx, out, db, title, opts)
}

// listStoredTitles lists every article that has lookups in the database.
func listStoredTitles(ctx context.Context, out io.Writer, db *database.LookupDB) error {
	titles, err := db.ListTitles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list titles: %w", err)
	}
	total, err := db.CountLookups(ctx)
	if err != nil {
		return fmt.Errorf("failed to count lookups: %w", err)
	}

	if len(titles) == 0 {
		fmt.Fprintln(out, "No articles found in the history database.")
		fmt.Fprintln(out, "\nUse 'wikiscope search <query>' to look up an article.")
		return nil
	}

	fmt.Fprintf(out, "Looked-up articles (%d, %d lookups stored):\n\n", len(titles), total)
	for _, t := range titles {
		fmt.Fprintf(out, "  • %s\n", t)
	}
	fmt.Fprintln(out, "\nUse 'wikiscope compare --list <title>' to see the lookup history of an article.")

	return nil
}

// listLookupHistory lists every stored lookup of an article.
func listLookupHistory(ctx context.Context, out io.Writer, db *database.LookupDB, title string) error {
	entries, err := db.GetLookupHistoryWithMetadata(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to get lookup history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No lookup history found for %s\n", title)
		fmt.Fprintln(out, "\nUse 'wikiscope search' to look up this article.")
		return nil
	}

	fmt.Fprintf(out, "Lookup history for %s (%d lookups):\n\n", title, len(entries))
	fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %-12s  %s\n", "ID", "Date", "Status", "Size", "Contributors")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 98))

	for _, meta := range entries {
		fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %-12s  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			meta.Status,
			formatOptional(meta.PageSize),
			formatOptional(meta.UniqueContributors),
		)
	}

	fmt.Fprintln(out, "\nUse 'wikiscope compare <title>' to compare the latest two lookups.")
	fmt.Fprintln(out, "Use 'wikiscope compare --with-lookup-id <id> <title>' to compare with a specific lookup.")

	return nil
}

// runComparison compares the latest lookup of title with an earlier one.
func runComparison(ctx context.Context, out io.Writer, db *database.LookupDB, title string, opts compareOptions) error {
	history, err := comparisonHistory(ctx, db, title, opts)
	if err != nil {
		return err
	}

	previous, current, err := selectLookups(ctx, db, history, title, opts)
	if err != nil {
		return err
	}

	result := compareLookups(previous, current)

	switch {
	case opts.json:
		return outputComparisonJSON(out, result)
	case opts.markdown:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// comparisonHistory loads the stored lookups of title, newest first.
// With an explicit lookup ID only the latest lookup is needed.
func comparisonHistory(ctx context.Context, db *database.LookupDB, title string, opts compareOptions) ([]*model.Lookup, error) {
	if opts.withLookupID != "" {
		latest, err := db.GetLatestLookup(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest lookup: %w", err)
		}
		if latest == nil {
			return nil, nil
		}
		return []*model.Lookup{latest}, nil
	}

	history, err := db.GetLookupHistory(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup history: %w", err)
	}
	return history, nil
}

// lookupGetter fetches a stored lookup by ID.
type lookupGetter interface {
	GetLookupByID(ctx context.Context, id string) (*model.Lookup, error)
}

// selectLookups picks the lookups to compare from history (newest first).
// The latest lookup is always the current one.
func selectLookups(ctx context.Context, db lookupGetter, history []*model.Lookup, title string, opts compareOptions) (*model.Lookup, *model.Lookup, error) {
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("no lookup history found for %s", title)
	}
	current := history[0]

	switch {
	case opts.withLookupID != "":
		previous, err := db.GetLookupByID(ctx, opts.withLookupID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get lookup %s: %w", opts.withLookupID, err)
		}
		if previous == nil {
			return nil, nil, fmt.Errorf("lookup %s not found", opts.withLookupID)
		}
		if previous.Title != title {
			return nil, nil, fmt.Errorf("lookup %s belongs to %q, not %q", opts.withLookupID, previous.Title, title)
		}
		return previous, current, nil

	case opts.since != "":
		since, err := time.ParseInLocation(compareDateLayout, opts.since, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// History is newest first; the oldest match is the last one.
		var previous *model.Lookup
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].DateLookedUp.Before(since) {
				previous = history[i]
				break
			}
		}
		if previous == nil {
			return nil, nil, fmt.Errorf("no lookups found since %s", opts.since)
		}
		if previous == current {
			return nil, nil, fmt.Errorf("only one lookup found since %s; at least 2 lookups are required for comparison", opts.since)
		}
		return previous, current, nil

	default:
		if len(history) < 2 {
			return nil, nil, fmt.Errorf("at least 2 lookups are required for comparison (found %d)", len(history))
		}
		return history[1], current, nil
	}
}

// ComparisonResult holds the result of comparing two lookups of an article.
type ComparisonResult struct {
	// Title is the article title.
	Title string `json:"title"`

	// Previous is the earlier lookup.
	Previous LookupSnapshot `json:"previous"`

	// Current is the later lookup.
	Current LookupSnapshot `json:"current"`

	// PageSizeDelta is the change in bytes. Nil when either size is unknown.
	PageSizeDelta *int `json:"page_size_delta,omitempty"`

	// EditCountDelta is the change in total edits. Nil when either count is unknown.
	EditCountDelta *int `json:"edit_count_delta,omitempty"`

	// ContributorDelta is the change in unique recent contributors.
	ContributorDelta *int `json:"contributor_delta,omitempty"`

	// EntityChanged is set when the linked Wikidata item or its label changed.
	EntityChanged bool `json:"entity_changed"`

	// SummaryChanged is set when the intro extract changed.
	SummaryChanged bool `json:"summary_changed"`

	// NewImages are image URLs found only in the current lookup.
	NewImages []string `json:"new_images,omitempty"`

	// RemovedImages are image URLs found only in the previous lookup.
	RemovedImages []string `json:"removed_images,omitempty"`
}

// LookupSnapshot is the comparable part of a lookup.
type LookupSnapshot struct {
	ID                 string       `json:"id"`
	DateLookedUp       time.Time    `json:"date_looked_up"`
	Status             model.Status `json:"status"`
	PageSize           *int         `json:"page_size,omitempty"`
	EditCount          *int         `json:"edit_count,omitempty"`
	UniqueContributors *int         `json:"unique_contributors,omitempty"`
	EntityID           string       `json:"entity_id,omitempty"`
	EntityLabel        string       `json:"entity_label,omitempty"`
	ImageCount         int          `json:"image_count"`
}

func newLookupSnapshot(l *model.Lookup) LookupSnapshot {
	s := LookupSnapshot{
		ID:           l.ID,
		DateLookedUp: l.DateLookedUp,
		Status:       l.Outcome.Status,
	}
	if l.Metadata != nil {
		size := l.Metadata.Length
		s.PageSize = &size
		s.EditCount = l.Metadata.EditCount
	}
	if l.History != nil {
		n := l.History.UniqueContributors
		s.UniqueContributors = &n
	}
	if l.Entity != nil {
		s.EntityID = l.Entity.ID
		s.EntityLabel = l.Entity.Label
	}
	if l.Images != nil {
		s.ImageCount = len(l.Images.Images)
	}
	return s
}

// compareLookups compares two lookups of the same article.
func compareLookups(previous, current *model.Lookup) *ComparisonResult {
	result := &ComparisonResult{
		Title:    current.Title,
		Previous: newLookupSnapshot(previous),
		Current:  newLookupSnapshot(current),
	}

	result.PageSizeDelta = delta(result.Previous.PageSize, result.Current.PageSize)
	result.EditCountDelta = delta(result.Previous.EditCount, result.Current.EditCount)
	result.ContributorDelta = delta(result.Previous.UniqueContributors, result.Current.UniqueContributors)

	result.EntityChanged = result.Previous.EntityID != result.Current.EntityID ||
		result.Previous.EntityLabel != result.Current.EntityLabel

	if previous.Summary != nil && current.Summary != nil {
		result.SummaryChanged = previous.Summary.Extract != current.Summary.Extract
	}

	previousImages := make(map[string]bool)
	for _, u := range previous.Images.URLs() {
		previousImages[u] = true
	}
	currentImages := make(map[string]bool)
	for _, u := range current.Images.URLs() {
		currentImages[u] = true
		if !previousImages[u] {
			result.NewImages = append(result.NewImages, u)
		}
	}
	for _, u := range previous.Images.URLs() {
		if !currentImages[u] {
			result.RemovedImages = append(result.RemovedImages, u)
		}
	}

	return result
}

// delta returns current - previous, or nil if either is unknown.
func delta(previous, current *int) *int {
	if previous == nil || current == nil {
		return nil
	}
	d := *current - *previous
	return &d
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Lookup Comparison: " + result.Title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date",
				result.Previous.DateLookedUp.Local().Format("2006-01-02 15:04"),
				result.Current.DateLookedUp.Local().Format("2006-01-02 15:04"),
				"-"},
			{"Status", result.Previous.Status.String(), result.Current.Status.String(), "-"},
			{"Page Size (bytes)",
				formatOptional(result.Previous.PageSize),
				formatOptional(result.Current.PageSize),
				formatDelta(result.PageSizeDelta)},
			{"Total Edits",
				formatOptional(result.Previous.EditCount),
				formatOptional(result.Current.EditCount),
				formatDelta(result.EditCountDelta)},
			{"Unique Contributors",
				formatOptional(result.Previous.UniqueContributors),
				formatOptional(result.Current.UniqueContributors),
				formatDelta(result.ContributorDelta)},
			{"Wikidata Item",
				orNotAvailable(result.Previous.EntityID),
				orNotAvailable(result.Current.EntityID),
				changedText(result.EntityChanged)},
			{"Images",
				strconv.Itoa(result.Previous.ImageCount),
				strconv.Itoa(result.Current.ImageCount),
				formatDelta(delta(&result.Previous.ImageCount, &result.Current.ImageCount))},
		},
	})
	md.PlainText("")

	if result.SummaryChanged {
		md.Note("The article summary changed.")
		md.PlainText("")
	}

	if len(result.NewImages) > 0 {
		md.H2(fmt.Sprintf("New Images (%d)", len(result.NewImages)))
		md.PlainText("")
		md.BulletList(result.NewImages...)
		md.PlainText("")
	}
	if len(result.RemovedImages) > 0 {
		md.H2(fmt.Sprintf("Removed Images (%d)", len(result.RemovedImages)))
		md.PlainText("")
		md.BulletList(result.RemovedImages...)
		md.PlainText("")
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Lookup Comparison: %s\n", result.Title)
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&sb, "\nPrevious lookup: %s (%s)\n",
		result.Previous.DateLookedUp.Local().Format("2006-01-02 15:04:05"), result.Previous.Status)
	fmt.Fprintf(&sb, "Current lookup:  %s (%s)\n",
		result.Current.DateLookedUp.Local().Format("2006-01-02 15:04:05"), result.Current.Status)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %-20s  %-12s  %-12s  %s\n", "Metric", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 58) + "\n")
	fmt.Fprintf(&sb, "  %-20s  %-12s  %-12s  %s\n", "Page Size (bytes)",
		formatOptional(result.Previous.PageSize), formatOptional(result.Current.PageSize),
		formatDelta(result.PageSizeDelta))
	fmt.Fprintf(&sb, "  %-20s  %-12s  %-12s  %s\n", "Total Edits",
		formatOptional(result.Previous.EditCount), formatOptional(result.Current.EditCount),
		formatDelta(result.EditCountDelta))
	fmt.Fprintf(&sb, "  %-20s  %-12s  %-12s  %s\n", "Unique Contributors",
		formatOptional(result.Previous.UniqueContributors), formatOptional(result.Current.UniqueContributors),
		formatDelta(result.ContributorDelta))
	fmt.Fprintf(&sb, "  %-20s  %-12s  %-12s  %s\n", "Wikidata Item",
		orNotAvailable(result.Previous.EntityID), orNotAvailable(result.Current.EntityID),
		changedText(result.EntityChanged))
	fmt.Fprintf(&sb, "  %-20s  %-12d  %-12d  %s\n", "Images",
		result.Previous.ImageCount, result.Current.ImageCount,
		formatDelta(delta(&result.Previous.ImageCount, &result.Current.ImageCount)))

	if result.SummaryChanged {
		sb.WriteString("\nThe article summary changed.\n")
	}

	if len(result.NewImages) > 0 {
		fmt.Fprintf(&sb, "\nNew Images (%d):\n", len(result.NewImages))
		for _, u := range result.NewImages {
			fmt.Fprintf(&sb, "  [+] %s\n", u)
		}
	}
	if len(result.RemovedImages) > 0 {
		fmt.Fprintf(&sb, "\nRemoved Images (%d):\n", len(result.RemovedImages))
		for _, u := range result.RemovedImages {
			fmt.Fprintf(&sb, "  [-] %s\n", u)
		}
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

// formatOptional formats an optional count, or N/A when unknown.
func formatOptional(v *int) string {
	if v == nil {
		return model.NotAvailable
	}
	return strconv.Itoa(*v)
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(d *int) string {
	switch {
	case d == nil:
		return "-"
	case *d > 0:
		return "+" + strconv.Itoa(*d)
	default:
		return strconv.Itoa(*d)
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}

func changedText(changed bool) string {
	if changed {
		return "changed"
	}
	return "unchanged"
}
