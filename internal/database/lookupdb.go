package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikiscope/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "wikiscope.db"

// timestampLayout is the fixed-width UTC layout used for stored timestamps.
// Fixed width keeps lexical and chronological order identical.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// LookupDB provides SQLite-based storage for finished lookups.
type LookupDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LookupDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a LookupDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LookupDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LookupDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ldb, nil
}

// Close closes the database connection.
func (ldb *LookupDB) Close() error {
	return ldb.db.Close()
}

// Path returns the database file path.
func (ldb *LookupDB) Path() string {
	return ldb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LookupDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		query TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		page_size INTEGER,
		edits_analyzed INTEGER,
		unique_contributors INTEGER,
		entity_id TEXT NOT NULL DEFAULT '',
		lookup_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_title ON lookups(title);
	CREATE INDEX IF NOT EXISTS idx_lookups_timestamp ON lookups(timestamp);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveLookup stores a finished lookup. Saving the same lookup ID twice
// replaces the earlier row.
func (ldb *LookupDB) SaveLookup(ctx context.Context, lookup *model.Lookup) error {
	lookupJSON, err := json.Marshal(lookup)
	if err != nil {
		return fmt.Errorf("failed to serialize lookup: %w", err)
	}

	var pageSize, analyzed, contributors sql.NullInt64
	if lookup.Metadata != nil {
		pageSize = sql.NullInt64{Int64: int64(lookup.Metadata.Length), Valid: true}
	}
	if lookup.History != nil {
		analyzed = sql.NullInt64{Int64: int64(lookup.History.Analyzed), Valid: true}
		contributors = sql.NullInt64{Int64: int64(lookup.History.UniqueContributors), Valid: true}
	}
	entityID := ""
	if lookup.Entity != nil {
		entityID = lookup.Entity.ID
	}
	failedStage := ""
	if lookup.Outcome.Status == model.StatusFailed {
		failedStage = lookup.Outcome.FailedStage.String()
	}

	query := `
	INSERT INTO lookups (id, query, title, status, failed_stage, timestamp,
		page_size, edits_analyzed, unique_contributors, entity_id, lookup_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		query = excluded.query,
		title = excluded.title,
		status = excluded.status,
		failed_stage = excluded.failed_stage,
		timestamp = excluded.timestamp,
		page_size = excluded.page_size,
		edits_analyzed = excluded.edits_analyzed,
		unique_contributors = excluded.unique_contributors,
		entity_id = excluded.entity_id,
		lookup_json = excluded.lookup_json
	`

	_, err = ldb.db.ExecContext(ctx, query,
		lookup.ID,
		lookup.Query,
		lookup.Title,
		lookup.Outcome.Status.String(),
		failedStage,
		formatTimestamp(lookup.DateLookedUp),
		pageSize,
		analyzed,
		contributors,
		entityID,
		string(lookupJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}

	return nil
}

// GetLookupByID retrieves a lookup by its ID.
// It returns nil, nil when no lookup has that ID.
func (ldb *LookupDB) GetLookupByID(ctx context.Context, id string) (*model.Lookup, error) {
	query := `SELECT lookup_json FROM lookups WHERE id = ?`
	return ldb.getOne(ctx, query, id)
}

// GetLatestLookup retrieves the most recent lookup of an article title.
// It returns nil, nil when the title was never looked up.
func (ldb *LookupDB) GetLatestLookup(ctx context.Context, title string) (*model.Lookup, error) {
	query := `
	SELECT lookup_json FROM lookups
	WHERE title = ?
	ORDER BY timestamp DESC, seq DESC
	LIMIT 1
	`
	return ldb.getOne(ctx, query, title)
}

func (ldb *LookupDB) getOne(ctx context.Context, query string, arg any) (*model.Lookup, error) {
	var lookupJSON string
	err := ldb.db.QueryRowContext(ctx, query, arg).Scan(&lookupJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup: %w", err)
	}

	var lookup model.Lookup
	if err := json.Unmarshal([]byte(lookupJSON), &lookup); err != nil {
		return nil, fmt.Errorf("failed to parse lookup: %w", err)
	}

	return &lookup, nil
}

// GetLookupHistory retrieves all lookups of an article title, newest first.
// Rows that cannot be decoded are skipped.
func (ldb *LookupDB) GetLookupHistory(ctx context.Context, title string) ([]*model.Lookup, error) {
	query := `
	SELECT lookup_json FROM lookups
	WHERE title = ?
	ORDER BY timestamp DESC, seq DESC
	`

	rows, err := ldb.db.QueryContext(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup history: %w", err)
	}
	defer rows.Close()

	var lookups []*model.Lookup
	for rows.Next() {
		var lookupJSON string
		if err := rows.Scan(&lookupJSON); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}

		var lookup model.Lookup
		if err := json.Unmarshal([]byte(lookupJSON), &lookup); err != nil {
			continue // Skip malformed rows
		}
		lookups = append(lookups, &lookup)
	}

	return lookups, rows.Err()
}

// LookupMetadata contains summary information about a stored lookup.
// This is used for displaying history without loading the full lookup.
type LookupMetadata struct {
	// ID is the lookup ID.
	ID string `json:"id"`

	// Query is the search term that was looked up.
	Query string `json:"query"`

	// Title is the resolved article title.
	Title string `json:"title"`

	// Status is how the lookup ended.
	Status model.Status `json:"status"`

	// FailedStage is the failing stage of a failed lookup.
	FailedStage model.Stage `json:"failed_stage,omitempty"`

	// Timestamp is when the lookup was performed.
	Timestamp time.Time `json:"timestamp"`

	// PageSize is the article size in bytes, if the metadata stage completed.
	PageSize *int `json:"page_size,omitempty"`

	// EditsAnalyzed is the number of revisions inspected, if known.
	EditsAnalyzed *int `json:"edits_analyzed,omitempty"`

	// UniqueContributors is the number of distinct editors, if known.
	UniqueContributors *int `json:"unique_contributors,omitempty"`

	// EntityID is the linked Wikidata item, if any.
	EntityID string `json:"entity_id,omitempty"`
}

// GetLookupHistoryWithMetadata retrieves lookup metadata for a title, newest first.
// This is more efficient than GetLookupHistory when only metadata is needed.
func (ldb *LookupDB) GetLookupHistoryWithMetadata(ctx context.Context, title string) ([]LookupMetadata, error) {
	query := `
	SELECT id, query, title, status, failed_stage, timestamp,
		page_size, edits_analyzed, unique_contributors, entity_id
	FROM lookups
	WHERE title = ?
	ORDER BY timestamp DESC, seq DESC
	`

	rows, err := ldb.db.QueryContext(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup history: %w", err)
	}
	defer rows.Close()

	var results []LookupMetadata
	for rows.Next() {
		var meta LookupMetadata
		var status, failedStage, timestamp string
		var pageSize, analyzed, contributors sql.NullInt64

		if err := rows.Scan(
			&meta.ID,
			&meta.Query,
			&meta.Title,
			&status,
			&failedStage,
			&timestamp,
			&pageSize,
			&analyzed,
			&contributors,
			&meta.EntityID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Unknown names fall back to the zero values.
		meta.Status, _ = model.ParseStatus(status)          //nolint:errcheck // zero value is acceptable
		meta.FailedStage, _ = model.ParseStage(failedStage) //nolint:errcheck // zero value is acceptable
		meta.Timestamp = parseTimestamp(timestamp)
		meta.PageSize = nullableInt(pageSize)
		meta.EditsAnalyzed = nullableInt(analyzed)
		meta.UniqueContributors = nullableInt(contributors)

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListTitles returns every resolved article title in the history, sorted.
// Lookups that never resolved a title are not listed.
func (ldb *LookupDB) ListTitles(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT title FROM lookups
	WHERE title != ''
	ORDER BY title
	`

	rows, err := ldb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

// CountLookups returns the number of stored lookups.
func (ldb *LookupDB) CountLookups(ctx context.Context) (int, error) {
	var n int
	if err := ldb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return n, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
