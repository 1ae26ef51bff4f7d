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

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "darkmonitor.db"

// Store is the append-only ingestion store. Items are inserted exactly
// once and never updated; the AUTOINCREMENT rowid doubles as the commit
// sequence number.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so feed readers don't block
	// the committing writer.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ingestion store inside dbDir.
// If CreateIfNotExists is false and no database file exists,
// ErrDatabaseNotExist is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotExist, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw prevents creating new files,
	// mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single pooled connection avoids
	// SQLITE_BUSY churn under concurrent commits.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Items are the append-only record of every committed document.
	-- seq is the commit sequence number; AUTOINCREMENT guarantees it is
	-- strictly increasing and never reused after deletes.
	CREATE TABLE IF NOT EXISTS items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		title TEXT,
		text TEXT,
		risk_score REAL NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		entities TEXT,
		sensitive_flag INTEGER NOT NULL DEFAULT 0,
		route TEXT NOT NULL,
		depth INTEGER NOT NULL DEFAULT 0,
		duplicate INTEGER NOT NULL DEFAULT 0,
		duplicate_of TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
	CREATE INDEX IF NOT EXISTS idx_items_risk ON items(risk_score);
	CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Commit appends item to the store inside a transaction and returns it
// with the assigned sequence number and commit timestamp filled in.
// The input item is not mutated; a failed commit leaves no trace.
func (s *Store) Commit(ctx context.Context, item model.IngestedItem) (model.IngestedItem, error) {
	if item.URL == "" {
		return model.IngestedItem{}, ErrEmptyURL
	}

	entitiesJSON, err := json.Marshal(item.Entities)
	if err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to serialize entities: %w", err)
	}

	item.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to begin commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
	INSERT INTO items (id, url, title, text, risk_score, category, entities,
		sensitive_flag, route, depth, duplicate, duplicate_of, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		item.ID,
		item.URL,
		item.Title,
		item.Text,
		item.RiskScore,
		item.Category,
		string(entitiesJSON),
		boolToInt(item.SensitiveFlag),
		string(item.Route),
		item.Depth,
		boolToInt(item.Duplicate),
		item.DuplicateOf,
		item.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to insert item: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to read sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to commit item: %w", err)
	}

	item.Seq = seq
	return item, nil
}

// GetItem retrieves an item by its stable ID.
func (s *Store) GetItem(ctx context.Context, id string) (model.IngestedItem, error) {
	query := selectColumns + ` WHERE id = ?`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.IngestedItem{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return model.IngestedItem{}, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// LastSeq returns the highest committed sequence number, or 0 for an
// empty store.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM items`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read last sequence: %w", err)
	}
	return seq.Int64, nil
}

// ItemsAfter returns up to limit items with seq strictly greater than
// after, in ascending commit order. This is the feed cursor query.
func (s *Store) ItemsAfter(ctx context.Context, after int64, limit int) ([]model.IngestedItem, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query := selectColumns + ` WHERE seq > ? ORDER BY seq ASC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items after seq %d: %w", after, err)
	}
	return collectItems(rows)
}

// RecentItems returns the most recently committed n items in ascending
// commit order, for feed backfill.
func (s *Store) RecentItems(ctx context.Context, n int) ([]model.IngestedItem, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `SELECT * FROM (` + selectColumns + ` ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items: %w", err)
	}
	return collectItems(rows)
}

// DefaultSearchLimit caps search results when the caller doesn't.
const DefaultSearchLimit = 50

// Query filters a Search. Zero values mean "no filter".
type Query struct {
	// Text matches case-insensitively against title, text, and URL.
	Text string

	// Category restricts results to one classification label.
	Category string

	// MinRisk drops items below the given risk score.
	MinRisk float64

	// Limit caps the result count; 0 means DefaultSearchLimit.
	Limit int
}

// Search returns matching items newest-first.
func (s *Store) Search(ctx context.Context, q Query) ([]model.IngestedItem, error) {
	query := selectColumns + ` WHERE 1=1`
	args := make([]any, 0, 5)

	if q.Text != "" {
		query += ` AND (title LIKE ? OR text LIKE ? OR url LIKE ?)`
		pattern := "%" + q.Text + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, q.Category)
	}
	if q.MinRisk > 0 {
		query += ` AND risk_score >= ?`
		args = append(args, q.MinRisk)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return collectItems(rows)
}

// Stats summarizes the stored corpus for the stats endpoint.
type Stats struct {
	// TotalItems is the number of committed items.
	TotalItems int `json:"total_items"`

	// HighRisk counts items with risk score >= 0.8.
	HighRisk int `json:"high_risk"`

	// MediumRisk counts items with 0.5 <= risk score < 0.8.
	MediumRisk int `json:"medium_risk"`

	// LowRisk counts the remainder.
	LowRisk int `json:"low_risk"`

	// Categories maps each classification label to its item count.
	Categories map[string]int `json:"categories"`
}

// GetStats computes corpus-wide counts.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{Categories: make(map[string]int)}

	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN risk_score >= 0.8 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN risk_score >= 0.5 AND risk_score < 0.8 THEN 1 ELSE 0 END), 0)
	FROM items
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.TotalItems, &stats.HighRisk, &stats.MediumRisk); err != nil {
		return Stats{}, fmt.Errorf("failed to count risk buckets: %w", err)
	}
	stats.LowRisk = stats.TotalItems - stats.HighRisk - stats.MediumRisk

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM items GROUP BY category`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.Categories[category] = count
	}
	return stats, rows.Err()
}

// selectColumns is the shared projection for item queries; scanItem
// depends on this column order.
const selectColumns = `
SELECT seq, id, url, title, text, risk_score, category, entities,
	sensitive_flag, route, depth, duplicate, duplicate_of, created_at
FROM items`

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.IngestedItem, error) {
	var item model.IngestedItem
	var entitiesJSON sql.NullString
	var duplicateOf sql.NullString
	var sensitive, duplicate int
	var route, createdAt string

	err := row.Scan(
		&item.Seq,
		&item.ID,
		&item.URL,
		&item.Title,
		&item.Text,
		&item.RiskScore,
		&item.Category,
		&entitiesJSON,
		&sensitive,
		&route,
		&item.Depth,
		&duplicate,
		&duplicateOf,
		&createdAt,
	)
	if err != nil {
		return model.IngestedItem{}, err
	}

	item.SensitiveFlag = sensitive != 0
	item.Duplicate = duplicate != 0
	item.DuplicateOf = duplicateOf.String
	item.Route = model.Route(route)
	item.CreatedAt = parseTimestamp(createdAt)

	item.Entities = model.NewEntitySet()
	if entitiesJSON.Valid && entitiesJSON.String != "" {
		if err := json.Unmarshal([]byte(entitiesJSON.String), &item.Entities); err != nil {
			return model.IngestedItem{}, fmt.Errorf("failed to parse entities: %w", err)
		}
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]model.IngestedItem, error) {
	defer func() {
		_ = rows.Close()
	}()

	var items []model.IngestedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
