package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wplinks/internal/model"
)

// LinkDB provides SQLite-based storage for analysis runs and link edges.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: a single database file holds runs for every site so
// that cross-site history queries need no file juggling.
type LinkDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LinkDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a LinkDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LinkDB, error) {
	dbPath := filepath.Join(dbDir, "wplinks.db")

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

	// modernc.org/sqlite uses URI-style query options: mode=rw prevents
	// creating new files, mode=rwc allows creation.
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

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn under concurrent batch runs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LinkDB{
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
func (ldb *LinkDB) Close() error {
	return ldb.db.Close()
}

// Path returns the path of the backing database file.
func (ldb *LinkDB) Path() string {
	return ldb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LinkDB) createTables() error {
	schema := `
	-- Runs store one completed site analysis each, full report as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		base_url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		article_count INTEGER DEFAULT 0,
		link_count INTEGER DEFAULT 0,
		dropped_refs INTEGER DEFAULT 0,
		partial INTEGER DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Link edges store the resolved source -> target pairs of a run
	CREATE TABLE IF NOT EXISTS link_edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		source INTEGER NOT NULL,
		target INTEGER NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_run ON link_edges(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON link_edges(run_id, target);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists a completed site report and its link edges.
// It returns the database ID of the new run.
func (ldb *LinkDB) SaveRun(ctx context.Context, report *model.SiteReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	partial := 0
	if report.PartialDirectory {
		partial = 1
	}

	query := `
	INSERT INTO runs (site, base_url, article_count, link_count, dropped_refs, partial, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := ldb.db.ExecContext(ctx, query,
		report.Site,
		report.BaseURL,
		len(report.Articles),
		report.TotalOutgoing(),
		report.DroppedRefs,
		partial,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	if err := ldb.insertEdges(ctx, runID, report.Outgoing); err != nil {
		return 0, err
	}

	return runID, nil
}

// insertEdges stores every outgoing link of a run as edge rows.
func (ldb *LinkDB) insertEdges(ctx context.Context, runID int64, outgoing model.LinkMap) error {
	if outgoing.TotalLinks() == 0 {
		return nil
	}

	tx, err := ldb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin edge transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO link_edges (run_id, source, target) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer stmt.Close()

	for source, targets := range outgoing {
		for _, target := range targets {
			if _, err := stmt.ExecContext(ctx, runID, source, target); err != nil {
				return fmt.Errorf("failed to insert edge: %w", err)
			}
		}
	}

	return tx.Commit()
}

// LatestRun retrieves the most recent stored report for a site.
// It returns nil without error when the site has no stored runs.
func (ldb *LinkDB) LatestRun(ctx context.Context, site string) (*model.SiteReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := ldb.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var report model.SiteReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// RunByID retrieves a stored report by its database ID.
// It returns nil without error when no run has that ID.
func (ldb *LinkDB) RunByID(ctx context.Context, id int64) (*model.SiteReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := ldb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.SiteReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Site is the analyzed site's short name.
	Site string

	// BaseURL is the analyzed site's base URL.
	BaseURL string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// ArticleCount is the number of articles in the run's directory.
	ArticleCount int

	// LinkCount is the total number of resolved outbound links.
	LinkCount int

	// DroppedRefs counts references dropped during resolution.
	DroppedRefs int

	// Partial is true when the run's directory was truncated by a
	// pagination failure.
	Partial bool

	// Error holds the per-site failure message, empty on success.
	Error string
}

// RunsForSite retrieves run metadata for one site, newest first.
// An empty site returns metadata for every stored run.
func (ldb *LinkDB) RunsForSite(ctx context.Context, site string) ([]RunMetadata, error) {
	query := `
	SELECT id, site, base_url, timestamp, article_count, link_count, dropped_refs, partial, error
	FROM runs
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if site != "" {
		query += " AND site = ?"
		args = append(args, site)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var partial int
		var errMsg sql.NullString

		err := rows.Scan(
			&meta.ID,
			&meta.Site,
			&meta.BaseURL,
			&timestamp,
			&meta.ArticleCount,
			&meta.LinkCount,
			&meta.DroppedRefs,
			&partial,
			&errMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Partial = partial != 0
		if errMsg.Valid {
			meta.Error = errMsg.String
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListSites returns the distinct site names with stored runs.
func (ldb *LinkDB) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM runs
	ORDER BY site
	`

	rows, err := ldb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// EdgesForRun retrieves the stored source -> target pairs of one run.
// The result maps each source article ID to its targets in insertion order.
func (ldb *LinkDB) EdgesForRun(ctx context.Context, runID int64) (model.LinkMap, error) {
	query := `
	SELECT source, target FROM link_edges
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := ldb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := make(model.LinkMap)
	for rows.Next() {
		var source, target int
		if err := rows.Scan(&source, &target); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges[source] = append(edges[source], target)
	}

	return edges, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
