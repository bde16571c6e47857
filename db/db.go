package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docutag/interlinker/models"
)

// Dialect selects the SQL driver and migration set
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind converts $n placeholders for drivers that expect ?. Queries must
// reference each placeholder once, in order.
func (d Dialect) rebind(query string) string {
	if d != DialectSQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

// DB wraps the database connection and provides data access methods
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Config contains database configuration
type Config struct {
	Driver string // "postgres" (default) or "sqlite"
	DSN    string
}

// New opens a database connection and runs pending migrations
func New(config Config) (*DB, error) {
	d := Dialect(config.Driver)
	switch d {
	case "":
		d = DialectPostgres
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}

	conn, err := sql.Open(string(d), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if d == DialectSQLite {
		// A single connection keeps pragmas and in-memory databases consistent
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := Migrate(conn, d); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn, dialect: d}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Dialect returns the active SQL dialect
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}

// SavePage inserts or updates a target page keyed by slug
func (db *DB) SavePage(page *models.PageInfo) error {
	if page.Slug == "" {
		return fmt.Errorf("page slug is required")
	}

	secondary, err := json.Marshal(nonNil(page.SecondaryKeywords))
	if err != nil {
		return fmt.Errorf("failed to marshal secondary keywords: %w", err)
	}
	topics, err := json.Marshal(nonNil(page.Topics))
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO interlinker_pages (slug, title, description, primary_keyword, secondary_keywords, category, topics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			primary_keyword = excluded.primary_keyword,
			secondary_keywords = excluded.secondary_keywords,
			category = excluded.category,
			topics = excluded.topics,
			updated_at = excluded.updated_at
	`
	_, err = db.conn.Exec(db.q(query),
		page.Slug,
		page.Title,
		page.Description,
		page.PrimaryKeyword,
		string(secondary),
		page.Category,
		string(topics),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

const pageColumns = "slug, title, description, primary_keyword, secondary_keywords, category, topics"

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*models.PageInfo, error) {
	var page models.PageInfo
	var secondary, topics string
	if err := row.Scan(&page.Slug, &page.Title, &page.Description, &page.PrimaryKeyword, &secondary, &page.Category, &topics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(secondary), &page.SecondaryKeywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secondary keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &page.Topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
	}
	if len(page.SecondaryKeywords) == 0 {
		page.SecondaryKeywords = nil
	}
	if len(page.Topics) == 0 {
		page.Topics = nil
	}
	return &page, nil
}

// GetPageBySlug returns a page, or nil when it does not exist
func (db *DB) GetPageBySlug(slug string) (*models.PageInfo, error) {
	row := db.conn.QueryRow(db.q("SELECT "+pageColumns+" FROM interlinker_pages WHERE slug = $1"), slug)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}
	return page, nil
}

// ListPages returns pages ordered by slug, optionally filtered by category
func (db *DB) ListPages(category string) ([]models.PageInfo, error) {
	query := "SELECT " + pageColumns + " FROM interlinker_pages"
	var args []any
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY slug"

	rows, err := db.conn.Query(db.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := []models.PageInfo{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return pages, nil
}

// DeletePage removes a page by slug
func (db *DB) DeletePage(slug string) error {
	result, err := db.conn.Exec(db.q("DELETE FROM interlinker_pages WHERE slug = $1"), slug)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no page found with slug: %s", slug)
	}
	return nil
}

// SaveRun stores a run and its injection records atomically
func (db *DB) SaveRun(run *models.Run) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	distribution, err := json.Marshal(run.Distribution)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(db.q(`
		INSERT INTO interlinker_runs (id, document_slug, base_url, links_injected, distribution, content_path, processing_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`),
		run.ID,
		run.DocumentSlug,
		run.BaseURL,
		run.LinksInjected,
		string(distribution),
		run.ContentPath,
		run.ProcessingTime,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	insert := db.q(`
		INSERT INTO interlinker_injections (run_id, seq, success, anchor_text, normalized_anchor, target_url, target_slug, zone,
			element_index, word_offset, document_word_offset, quality, semantic, naturalness, seo, context, heading_overlap,
			justification, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`)
	for i, rec := range run.Injections {
		_, err := tx.Exec(insert,
			run.ID,
			i,
			rec.Success,
			rec.AnchorText,
			rec.NormalizedAnchor,
			rec.TargetURL,
			rec.TargetSlug,
			rec.Zone,
			rec.ElementIndex,
			rec.WordOffset,
			rec.DocumentWordOffset,
			rec.Metrics.Quality,
			rec.Metrics.Semantic,
			rec.Metrics.Naturalness,
			rec.Metrics.SEO,
			rec.Metrics.Context,
			rec.Metrics.HeadingOverlap,
			rec.Justification,
			rec.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to save injection %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun returns a run with its injection records, or nil when missing
func (db *DB) GetRun(id string) (*models.Run, error) {
	var run models.Run
	var distribution string
	err := db.conn.QueryRow(db.q(`
		SELECT id, document_slug, base_url, links_injected, distribution, content_path, processing_time, created_at
		FROM interlinker_runs WHERE id = $1
	`), id).Scan(
		&run.ID,
		&run.DocumentSlug,
		&run.BaseURL,
		&run.LinksInjected,
		&distribution,
		&run.ContentPath,
		&run.ProcessingTime,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if err := json.Unmarshal([]byte(distribution), &run.Distribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}

	injections, err := db.getInjections(id)
	if err != nil {
		return nil, err
	}
	run.Injections = injections

	return &run, nil
}

func (db *DB) getInjections(runID string) ([]models.InjectionRecord, error) {
	rows, err := db.conn.Query(db.q(`
		SELECT success, anchor_text, normalized_anchor, target_url, target_slug, zone, element_index, word_offset,
			document_word_offset, quality, semantic, naturalness, seo, context, heading_overlap, justification, reason
		FROM interlinker_injections WHERE run_id = $1 ORDER BY seq
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query injections: %w", err)
	}
	defer rows.Close()

	records := []models.InjectionRecord{}
	for rows.Next() {
		var r models.InjectionRecord
		if err := rows.Scan(
			&r.Success,
			&r.AnchorText,
			&r.NormalizedAnchor,
			&r.TargetURL,
			&r.TargetSlug,
			&r.Zone,
			&r.ElementIndex,
			&r.WordOffset,
			&r.DocumentWordOffset,
			&r.Metrics.Quality,
			&r.Metrics.Semantic,
			&r.Metrics.Naturalness,
			&r.Metrics.SEO,
			&r.Metrics.Context,
			&r.Metrics.HeadingOverlap,
			&r.Justification,
			&r.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan injection: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// ListRuns returns run summaries, newest first
func (db *DB) ListRuns(limit, offset int) ([]models.RunSummary, error) {
	rows, err := db.conn.Query(db.q(`
		SELECT id, document_slug, links_injected, created_at FROM interlinker_runs
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunSummary{}
	for rows.Next() {
		var r models.RunSummary
		if err := rows.Scan(&r.ID, &r.DocumentSlug, &r.LinksInjected, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return runs, nil
}

// CountRuns returns the number of stored runs
func (db *DB) CountRuns() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM interlinker_runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
