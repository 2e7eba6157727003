// Package storage keeps scrape runs and their listings in a local sqlite
// database, and exports run results to CSV.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/remotehunt/jobscope/pkg/jobs"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scrape_runs (
  id          INTEGER PRIMARY KEY,
  run_id      TEXT NOT NULL UNIQUE,
  technology  TEXT NOT NULL,
  level       TEXT NOT NULL,
  total_jobs  INTEGER NOT NULL DEFAULT 0,
  csv_file    TEXT,
  started_at  DATETIME NOT NULL,
  finished_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS job_listings (
  id      INTEGER PRIMARY KEY,
  run_id  TEXT NOT NULL,
  origin  TEXT NOT NULL,
  title   TEXT NOT NULL,
  snippet TEXT,
  link    TEXT NOT NULL,
  UNIQUE(run_id, origin, link)
);
CREATE INDEX IF NOT EXISTS idx_listings_run ON job_listings(run_id);
CREATE INDEX IF NOT EXISTS idx_listings_origin ON job_listings(run_id, origin);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun stores one finished run with its listings in a single
// transaction. Re-saving the same run_id replaces its listings.
func (d *DB) SaveRun(ctx context.Context, rec RunRecord, listings []jobs.Listing) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO scrape_runs(run_id, technology, level, total_jobs, csv_file, started_at, finished_at) VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET total_jobs = excluded.total_jobs, csv_file = excluded.csv_file, finished_at = excluded.finished_at`,
		rec.RunID, rec.Technology, rec.Level, rec.TotalJobs, nullIfEmpty(rec.CSVFile), rec.StartedAt.UTC(), rec.FinishedAt.UTC())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM job_listings WHERE run_id = ?`, rec.RunID)
	if err != nil {
		return err
	}
	for _, l := range listings {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO job_listings(run_id, origin, title, snippet, link) VALUES(?,?,?,?,?)`,
			rec.RunID, l.Origin, l.Title, nullIfEmpty(l.Snippet), l.Link)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recently finished run, or nil when the
// database holds none.
func (d *DB) LatestRun(ctx context.Context) (*RunRecord, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT run_id, technology, level, total_jobs, csv_file, started_at, finished_at FROM scrape_runs ORDER BY finished_at DESC, id DESC LIMIT 1`)

	var rec RunRecord
	var csvNS sql.NullString
	var startedStr, finishedStr string
	err := row.Scan(&rec.RunID, &rec.Technology, &rec.Level, &rec.TotalJobs, &csvNS, &startedStr, &finishedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.CSVFile = csvNS.String
	rec.StartedAt = parseSQLiteTime(startedStr)
	rec.FinishedAt = parseSQLiteTime(finishedStr)
	return &rec, nil
}

// ListListings returns stored listings matching filters, most useful with
// the latest run's ID. Search matches title or snippet, case-insensitive.
func (d *DB) ListListings(ctx context.Context, opts ListOptions) ([]jobs.Listing, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.RunID != "" {
		where += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Origin != "" {
		where += " AND origin = ?"
		args = append(args, opts.Origin)
	}
	if opts.Search != "" {
		where += " AND (title LIKE ? OR snippet LIKE ?)"
		pat := fmt.Sprintf("%%%s%%", opts.Search)
		args = append(args, pat, pat)
	}

	q := "SELECT origin, title, snippet, link FROM job_listings " + where + " ORDER BY origin, title"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []jobs.Listing
	for rows.Next() {
		var l jobs.Listing
		var snippetNS sql.NullString
		if err := rows.Scan(&l.Origin, &l.Title, &snippetNS, &l.Link); err != nil {
			return nil, err
		}
		l.Snippet = snippetNS.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountOrigins tallies a run's listings per platform, largest first.
func (d *DB) CountOrigins(ctx context.Context, runID string) ([]OriginCount, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT origin, COUNT(*) FROM job_listings WHERE run_id = ? GROUP BY origin ORDER BY COUNT(*) DESC, origin`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []OriginCount
	for rows.Next() {
		var c OriginCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// parseSQLiteTime handles both the driver's RFC3339 output and the
// CURRENT_TIMESTAMP format.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
