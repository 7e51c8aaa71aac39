package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"themereel/internal/config"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const recordColumns = "id, run_id, theme, output_path, status, error_kind, diagnostic, duration_seconds, size_bytes, elapsed_ms, published_uri, started_at, finished_at"

// Store manages render history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at cfg.Paths.HistoryDB.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.HistoryDB)
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection and batch workers write concurrently.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts rec and returns its id.
func (s *Store) Record(ctx context.Context, rec Record) (int64, error) {
	if strings.TrimSpace(rec.RunID) == "" {
		return 0, errors.New("record render: run id is required")
	}
	if _, ok := ParseStatus(string(rec.Status)); !ok {
		return 0, fmt.Errorf("record render: invalid status %q", rec.Status)
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	started := rec.StartedAt
	if started.IsZero() {
		started = finished.Add(-rec.Elapsed)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (
            run_id, theme, output_path, status, error_kind, diagnostic,
            duration_seconds, size_bytes, elapsed_ms, published_uri, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Theme,
		rec.OutputPath,
		string(rec.Status),
		nullableString(rec.ErrorKind),
		nullableString(rec.Diagnostic),
		rec.DurationSeconds,
		rec.SizeBytes,
		rec.Elapsed.Milliseconds(),
		nullableString(rec.PublishedURI),
		started.UTC().Format(timeLayout),
		finished.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SetPublished stores the object URI for a recorded render.
func (s *Store) SetPublished(ctx context.Context, id int64, uri string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE renders SET published_uri = ? WHERE id = ?", nullableString(uri), id)
	if err != nil {
		return fmt.Errorf("update published uri: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("render %d not found", id)
	}
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if opts.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Theme != "" {
		clauses = append(clauses, "theme = ?")
		args = append(args, opts.Theme)
	}
	if opts.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(opts.Status))
	}

	query := "SELECT " + recordColumns + " FROM renders"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY finished_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return records, nil
}

// RunTally counts outcomes for runID.
func (s *Store) RunTally(ctx context.Context, runID string) (Tally, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM renders WHERE run_id = ? GROUP BY status", runID)
	if err != nil {
		return Tally{}, fmt.Errorf("tally run: %w", err)
	}
	defer rows.Close()

	var tally Tally
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Tally{}, fmt.Errorf("scan tally: %w", err)
		}
		switch Status(status) {
		case StatusSucceeded:
			tally.Succeeded = count
		case StatusFailed:
			tally.Failed = count
		case StatusErrored:
			tally.Errored = count
		}
	}
	return tally, rows.Err()
}

// Prune deletes records finished before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM renders WHERE finished_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec         Record
		status      string
		errorKind   sql.NullString
		diagnostic  sql.NullString
		elapsedMS   int64
		published   sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Theme,
		&rec.OutputPath,
		&status,
		&errorKind,
		&diagnostic,
		&rec.DurationSeconds,
		&rec.SizeBytes,
		&elapsedMS,
		&published,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Record{}, fmt.Errorf("scan render: %w", err)
	}
	rec.Status = Status(status)
	rec.ErrorKind = errorKind.String
	rec.Diagnostic = diagnostic.String
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.PublishedURI = published.String
	rec.StartedAt = parseTime(startedRaw)
	rec.FinishedAt = parseTime(finishedRaw)
	return rec, nil
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
