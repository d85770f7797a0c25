package jobs

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const recordColumns = `id, url, request_kind, quality, audio_bitrate, status, progress,
    stream_kind, result_path, result_filename, error_detail, created_at, updated_at`

// SQLiteStore keeps job records in SQLite. The table is recreated on open so
// nothing survives a daemon restart. A single connection serializes writers.
type SQLiteStore struct {
	db   *sql.DB
	path string
	// mu keeps Update's read-modify-write atomic with respect to other writers.
	mu  sync.Mutex
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and resets the jobs table.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) Create(ctx context.Context, req Request) (*Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	record := newRecord(NewID(), req, s.now())
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO jobs (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recordArgs(record)...,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, mutate func(*Record) error) (*Record, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminal, id, current.Status)
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := applyMutation(current, next, s.now()); err != nil {
		return nil, err
	}

	err = retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, progress = ?, stream_kind = ?, result_path = ?,
                result_filename = ?, error_detail = ?, updated_at = ?
             WHERE id = ?`,
			next.Status,
			next.Progress,
			next.StreamKind,
			next.ResultPath,
			next.ResultFilename,
			next.ErrorDetail,
			next.UpdatedAt.Format(timeLayout),
			id,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + recordColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record    Record
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&record.ID,
		&record.URL,
		&record.RequestKind,
		&record.Quality,
		&record.AudioBitrate,
		&record.Status,
		&record.Progress,
		&record.StreamKind,
		&record.ResultPath,
		&record.ResultFilename,
		&record.ErrorDetail,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)
	return &record, nil
}

func recordArgs(r *Record) []any {
	return []any{
		r.ID,
		r.URL,
		r.RequestKind,
		r.Quality,
		r.AudioBitrate,
		r.Status,
		r.Progress,
		r.StreamKind,
		r.ResultPath,
		r.ResultFilename,
		r.ErrorDetail,
		r.CreatedAt.Format(timeLayout),
		r.UpdatedAt.Format(timeLayout),
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
