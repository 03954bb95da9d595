package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lockbox/internal/fileutil"
)

// Kinds of generated output.
const (
	KindTrack      = "track"
	KindSequence   = "sequence"
	KindNormalized = "normalized"
	KindHeader     = "firmware_header"
	KindEmbedded   = "embedded_html"
	KindChunk      = "chunk"
	KindDraft      = "draft_transcript"
	KindSprite     = "sprite"
)

// Entry describes one generated output.
type Entry struct {
	OutputPath string
	Kind       string
	InputPath  string
	InputHash  string
	ParamsHash string
	UpdatedAt  time.Time
}

// Store persists manifest entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the manifest database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("manifest path required")
	}
	if err := fileutil.EnsureParentDir(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(ctx); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts or replaces the entry for e.OutputPath. A zero UpdatedAt is
// stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.OutputPath) == "" {
		return errors.New("manifest record: output path required")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO outputs (output_path, kind, input_path, input_hash, params_hash, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(output_path) DO UPDATE SET
                kind = excluded.kind,
                input_path = excluded.input_path,
                input_hash = excluded.input_hash,
                params_hash = excluded.params_hash,
                updated_at = excluded.updated_at`,
			e.OutputPath, e.Kind, e.InputPath, e.InputHash, e.ParamsHash,
			e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("manifest record %s: %w", e.OutputPath, err)
		}
		return nil
	})
}

// Lookup returns the entry for outputPath. The boolean is false when no
// entry exists.
func (s *Store) Lookup(ctx context.Context, outputPath string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT output_path, kind, input_path, input_hash, params_hash, updated_at
         FROM outputs WHERE output_path = ?`, outputPath)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("manifest lookup %s: %w", outputPath, err)
	}
	return entry, true, nil
}

// Unchanged reports whether outputPath was last produced from the same input
// and parameters.
func (s *Store) Unchanged(ctx context.Context, outputPath, inputHash, paramsHash string) (bool, error) {
	entry, ok, err := s.Lookup(ctx, outputPath)
	if err != nil || !ok {
		return false, err
	}
	return entry.InputHash == inputHash && entry.ParamsHash == paramsHash, nil
}

// List returns entries ordered by kind then output path. An empty kind lists
// everything.
func (s *Store) List(ctx context.Context, kind string) ([]Entry, error) {
	query := `SELECT output_path, kind, input_path, input_hash, params_hash, updated_at FROM outputs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY kind, output_path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("manifest list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("manifest list: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Forget removes the entry for outputPath.
func (s *Store) Forget(ctx context.Context, outputPath string) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM outputs WHERE output_path = ?`, outputPath)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e       Entry
		updated string
	)
	if err := row.Scan(&e.OutputPath, &e.Kind, &e.InputPath, &e.InputHash, &e.ParamsHash, &updated); err != nil {
		return Entry{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		e.UpdatedAt = ts
	}
	return e, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
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
