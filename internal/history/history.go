// Package history records the outcome of synchronization passes in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// DefaultFileName is the history database inside the storage directory.
const DefaultFileName = "history.db"

// DefaultRetention is the number of passes kept.
const DefaultRetention = 100

// Failure is one failed identity of a recorded pass.
type Failure struct {
	Identity string `json:"identity"`
	Op       string `json:"op"`
	Error    string `json:"error"`
}

// Pass is a recorded pass report.
type Pass struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"`
	Added     int           `json:"added"`
	Modified  int           `json:"modified"`
	Deleted   int           `json:"deleted"`
	Unchanged int           `json:"unchanged"`
	Error     string        `json:"error,omitempty"`
	Failures  []Failure     `json:"failures,omitempty"`
}

// FromReport converts an engine report.
func FromReport(r *reconcile.Report) Pass {
	p := Pass{
		ID:        r.ID,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Status:    r.Status.String(),
		Added:     r.Added,
		Modified:  r.Modified,
		Deleted:   r.Deleted,
		Unchanged: r.Unchanged,
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	for _, f := range r.Failures {
		var msg string
		if f.Err != nil {
			msg = f.Err.Error()
		}
		p.Failures = append(p.Failures, Failure{Identity: f.Identity, Op: f.Op, Error: msg})
	}
	return p
}

// Store is a SQLite-backed pass history.
type Store struct {
	db        *sql.DB
	path      string
	retention int
}

// Open opens or creates the history database at path. An empty path keeps
// history in memory. retention <= 0 means DefaultRetention.
func Open(path string, retention int) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = path
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Single writer; also keeps an in-memory database on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path, retention: retention}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		status TEXT NOT NULL,
		added INTEGER NOT NULL DEFAULT 0,
		modified INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS pass_failures (
		pass_id TEXT NOT NULL,
		identity TEXT NOT NULL,
		op TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_pass_failures_pass ON pass_failures(pass_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores p and prunes passes beyond the retention limit.
func (s *Store) Record(ctx context.Context, p Pass) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO passes (id, started_at, duration_ns, status, added, modified, deleted, unchanged, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.StartedAt.UnixNano(), int64(p.Duration), p.Status,
		p.Added, p.Modified, p.Deleted, p.Unchanged, p.Error)
	if err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}

	if len(p.Failures) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pass_failures (pass_id, identity, op, error) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range p.Failures {
			if _, err := stmt.ExecContext(ctx, p.ID, f.Identity, f.Op, f.Error); err != nil {
				return fmt.Errorf("insert failure: %w", err)
			}
		}
	}

	// Trim to the retention limit (delete oldest)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM passes
		WHERE seq NOT IN (SELECT seq FROM passes ORDER BY seq DESC LIMIT ?)
	`, s.retention); err != nil {
		return fmt.Errorf("trim passes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pass_failures WHERE pass_id NOT IN (SELECT id FROM passes)
	`); err != nil {
		return fmt.Errorf("trim failures: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to n passes, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Pass, error) {
	if n <= 0 {
		n = s.retention
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ns, status, added, modified, deleted, unchanged, error
		FROM passes
		ORDER BY seq DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range passes {
		failures, err := s.failures(ctx, passes[i].ID)
		if err != nil {
			return nil, err
		}
		passes[i].Failures = failures
	}
	return passes, nil
}

// Last returns the most recent pass, or nil if none was recorded.
func (s *Store) Last(ctx context.Context) (*Pass, error) {
	passes, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, nil
	}
	return &passes[0], nil
}

// Get returns the pass with id. The error wraps sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, id string) (*Pass, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ns, status, added, modified, deleted, unchanged, error
		FROM passes WHERE id = ?
	`, id)
	p, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pass %s not found: %w", id, err)
	}
	if err != nil {
		return nil, err
	}
	if p.Failures, err = s.failures(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) failures(ctx context.Context, passID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, op, error FROM pass_failures WHERE pass_id = ? ORDER BY identity
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Identity, &f.Op, &f.Error); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(r rowScanner) (Pass, error) {
	var (
		p         Pass
		startedAt int64
		duration  int64
	)
	err := r.Scan(&p.ID, &startedAt, &duration, &p.Status,
		&p.Added, &p.Modified, &p.Deleted, &p.Unchanged, &p.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan row: %w", err)
	}
	p.StartedAt = time.Unix(0, startedAt)
	p.Duration = time.Duration(duration)
	return p, nil
}

// Path returns the database path, empty when in memory.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
