// Package sqlite implements store.Store on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"

	"modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// fold(x) exposes normalize.Fold to SQL. SQLite's own LIKE only folds ASCII,
// so fuzzy selectors compare fold(column) against a folded pattern.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return normalize.Fold(v), nil
		case []byte:
			return normalize.Fold(string(v)), nil
		default:
			return v, nil
		}
	})
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements store.Repo against a querier. The Store uses one bound to
// the pool; WithTx hands callers one bound to a transaction.
type repo struct {
	q        querier
	pageSize int
}

var _ store.Repo = (*repo)(nil)

// Store provides SQLite-backed persistence for the rut server.
type Store struct {
	*repo
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the page size used by paged selectors.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Open creates a new SQLite store at the given path.
// Pragmas are passed in the DSN so every pooled connection gets them, and
// transactions start with BEGIN IMMEDIATE so concurrent writers queue on the
// write lock instead of failing at commit.
func Open(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	s := &Store{
		repo:   &repo{q: db, pageSize: store.DefaultPageSize},
		db:     db,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func dsn(path string) string {
	v := url.Values{}
	v.Set("_txlock", "immediate")
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "foreign_keys(1)")
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + path + "?" + v.Encode()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn in a transaction. Any error from fn, or a panic, rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(store.Repo) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&repo{q: tx, pageSize: s.pageSize}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapErr converts driver errors to store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return store.ErrAlreadyExists.WithCause(err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return store.ErrNotFound.WithMessage("referenced row does not exist").WithCause(err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return store.ErrInvalidInput.WithMessage("counter or field out of range").WithCause(err)
	}
	return err
}

// execOne runs a statement that must touch exactly one existing row.
func (r *repo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// likePattern builds a case folded substring pattern for fold(col) LIKE ? ESCAPE '\'.
func likePattern(p string) (string, error) {
	p = normalize.Fold(strings.TrimSpace(p))
	if p == "" {
		return "", store.ErrInvalidInput.WithMessage("empty search pattern")
	}
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + esc.Replace(p) + "%", nil
}

// scanAll drains rows through scan, always returning a non-nil slice.
func scanAll[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

type scanner interface{ Scan(dest ...any) error }

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
