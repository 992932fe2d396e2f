package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements content.Store and reports.Repository on database/sql.
type Store struct {
	db *sql.DB
	q  querier
	d  Dialect
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, q: db, d: d}
}

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) WithinTx(ctx context.Context, fn func(content.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: s.db, q: tx, d: s.d}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.d.Rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.d.Rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.d.Rebind(q), args...)
}
