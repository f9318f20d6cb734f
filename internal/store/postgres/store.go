// Package postgres implements store.Store on PostgreSQL via database/sql
// and lib/pq.
package postgres

import (
	"context"
	"database/sql"

	"github.com/safar/go-shop/internal/database"
	"github.com/safar/go-shop/internal/store"
)

type Store struct {
	db     *sql.DB
	txOpts database.TxOptions
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		txOpts: database.SerializableTxOptions(),
	}
}

// WithinTx runs fn in a serializable transaction, retrying on
// serialization and deadlock failures.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		return fn(&txn{tx: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
