// Package memory is the default, process-owned store. State is lost on
// restart.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

// Store guards all state with one RWMutex. Transactions hold the write lock
// for their whole duration.
type Store struct {
	mu sync.RWMutex

	products map[int64]*models.Product
	carts    map[int64][]models.CartLine
	orders   map[int64]*models.Order
	orderIDs []int64 // placement order
	users    map[int64]*models.User
	emails   map[string]int64

	nextProductID atomic.Int64
	nextOrderID   atomic.Int64
	nextUserID    atomic.Int64

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[int64]*models.Product),
		carts:    make(map[int64][]models.CartLine),
		orders:   make(map[int64]*models.Order),
		users:    make(map[int64]*models.User),
		emails:   make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx runs fn under the write lock. If fn fails or panics, every
// change it made is undone in reverse order before the lock is released.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{s: s}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	committed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func cloneOrder(o *models.Order) models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return c
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
