package memory

import (
	"context"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

// txn runs with Store.mu already held for writing. Each mutation records an
// inverse action; rollback replays them newest first.
type txn struct {
	s    *Store
	undo []func()
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txn) CartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return cloneLines(t.s.carts[userID]), nil
}

func (t *txn) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	product := *p
	return &product, nil
}

func (t *txn) AddCartLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	prev, had := t.s.carts[userID]
	lines := mergeLine(cloneLines(prev), productID, quantity)
	t.s.carts[userID] = lines

	t.undo = append(t.undo, func() {
		if had {
			t.s.carts[userID] = prev
		} else {
			delete(t.s.carts, userID)
		}
	})
	return cloneLines(lines), nil
}

func (t *txn) InsertOrder(ctx context.Context, order *models.Order) error {
	now := t.s.now()
	order.ID = t.s.nextOrderID.Add(1)
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := cloneOrder(order)
	t.s.orders[order.ID] = &stored
	t.s.orderIDs = append(t.s.orderIDs, order.ID)

	id := order.ID
	t.undo = append(t.undo, func() {
		delete(t.s.orders, id)
		t.s.orderIDs = t.s.orderIDs[:len(t.s.orderIDs)-1]
	})
	return nil
}

func (t *txn) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return store.ErrInvalidQuantity
	}
	p, ok := t.s.products[productID]
	if !ok {
		return store.ErrProductNotFound
	}
	if p.Stock < quantity {
		return store.ErrInsufficientStock
	}

	prevStock, prevUpdated := p.Stock, p.UpdatedAt
	p.Stock -= quantity
	p.UpdatedAt = t.s.now()

	t.undo = append(t.undo, func() {
		p.Stock = prevStock
		p.UpdatedAt = prevUpdated
	})
	return nil
}

func (t *txn) ClearCart(ctx context.Context, userID int64) error {
	prev, had := t.s.carts[userID]
	delete(t.s.carts, userID)

	t.undo = append(t.undo, func() {
		if had {
			t.s.carts[userID] = prev
		}
	})
	return nil
}
