package memory

import (
	"context"
	"fmt"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func (s *Store) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, id := range s.orderIDs {
		if o := s.orders[id]; o.UserID == userID {
			orders = append(orders, cloneOrder(o))
		}
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	order := cloneOrder(o)
	return &order, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, o.Status, status)
	}

	o.Status = status
	o.UpdatedAt = s.now()

	order := cloneOrder(o)
	return &order, nil
}
