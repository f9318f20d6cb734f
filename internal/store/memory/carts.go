package memory

import (
	"context"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func (s *Store) GetCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneLines(s.carts[userID]), nil
}

func (s *Store) AddLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := mergeLine(s.carts[userID], productID, quantity)
	s.carts[userID] = lines

	return cloneLines(lines), nil
}

func mergeLine(lines []models.CartLine, productID int64, quantity int) []models.CartLine {
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			return lines
		}
	}
	return append(lines, models.CartLine{ProductID: productID, Quantity: quantity})
}

func (s *Store) SetQuantity(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return cloneLines(lines), nil
		}
	}

	return nil, store.ErrCartLineNotFound
}

func (s *Store) RemoveLine(ctx context.Context, userID, productID int64) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		delete(s.carts, userID)
	} else {
		s.carts[userID] = kept
	}

	return cloneLines(kept), nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}
