package memory

import (
	"context"
	"sort"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

// Ids are allocated monotonically, so id order is insertion order.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	product := *p
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product.ID = s.nextProductID.Add(1)
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := product
	s.products[product.ID] = &stored

	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}

	patch.Apply(p)
	p.UpdatedAt = s.now()

	product := *p
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}
