package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func createProduct(t *testing.T, s *Store, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func TestProducts_CreateAssignsSequentialIDs(t *testing.T) {
	s := New()

	first := createProduct(t, s, "Laptop", "999.99", 10)
	second := createProduct(t, s, "Smartphone", "699.99", 15)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop", products[0].Name)
	assert.Equal(t, "Smartphone", products[1].Name)
}

func TestProducts_UpdateMergesPresentFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)

	zero := 0
	name := "Laptop Pro"
	updated, err := s.UpdateProduct(ctx, p.ID, models.ProductPatch{Name: &name, Stock: &zero})
	require.NoError(t, err)

	assert.Equal(t, "Laptop Pro", updated.Name)
	assert.Equal(t, 0, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("999.99")))

	_, err = s.UpdateProduct(ctx, 999, models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}

func TestProducts_GetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	got.Stock = 0

	again, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Stock)
}

func TestProducts_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)

	existed, err := s.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}

func TestCart_EmptyOnFirstAccess(t *testing.T) {
	s := New()

	lines, err := s.GetCart(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestCart_AddMergesQuantities(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AddLine(ctx, 1, 1, 3)
	require.NoError(t, err)
	lines, err := s.AddLine(ctx, 1, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 5}}, lines)
}

func TestCart_AddMergeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New()
		ctx := context.Background()

		productIDs := rapid.SliceOfN(rapid.Int64Range(1, 5), 1, 30).Draw(rt, "productIDs")
		want := make(map[int64]int)
		var order []int64

		for i, id := range productIDs {
			qty := rapid.IntRange(1, 20).Draw(rt, "qty")
			if _, seen := want[id]; !seen {
				order = append(order, id)
			}
			want[id] += qty

			lines, err := s.AddLine(ctx, 7, id, qty)
			if err != nil {
				rt.Fatalf("add %d: %v", i, err)
			}
			if len(lines) != len(want) {
				rt.Fatalf("expected %d distinct lines, got %d", len(want), len(lines))
			}
		}

		lines, _ := s.GetCart(ctx, 7)
		for i, line := range lines {
			if line.ProductID != order[i] {
				rt.Fatalf("line %d: expected product %d, got %d", i, order[i], line.ProductID)
			}
			if line.Quantity != want[line.ProductID] {
				rt.Fatalf("product %d: expected quantity %d, got %d", line.ProductID, want[line.ProductID], line.Quantity)
			}
		}
	})
}

func TestCart_SetQuantity(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.SetQuantity(ctx, 1, 1, 4)
	assert.ErrorIs(t, err, store.ErrCartLineNotFound)

	_, err = s.AddLine(ctx, 1, 1, 1)
	require.NoError(t, err)

	lines, err := s.SetQuantity(ctx, 1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestCart_RemoveAndClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, _ = s.AddLine(ctx, 1, 1, 1)
	_, _ = s.AddLine(ctx, 1, 2, 1)

	lines, err := s.RemoveLine(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: 2, Quantity: 1}}, lines)

	lines, err = s.RemoveLine(ctx, 1, 99)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, s.ClearCart(ctx, 1))
	lines, _ = s.GetCart(ctx, 1)
	assert.Empty(t, lines)
}

func TestCart_UsersAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, _ = s.AddLine(ctx, 1, 1, 1)
	lines, _ := s.GetCart(ctx, 2)
	assert.Empty(t, lines)
}

func TestCart_ConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddLine(ctx, 1, 1, 1)
		}()
	}
	wg.Wait()

	lines, _ := s.GetCart(ctx, 1)
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)
	_, _ = s.AddLine(ctx, 1, p.ID, 2)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.InsertOrder(ctx, &models.Order{UserID: 1, Status: models.OrderStatusPending}))
		require.NoError(t, tx.DecrementStock(ctx, p.ID, 2))
		require.NoError(t, tx.ClearCart(ctx, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	product, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, 10, product.Stock)

	lines, _ := s.GetCart(ctx, 1)
	assert.Equal(t, []models.CartLine{{ProductID: p.ID, Quantity: 2}}, lines)

	orders, _ := s.ListOrders(ctx, 1)
	assert.Empty(t, orders)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(tx store.Tx) error {
			_ = tx.DecrementStock(ctx, p.ID, 4)
			panic("unexpected")
		})
	})

	product, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, 10, product.Stock)

	// the lock must have been released
	_, err := s.AddLine(ctx, 1, p.ID, 1)
	assert.NoError(t, err)
}

func TestWithinTx_DecrementNeverGoesNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 1)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.DecrementStock(ctx, p.ID, 2)
	})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
}

func TestWithinTx_DecrementRejectsNonPositiveQuantity(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := createProduct(t, s, "Laptop", "999.99", 10)

	for _, qty := range []int{0, -1, math.MinInt} {
		err := s.WithinTx(ctx, func(tx store.Tx) error {
			return tx.DecrementStock(ctx, p.ID, qty)
		})
		assert.ErrorIs(t, err, store.ErrInvalidQuantity, "quantity %d", qty)
	}

	product, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, 10, product.Stock)
}

func TestWithinTx_AddCartLineRollsBack(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.AddLine(ctx, 1, 1, 2)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx store.Tx) error {
		lines, err := tx.AddCartLine(ctx, 1, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 5}}, lines)

		_, err = tx.AddCartLine(ctx, 2, 1, 1)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	lines, _ := s.GetCart(ctx, 1)
	assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 2}}, lines)

	lines, _ = s.GetCart(ctx, 2)
	assert.Empty(t, lines)
}

func TestWithinTx_CanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOrders_StatusTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	order := &models.Order{UserID: 1, Status: models.OrderStatusPending}
	require.NoError(t, s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertOrder(ctx, order)
	}))

	updated, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	_, err = s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = s.UpdateOrderStatus(ctx, 999, models.OrderStatusShipped)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestOrders_ListFiltersByUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(tx store.Tx) error {
		for _, userID := range []int64{1, 2, 1} {
			if err := tx.InsertOrder(ctx, &models.Order{UserID: userID, Status: models.OrderStatusPending}); err != nil {
				return err
			}
		}
		return nil
	}))

	orders, err := s.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Less(t, orders[0].ID, orders[1].ID)

	none, err := s.ListOrders(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "ada@example.com", "Ada", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = s.CreateUser(ctx, "ADA@example.com", "Ada again", "hash")
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	found, err := s.GetUserByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
