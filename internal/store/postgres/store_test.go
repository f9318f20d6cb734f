package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"

	"github.com/safar/go-shop/internal/database"
	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.Migrate(db, database.Up))

	return db
}

func newProduct(t *testing.T, s *Store, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Test",
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func TestPostgresStore(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)
	ctx := context.Background()

	t.Run("catalog round trip", func(t *testing.T) {
		p := newProduct(t, s, "Laptop", "999.99", 10)
		assert.NotZero(t, p.ID)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("999.99")))

		stock := 0
		updated, err := s.UpdateProduct(ctx, p.ID, models.ProductPatch{Stock: &stock})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Stock)
		assert.Equal(t, "Laptop", updated.Name)

		existed, err := s.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, existed)

		_, err = s.GetProduct(ctx, p.ID)
		assert.ErrorIs(t, err, store.ErrProductNotFound)
	})

	t.Run("cart lines merge and keep order", func(t *testing.T) {
		a := newProduct(t, s, "A", "1.00", 5)
		b := newProduct(t, s, "B", "2.00", 5)

		_, err := s.AddLine(ctx, 100, b.ID, 1)
		require.NoError(t, err)
		_, err = s.AddLine(ctx, 100, a.ID, 1)
		require.NoError(t, err)
		lines, err := s.AddLine(ctx, 100, b.ID, 2)
		require.NoError(t, err)

		require.Len(t, lines, 2)
		assert.Equal(t, models.CartLine{ProductID: b.ID, Quantity: 3}, lines[0])
		assert.Equal(t, models.CartLine{ProductID: a.ID, Quantity: 1}, lines[1])

		_, err = s.SetQuantity(ctx, 100, 9999, 1)
		assert.ErrorIs(t, err, store.ErrCartLineNotFound)

		lines, err = s.RemoveLine(ctx, 100, b.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 1)

		require.NoError(t, s.ClearCart(ctx, 100))
		lines, err = s.GetCart(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("users reject duplicate email", func(t *testing.T) {
		u, err := s.CreateUser(ctx, "Ann@Example.com", "Ann", "hash")
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, "ann@example.com", "Other", "hash")
		assert.ErrorIs(t, err, store.ErrEmailTaken)

		got, err := s.GetUserByEmail(ctx, "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.GetUser(ctx, 424242)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		p := newProduct(t, s, "Rollback", "5.00", 3)
		_, err := s.AddLine(ctx, 200, p.ID, 1)
		require.NoError(t, err)

		boom := errors.New("boom")
		err = s.WithinTx(ctx, func(tx store.Tx) error {
			lines, err := tx.AddCartLine(ctx, 200, p.ID, 2)
			require.NoError(t, err)
			assert.Equal(t, []models.CartLine{{ProductID: p.ID, Quantity: 3}}, lines)

			assert.ErrorIs(t, tx.DecrementStock(ctx, p.ID, 0), store.ErrInvalidQuantity)
			require.NoError(t, tx.DecrementStock(ctx, p.ID, 2))
			require.NoError(t, tx.ClearCart(ctx, 200))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		lines, err := s.GetCart(ctx, 200)
		require.NoError(t, err)
		assert.Equal(t, []models.CartLine{{ProductID: p.ID, Quantity: 1}}, lines)
	})

	t.Run("order insert and status transitions", func(t *testing.T) {
		order := &models.Order{
			OrderNumber:     "ORD-test-1",
			UserID:          300,
			TotalAmount:     decimal.RequireFromString("1999.98"),
			ShippingAddress: "1 Main St",
			PaymentMethod:   "Cash on Delivery",
			Status:          models.OrderStatusPending,
			Items: []models.OrderItem{{
				ProductID:   1,
				ProductName: "Laptop",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("999.99"),
				LineTotal:   decimal.RequireFromString("1999.98"),
			}},
		}
		require.NoError(t, s.WithinTx(ctx, func(tx store.Tx) error {
			return tx.InsertOrder(ctx, order)
		}))
		assert.NotZero(t, order.ID)

		got, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("1999.98")))

		updated, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, updated.Status)

		_, err = s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending)
		assert.ErrorIs(t, err, store.ErrInvalidTransition)

		orders, err := s.ListOrders(ctx, 300)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		_, err = s.GetOrder(ctx, 999999)
		assert.ErrorIs(t, err, store.ErrOrderNotFound)
	})

	t.Run("concurrent decrements never oversell", func(t *testing.T) {
		p := newProduct(t, s, "Scarce", "10.00", 5)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.WithinTx(ctx, func(tx store.Tx) error {
					return tx.DecrementStock(ctx, p.ID, 1)
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Stock, 0)
		assert.LessOrEqual(t, succeeded, 5)
		assert.Equal(t, 5, got.Stock+succeeded)
	})
}
