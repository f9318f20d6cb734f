package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

type txn struct {
	tx *sql.Tx
}

func (t *txn) CartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return cartLines(ctx, t.tx, userID)
}

func (t *txn) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	return getProduct(ctx, t.tx, id, " FOR UPDATE")
}

func (t *txn) AddCartLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	return addCartLine(ctx, t.tx, userID, productID, quantity)
}

func (t *txn) InsertOrder(ctx context.Context, order *models.Order) error {
	return insertOrder(ctx, t.tx, order)
}

// DecrementStock only touches the row when enough stock remains, so a
// concurrent writer can never drive it below zero.
func (t *txn) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return store.ErrInvalidQuantity
	}
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := getProduct(ctx, t.tx, productID, ""); err != nil {
			return err
		}
		return store.ErrInsufficientStock
	}

	return nil
}

func (t *txn) ClearCart(ctx context.Context, userID int64) error {
	return clearCart(ctx, t.tx, userID)
}
