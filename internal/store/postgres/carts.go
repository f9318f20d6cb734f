package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop/internal/database"
	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func (s *Store) GetCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return cartLines(ctx, s.db, userID)
}

func cartLines(ctx context.Context, q queryer, userID int64) ([]models.CartLine, error) {
	query := `
		SELECT product_id, quantity
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY position`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]models.CartLine, 0)
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

func (s *Store) AddLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	var lines []models.CartLine

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		lines, err = addCartLine(ctx, tx, userID, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

func addCartLine(ctx context.Context, q queryer, userID, productID int64, quantity int) ([]models.CartLine, error) {
	query := `
		INSERT INTO cart_lines (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`

	if _, err := q.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}

	return cartLines(ctx, q, userID)
}

func (s *Store) SetQuantity(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	var lines []models.CartLine

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE cart_lines SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
			userID, productID, quantity)
		if err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return store.ErrCartLineNotFound
		}

		lines, err = cartLines(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

func (s *Store) RemoveLine(ctx context.Context, userID, productID int64) ([]models.CartLine, error) {
	var lines []models.CartLine

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`,
			userID, productID)
		if err != nil {
			return fmt.Errorf("delete cart line: %w", err)
		}

		lines, err = cartLines(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	return clearCart(ctx, s.db, userID)
}

func clearCart(ctx context.Context, q queryer, userID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
