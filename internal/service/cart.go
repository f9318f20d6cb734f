package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

type CartStore interface {
	store.Carts
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	WithinTx(ctx context.Context, fn func(tx store.Tx) error) error
}

type Cart struct {
	store  CartStore
	logger *slog.Logger
}

func NewCart(s CartStore, logger *slog.Logger) *Cart {
	return &Cart{store: s, logger: logger}
}

// CartItem is a cart line joined with the current product record. Product
// is nil when the product has since been deleted.
type CartItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product"`
}

type CartView struct {
	Items []CartItem
	Total decimal.Decimal
}

// View prices every line at the current catalog price. Lines whose product
// is gone count as zero.
func (c *Cart) View(ctx context.Context, userID int64) (*CartView, error) {
	lines, err := c.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: make([]CartItem, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		item := CartItem{ProductID: line.ProductID, Quantity: line.Quantity}

		product, err := c.store.GetProduct(ctx, line.ProductID)
		switch {
		case err == nil:
			item.Product = product
			view.Total = view.Total.Add(lineTotal(product.Price, line.Quantity))
		case errors.Is(err, store.ErrProductNotFound):
		default:
			return nil, err
		}

		view.Items = append(view.Items, item)
	}

	return view, nil
}

// Add merges into an existing line. The merged quantity must fit the
// product's current stock; the check and the merge share one transaction.
func (c *Cart) Add(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	if productID <= 0 || quantity <= 0 {
		return nil, invalid("", "product ID and quantity are required")
	}
	if quantity > MaxQuantity {
		return nil, invalid("quantity", fmt.Sprintf("quantity cannot exceed %d", MaxQuantity))
	}

	var lines []models.CartLine
	err := c.store.WithinTx(ctx, func(tx store.Tx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		current, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		inCart := 0
		if line, ok := findLine(current, productID); ok {
			inCart = line.Quantity
		}
		if err := checkStock(product, inCart, quantity); err != nil {
			return err
		}

		lines, err = tx.AddCartLine(ctx, userID, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// Update sets a line's quantity. Zero removes the line.
func (c *Cart) Update(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error) {
	if productID <= 0 {
		return nil, invalid("productId", "product ID and quantity are required")
	}
	if quantity < 0 {
		return nil, invalid("quantity", "quantity cannot be negative")
	}
	if quantity > MaxQuantity {
		return nil, invalid("quantity", fmt.Sprintf("quantity cannot exceed %d", MaxQuantity))
	}

	lines, err := c.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := findLine(lines, productID); !ok {
		return nil, store.ErrCartLineNotFound
	}

	if quantity == 0 {
		return c.store.RemoveLine(ctx, userID, productID)
	}

	product, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, 0, quantity); err != nil {
		return nil, err
	}

	return c.store.SetQuantity(ctx, userID, productID, quantity)
}

func (c *Cart) Remove(ctx context.Context, userID, productID int64) ([]models.CartLine, error) {
	return c.store.RemoveLine(ctx, userID, productID)
}

func (c *Cart) Clear(ctx context.Context, userID int64) ([]models.CartLine, error) {
	if err := c.store.ClearCart(ctx, userID); err != nil {
		return nil, err
	}
	return []models.CartLine{}, nil
}

func findLine(lines []models.CartLine, productID int64) (models.CartLine, bool) {
	for _, line := range lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return models.CartLine{}, false
}

// checkStock fails unless quantity more units fit beside the inCart units
// already held. Subtracting keeps large quantities from wrapping.
func checkStock(product *models.Product, inCart, quantity int) error {
	if quantity <= product.Stock-inCart {
		return nil
	}
	return &ValidationError{
		Field:   "quantity",
		Message: "insufficient stock",
		Err: &store.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   inCart + quantity,
			Available:   product.Stock,
		},
	}
}
