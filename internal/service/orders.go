package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

const DefaultPaymentMethod = "Cash on Delivery"

type OrderStore interface {
	store.Orders
	WithinTx(ctx context.Context, fn func(tx store.Tx) error) error
}

type Orders struct {
	store  OrderStore
	logger *slog.Logger

	newOrderNumber func() string
}

func NewOrders(s OrderStore, logger *slog.Logger) *Orders {
	return &Orders{
		store:  s,
		logger: logger,
		newOrderNumber: func() string {
			return "ORD-" + uuid.NewString()
		},
	}
}

type PlaceOrderInput struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

// Place turns the user's cart into a pending order. Stock is checked and
// decremented and the cart is cleared in the same transaction; on any
// failure nothing is written.
func (o *Orders) Place(ctx context.Context, userID int64, in PlaceOrderInput) (*models.Order, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, invalid("shippingAddress", "shipping address is required")
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}

	var order *models.Order
	err := o.store.WithinTx(ctx, func(tx store.Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return store.ErrEmptyCart
		}
		for _, line := range lines {
			if line.Quantity <= 0 {
				return &ValidationError{
					Field:   "quantity",
					Message: fmt.Sprintf("cart line for product %d has no positive quantity", line.ProductID),
					Err:     store.ErrInvalidQuantity,
				}
			}
		}

		// Lock in ascending id order so concurrent placements cannot deadlock.
		locked := make([]models.CartLine, len(lines))
		copy(locked, lines)
		sort.Slice(locked, func(i, j int) bool { return locked[i].ProductID < locked[j].ProductID })

		products := make(map[int64]*models.Product, len(locked))
		for _, line := range locked {
			product, err := tx.LockProduct(ctx, line.ProductID)
			if errors.Is(err, store.ErrProductNotFound) {
				return fmt.Errorf("%w: product %d: %w", ErrProductUnavailable, line.ProductID, err)
			}
			if err != nil {
				return err
			}
			products[line.ProductID] = product
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			product := products[line.ProductID]
			if product.Stock < line.Quantity {
				return &store.StockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.Stock,
				}
			}

			item := models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal(product.Price, line.Quantity),
			}
			total = total.Add(item.LineTotal)
			items = append(items, item)
		}

		candidate := &models.Order{
			OrderNumber:     o.newOrderNumber(),
			UserID:          userID,
			Items:           items,
			TotalAmount:     total,
			ShippingAddress: address,
			PaymentMethod:   payment,
			Status:          models.OrderStatusPending,
		}
		if err := tx.InsertOrder(ctx, candidate); err != nil {
			return err
		}

		for _, line := range locked {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("product %d: %w", line.ProductID, err)
			}
		}

		if err := tx.ClearCart(ctx, userID); err != nil {
			return err
		}

		order = candidate
		return nil
	})
	if err != nil {
		o.logger.WarnContext(ctx, "order placement failed", "user_id", userID, "error", err)
		return nil, err
	}

	o.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.TotalAmount.StringFixed(2),
	)
	return order, nil
}

func (o *Orders) List(ctx context.Context, userID int64) ([]models.Order, error) {
	return o.store.ListOrders(ctx, userID)
}

// Get returns ErrForbidden when the order belongs to another user.
func (o *Orders) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := o.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (o *Orders) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if status == "" {
		return nil, invalid("status", "status is required")
	}
	next := models.OrderStatus(status)
	if !next.Valid() {
		return nil, invalid("status", "invalid status")
	}

	order, err := o.store.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		o.logger.WarnContext(ctx, "order status update rejected",
			"order_id", orderID, "status", status, "error", err)
		return nil, err
	}

	o.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "status", status)
	return order, nil
}
