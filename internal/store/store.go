// Package store defines the persistence contracts shared by the memory and
// postgres backends.
package store

import (
	"context"

	"github.com/safar/go-shop/internal/models"
)

type Catalog interface {
	// ListProducts returns every product in insertion order.
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// CreateProduct assigns the id and timestamps and returns the stored record.
	CreateProduct(ctx context.Context, product models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	// DeleteProduct reports whether the product existed.
	DeleteProduct(ctx context.Context, id int64) (bool, error)
}

// Carts is keyed by the authenticated user id. A user without a cart has an
// empty one.
type Carts interface {
	GetCart(ctx context.Context, userID int64) ([]models.CartLine, error)
	// AddLine merges into an existing line for the product or appends one.
	AddLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error)
	// RemoveLine is a no-op when the line is absent.
	RemoveLine(ctx context.Context, userID, productID int64) ([]models.CartLine, error)
	ClearCart(ctx context.Context, userID int64) error
}

type Orders interface {
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// UpdateOrderStatus checks the transition table and writes atomically.
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
}

type Users interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Tx is the view of the store available inside WithinTx. Every effect made
// through it is discarded when the transaction function returns an error.
type Tx interface {
	CartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	// LockProduct reads a product and holds it until the transaction ends.
	LockProduct(ctx context.Context, id int64) (*models.Product, error)
	// AddCartLine merges like Carts.AddLine.
	AddCartLine(ctx context.Context, userID, productID int64, quantity int) ([]models.CartLine, error)
	// InsertOrder assigns the id and timestamps on order.
	InsertOrder(ctx context.Context, order *models.Order) error
	// DecrementStock fails with ErrInsufficientStock rather than going negative
	// and with ErrInvalidQuantity for a non-positive quantity.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	ClearCart(ctx context.Context, userID int64) error
}

type Store interface {
	Catalog
	Carts
	Orders
	Users

	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
