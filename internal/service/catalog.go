// Package service holds the business rules that sit between the HTTP
// handlers and the stores.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

const PlaceholderImage = "https://via.placeholder.com/300x200?text=Product"

// MaxQuantity bounds stock levels and cart quantities. It matches the
// INTEGER columns of the postgres schema.
const MaxQuantity = math.MaxInt32

type Catalog struct {
	products store.Catalog
	logger   *slog.Logger
}

func NewCatalog(products store.Catalog, logger *slog.Logger) *Catalog {
	return &Catalog{products: products, logger: logger}
}

func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	return c.products.ListProducts(ctx)
}

func (c *Catalog) Get(ctx context.Context, id int64) (*models.Product, error) {
	return c.products.GetProduct(ctx, id)
}

// Create requires name and price. Missing stock is 0, missing image is the
// placeholder.
func (c *Catalog) Create(ctx context.Context, in models.ProductPatch) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "name and price are required")
	}
	if in.Price == nil {
		return nil, invalid("price", "name and price are required")
	}
	if err := validatePatch(in); err != nil {
		return nil, err
	}

	product := models.Product{Image: PlaceholderImage}
	in.Apply(&product)
	product.Name = strings.TrimSpace(product.Name)
	if product.Image == "" {
		product.Image = PlaceholderImage
	}

	created, err := c.products.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "product created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

func (c *Catalog) Update(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "name cannot be empty")
		}
		patch.Name = &name
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	return c.products.UpdateProduct(ctx, id, patch)
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	existed, err := c.products.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return store.ErrProductNotFound
	}

	c.logger.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func validatePatch(p models.ProductPatch) error {
	if p.Price != nil {
		if !p.Price.IsPositive() {
			return invalid("price", "price must be greater than zero")
		}
		if !p.Price.Equal(p.Price.Round(2)) {
			return invalid("price", "price must have at most two decimal places")
		}
	}
	if p.Stock != nil {
		if *p.Stock < 0 {
			return invalid("stock", "stock cannot be negative")
		}
		if *p.Stock > MaxQuantity {
			return invalid("stock", fmt.Sprintf("stock cannot exceed %d", MaxQuantity))
		}
	}
	return nil
}

// lineTotal is price × quantity, kept at cent precision.
func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
