// Package seed loads the demo catalog into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func image(text string) string {
	return "https://via.placeholder.com/300x200?text=" + text
}

var demoProducts = []models.Product{
	{Name: "Laptop", Description: "High-performance laptop for professionals", Price: decimal.RequireFromString("999.99"), Category: "Electronics", Image: image("Laptop"), Stock: 10},
	{Name: "Smartphone", Description: "Latest model with advanced features", Price: decimal.RequireFromString("699.99"), Category: "Electronics", Image: image("Smartphone"), Stock: 15},
	{Name: "Headphones", Description: "Noise-cancelling wireless headphones", Price: decimal.RequireFromString("199.99"), Category: "Electronics", Image: image("Headphones"), Stock: 20},
	{Name: "Running Shoes", Description: "Comfortable shoes for running and sports", Price: decimal.RequireFromString("89.99"), Category: "Sports", Image: image("Running+Shoes"), Stock: 30},
	{Name: "Coffee Maker", Description: "Automatic coffee maker with timer", Price: decimal.RequireFromString("79.99"), Category: "Home", Image: image("Coffee+Maker"), Stock: 12},
	{Name: "Backpack", Description: "Durable backpack for travel", Price: decimal.RequireFromString("49.99"), Category: "Accessories", Image: image("Backpack"), Stock: 25},
	{Name: "Watch", Description: "Elegant wristwatch with leather strap", Price: decimal.RequireFromString("149.99"), Category: "Accessories", Image: image("Watch"), Stock: 8},
	{Name: "Desk Chair", Description: "Ergonomic office chair", Price: decimal.RequireFromString("249.99"), Category: "Furniture", Image: image("Desk+Chair"), Stock: 5},
	{Name: "Bluetooth Speaker", Description: "Portable speaker with great sound", Price: decimal.RequireFromString("59.99"), Category: "Electronics", Image: image("Bluetooth+Speaker"), Stock: 18},
	{Name: "Water Bottle", Description: "Insulated stainless steel water bottle", Price: decimal.RequireFromString("24.99"), Category: "Sports", Image: image("Water+Bottle"), Stock: 40},
}

// Catalog inserts the demo products in order when the catalog is empty and
// reports how many were created.
func Catalog(ctx context.Context, catalog store.Catalog, logger *slog.Logger) (int, error) {
	existing, err := catalog.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		logger.DebugContext(ctx, "catalog already populated, skipping seed", "products", len(existing))
		return 0, nil
	}

	for i, p := range demoProducts {
		if _, err := catalog.CreateProduct(ctx, p); err != nil {
			return i, fmt.Errorf("seed %q: %w", p.Name, err)
		}
	}

	logger.InfoContext(ctx, "catalog seeded", "products", len(demoProducts))
	return len(demoProducts), nil
}
