package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type productSeed struct {
	Title       string
	Slug        string
	Description string
	PricePaise  int64
	Stock       int
	Images      []string
}

// Apply inserts sample catalog data and an admin account for manual
// testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Title:       "Classic White T-Shirt",
			Slug:        "classic-white-tshirt",
			Description: "Soft cotton white t-shirt for daily wear.",
			PricePaise:  49900,
			Stock:       50,
			Images: []string{
				"https://images.pexels.com/photos/26755185/pexels-photo-26755185.jpeg",
			},
		},
		{
			Title:       "Blue Denim Jeans",
			Slug:        "blue-denim-jeans",
			Description: "Comfort-fit denim jeans with stretch.",
			PricePaise:  129900,
			Stock:       30,
			Images: []string{
				"https://images.pexels.com/photos/26755185/pexels-photo-26755185.jpeg",
			},
		},
		{
			Title:       "Running Shoes",
			Slug:        "running-shoes",
			Description: "Lightweight shoes suitable for running and training.",
			PricePaise:  249900,
			Stock:       20,
			Images: []string{
				"https://images.pexels.com/photos/26755185/pexels-photo-26755185.jpeg",
			},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}

	if err := ensureAdmin(ctx, pool, "admin@storefront.local", "changeme-admin"); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (title, slug, description, price_paise, stock, images)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (slug) DO UPDATE
SET title = EXCLUDED.title,
    description = EXCLUDED.description,
    price_paise = EXCLUDED.price_paise,
    stock = EXCLUDED.stock,
    images = EXCLUDED.images
`
	_, err := pool.Exec(ctx, q, p.Title, p.Slug, p.Description, p.PricePaise, p.Stock, p.Images)
	return err
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (email, name, password_hash, role)
VALUES ($1, 'Admin', $2, 'ADMIN')
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, email, string(hashed))
	return err
}
