package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists products and owns every stock mutation. Stock is
// only ever changed through Reserve/Release so concurrent checkouts
// cannot race a read-then-write.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error

	// Reserve decrements stock by qty iff stock >= qty, as a single
	// conditional update. Fails with *domain.InsufficientStockError
	// otherwise, or domain.ErrNotFound for an unknown product.
	Reserve(ctx context.Context, productID string, qty int) error
	// Release increments stock by qty. No upper bound is enforced.
	Release(ctx context.Context, productID string, qty int) error

	// CountOrderRefs reports how many order items reference the product.
	CountOrderRefs(ctx context.Context, productID string) (int, error)
}
