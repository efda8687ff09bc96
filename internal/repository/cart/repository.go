package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores the per-user cart. Load returns nil (no error) when
// the user has no cart yet.
type Repository interface {
	Load(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
