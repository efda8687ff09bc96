package cart

import (
	"context"
	"errors"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// Service maintains the per-user cart. Quantities only move by one per
// call, mirroring the add/remove buttons of the storefront; lines at
// quantity zero are removed rather than stored.
type Service struct {
	repo     cartrepo.Repository
	products productRepo
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart, empty rather than nil when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &domain.Cart{UserID: userID}
	}
	return c, nil
}

// AddItem increments the quantity for productID by one, creating the
// line if needed. The product must exist.
func (s *Service) AddItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := c.FindLine(productID); i >= 0 {
		c.Lines[i].Quantity++
	} else {
		c.Lines = append(c.Lines, domain.CartLine{ProductID: productID, Quantity: 1})
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem decrements the quantity for productID by one, dropping the
// line at zero. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.FindLine(productID)
	if i < 0 {
		return c, nil
	}
	if c.Lines[i].Quantity > 1 {
		c.Lines[i].Quantity--
	} else {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear drops the cart entirely, used after a checkout converts it.
func (s *Service) Clear(ctx context.Context, userID string) error {
	err := s.repo.Delete(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
