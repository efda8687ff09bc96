package catalog

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// Service exposes the public catalog reads and the admin-gated product
// CRUD. Role checks happen at the HTTP layer; this service assumes the
// caller is already authorized for mutations.
type Service struct {
	repo productRepo
}

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	CountOrderRefs(ctx context.Context, productID string) (int, error)
}

func New(repo productRepo) *Service {
	return &Service{repo: repo}
}

type ProductInput struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	PricePaise  int64    `json:"pricePaise"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Slug) == "" {
		return fmt.Errorf("%w: slug required", domain.ErrInvalidInput)
	}
	if in.PricePaise < 0 {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.Product{
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		PricePaise:  in.PricePaise,
		Stock:       in.Stock,
		Images:      in.Images,
	})
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, domain.Product{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		PricePaise:  in.PricePaise,
		Stock:       in.Stock,
		Images:      in.Images,
	})
}

// Delete removes a product unless an order item still references it.
// Historical orders keep their price snapshots, so a referenced product
// must stay.
func (s *Service) Delete(ctx context.Context, id string) error {
	refs, err := s.repo.CountOrderRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d order item(s)", domain.ErrInUseConflict, refs)
	}
	return s.repo.Delete(ctx, id)
}
