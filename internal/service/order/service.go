package order

import (
	"context"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

// Service serves order history for users and order listings/stats for
// the admin console.
type Service struct {
	repo repo
}

type repo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	StatsByStatus(ctx context.Context) ([]orderrepo.StatusStats, error)
}

func New(r repo) *Service {
	return &Service{repo: r}
}

// History lists the caller's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one order. Non-owners get ErrNotFound rather than a
// hint the order exists; admins may read any order.
func (s *Service) Get(ctx context.Context, session domain.Session, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != session.UserID && !session.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListAll is the admin order listing.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// Stats summarizes orders grouped by status.
type Stats struct {
	TotalOrders  int   `json:"totalOrders"`
	RevenuePaise int64 `json:"revenuePaise"`
	PaidOrders   int   `json:"paidOrders"`
	FailedOrders int   `json:"failedOrders"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.repo.StatsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var out Stats
	for _, row := range rows {
		out.TotalOrders += row.Count
		out.RevenuePaise += row.TotalPaise
		switch row.Status {
		case domain.OrderPaid:
			out.PaidOrders = row.Count
		case domain.OrderFailed:
			out.FailedOrders = row.Count
		}
	}
	return &out, nil
}
