package order

import (
	"context"

	"storefront/internal/domain"
)

// CreateLine is one resolved cart line going into a new order. The unit
// price has already been read from the product row, never the client.
type CreateLine struct {
	ProductID      string
	Quantity       int
	UnitPricePaise int64
}

// StatusStats is one row of the grouped order aggregation.
type StatusStats struct {
	Status     domain.OrderStatus
	Count      int
	TotalPaise int64
}

// Repository persists orders and their status transitions. Create,
// MarkPaid and MarkFailed each run as a single atomic unit; the two
// mark operations are conditional updates so the confirm and webhook
// paths can race safely.
type Repository interface {
	// Create reserves stock for every line and inserts the order with
	// its items in one transaction. Any failed reservation aborts the
	// whole transaction and surfaces the offending product.
	Create(ctx context.Context, userID, currency string, lines []CreateLine) (*domain.Order, error)

	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)

	// SetRemoteOrderID records the provider's order id after the remote
	// order is minted.
	SetRemoteOrderID(ctx context.Context, id, remoteOrderID string) error

	// MarkPaid transitions PENDING -> PAID and stores the payment
	// reference. Calling it again with the same reference is a no-op;
	// a different reference or a FAILED order yields
	// domain.ErrOrderStateConflict.
	MarkPaid(ctx context.Context, id, paymentRef string) error

	// MarkFailed transitions PENDING -> FAILED and releases the
	// reserved stock of every line in the same transaction. Safe to
	// call more than once; the stock_restored flag makes the second
	// call a no-op.
	MarkFailed(ctx context.Context, id string) error

	StatsByStatus(ctx context.Context) ([]StatusStats, error)
}
