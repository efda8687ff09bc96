package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment/razorpay"
	orderrepo "storefront/internal/repository/order"
)

// Currency is the only settlement currency the gateway contract uses.
const Currency = "INR"

// Service orchestrates checkout: stock reservation plus pending order
// in one transaction, remote order creation, then reconciliation via
// the synchronous confirmation or the asynchronous webhook, whichever
// arrives first.
type Service struct {
	orders   orderRepo
	products productRepo
	gateway  gateway
	carts    cartClearer
	logger   *zap.Logger
}

type orderRepo interface {
	Create(ctx context.Context, userID, currency string, lines []orderrepo.CreateLine) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*domain.Order, error)
	SetRemoteOrderID(ctx context.Context, id, remoteOrderID string) error
	MarkPaid(ctx context.Context, id, paymentRef string) error
	MarkFailed(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*razorpay.RemoteOrder, error)
	VerifyPaymentSignature(remoteOrderID, remotePaymentID, signature string) bool
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

func New(orders orderRepo, products productRepo, gw gateway, carts cartClearer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, products: products, gateway: gw, carts: carts, logger: logger}
}

// CheckoutResult is what the client needs to open the payment UI.
type CheckoutResult struct {
	OrderID     string                `json:"orderId"`
	RemoteOrder *razorpay.RemoteOrder `json:"razorpayOrder"`
	KeyID       string                `json:"keyId"`
}

// InitiateCheckout converts the cart lines into a PENDING order with
// stock reserved, then mints the remote order using the local order id
// as the receipt. Totals come from current product prices, never the
// client. A gateway failure after local creation fails the order and
// releases its stock rather than stranding it.
func (s *Service) InitiateCheckout(ctx context.Context, userID string, lines []domain.CartLine) (*CheckoutResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	createLines := make([]orderrepo.CreateLine, 0, len(lines))
	var total int64
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
		}
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, line.ProductID)
			}
			return nil, err
		}
		createLines = append(createLines, orderrepo.CreateLine{
			ProductID:      p.ID,
			Quantity:       line.Quantity,
			UnitPricePaise: p.PricePaise,
		})
		total += p.PricePaise * int64(line.Quantity)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", domain.ErrInvalidInput)
	}

	order, err := s.orders.Create(ctx, userID, Currency, createLines)
	if err != nil {
		return nil, err
	}

	remote, err := s.gateway.CreateOrder(ctx, order.TotalPaise, order.Currency, order.ID)
	if err != nil {
		// Release the reservation instead of leaving a stranded
		// PENDING order holding stock.
		if failErr := s.orders.MarkFailed(ctx, order.ID); failErr != nil {
			s.logger.Error("checkout: rollback after gateway failure",
				zap.String("order_id", order.ID),
				zap.Error(failErr),
			)
		}
		return nil, err
	}

	if err := s.orders.SetRemoteOrderID(ctx, order.ID, remote.ID); err != nil {
		s.logger.Error("checkout: store remote order id",
			zap.String("order_id", order.ID),
			zap.String("remote_order_id", remote.ID),
			zap.Error(err),
		)
	}

	if s.carts != nil {
		if err := s.carts.Clear(ctx, userID); err != nil {
			s.logger.Warn("checkout: clear cart", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		RemoteOrder: remote,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

// ConfirmPayment handles the synchronous client callback. The caller
// must own the order. An invalid signature fails the order and releases
// its stock.
func (s *Service) ConfirmPayment(ctx context.Context, userID, orderID, remoteOrderID, remotePaymentID, signature string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}

	if !s.gateway.VerifyPaymentSignature(remoteOrderID, remotePaymentID, signature) {
		s.logger.Warn("checkout: signature mismatch",
			zap.String("order_id", orderID),
			zap.String("remote_order_id", remoteOrderID),
		)
		if failErr := s.orders.MarkFailed(ctx, orderID); failErr != nil && !errors.Is(failErr, domain.ErrOrderStateConflict) {
			return nil, failErr
		}
		return nil, domain.ErrPaymentVerificationFailed
	}

	if err := s.orders.MarkPaid(ctx, orderID, remotePaymentID); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// WebhookOutcome tells the HTTP layer how to answer the provider.
type WebhookOutcome int

const (
	// WebhookProcessed covers handled, unmatched and unknown events:
	// anything the provider should not redeliver.
	WebhookProcessed WebhookOutcome = iota
	// WebhookRejected means the signature or payload failed validation
	// and no state was touched.
	WebhookRejected
)

// HandleWebhook verifies and applies an asynchronous delivery. The
// receipt (our order id) is the primary correlation key; the stored
// remote order id is the fallback for deliveries without one. Duplicate
// captured events land on the idempotent MarkPaid and report success.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookOutcome, error) {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		s.logger.Warn("webhook: invalid signature")
		return WebhookRejected, domain.ErrPaymentVerificationFailed
	}

	event, err := razorpay.ParseWebhookEvent(rawBody)
	if err != nil {
		s.logger.Warn("webhook: malformed payload", zap.Error(err))
		return WebhookRejected, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	captured, ok := event.(razorpay.PaymentCaptured)
	if !ok {
		return WebhookProcessed, nil
	}

	order, err := s.resolveOrder(ctx, captured)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unmatched events succeed so the provider stops retrying.
			s.logger.Warn("webhook: no matching order",
				zap.String("receipt", captured.Receipt),
				zap.String("remote_order_id", captured.RemoteOrderID),
			)
			return WebhookProcessed, nil
		}
		return WebhookProcessed, err
	}

	if err := s.orders.MarkPaid(ctx, order.ID, captured.PaymentID); err != nil {
		if errors.Is(err, domain.ErrOrderStateConflict) {
			s.logger.Warn("webhook: order already finalized",
				zap.String("order_id", order.ID),
				zap.String("payment_id", captured.PaymentID),
			)
			return WebhookProcessed, nil
		}
		return WebhookProcessed, err
	}
	s.logger.Info("webhook: order paid",
		zap.String("order_id", order.ID),
		zap.String("payment_id", captured.PaymentID),
	)
	return WebhookProcessed, nil
}

func (s *Service) resolveOrder(ctx context.Context, captured razorpay.PaymentCaptured) (*domain.Order, error) {
	if captured.Receipt != "" {
		order, err := s.orders.GetByID(ctx, captured.Receipt)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return order, err
		}
	}
	return s.orders.GetByRemoteOrderID(ctx, captured.RemoteOrderID)
}
