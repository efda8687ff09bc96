package httpserver

import (
	"context"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
)

// Deps carries the services the router needs. Each is an interface so
// handler tests can substitute stubs.
type Deps struct {
	AuthSvc     AuthService
	CatalogSvc  CatalogService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	OrderSvc    OrderService
}

type AuthService interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
}

type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in catalogsvc.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in catalogsvc.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, userID string, lines []domain.CartLine) (*checkoutsvc.CheckoutResult, error)
	ConfirmPayment(ctx context.Context, userID, orderID, remoteOrderID, remotePaymentID, signature string) (*domain.Order, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (checkoutsvc.WebhookOutcome, error)
}

type OrderService interface {
	History(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, session domain.Session, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Stats(ctx context.Context) (*ordersvc.Stats, error)
}
