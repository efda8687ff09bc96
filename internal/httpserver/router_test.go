package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
)

type stubAuthService struct {
	sessions map[string]domain.Session
}

func (s *stubAuthService) Signup(_ context.Context, in authsvc.SignupInput) (*domain.User, error) {
	return &domain.User{ID: "user-new", Email: in.Email, Role: domain.RoleUser}, nil
}

func (s *stubAuthService) Login(_ context.Context, email, _ string) (*domain.User, string, error) {
	return &domain.User{ID: "user-1", Email: email, Role: domain.RoleUser}, "token-user", nil
}

func (s *stubAuthService) CurrentSession(_ context.Context, token string) (*domain.Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &sess, nil
}

func (s *stubAuthService) Logout(_ context.Context, _ string) error { return nil }

type stubCatalogService struct {
	products map[string]*domain.Product
}

func (s *stubCatalogService) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalogService) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubCatalogService) Create(_ context.Context, in catalogsvc.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: "prod-new", Title: in.Title, Slug: in.Slug, PricePaise: in.PricePaise, Stock: in.Stock}, nil
}

func (s *stubCatalogService) Update(_ context.Context, id string, in catalogsvc.ProductInput) (*domain.Product, error) {
	if _, ok := s.products[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Product{ID: id, Title: in.Title}, nil
}

func (s *stubCatalogService) Delete(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

type stubCartService struct {
	carts map[string]*domain.Cart
}

func (s *stubCartService) Get(_ context.Context, userID string) (*domain.Cart, error) {
	if c, ok := s.carts[userID]; ok {
		return c, nil
	}
	return &domain.Cart{UserID: userID}, nil
}

func (s *stubCartService) AddItem(_ context.Context, userID, productID string) (*domain.Cart, error) {
	if productID == "ghost" {
		return nil, domain.ErrNotFound
	}
	return &domain.Cart{UserID: userID, Lines: []domain.CartLine{{ProductID: productID, Quantity: 1}}}, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, userID, _ string) (*domain.Cart, error) {
	return &domain.Cart{UserID: userID}, nil
}

type stubCheckoutService struct {
	initiateResult *checkoutsvc.CheckoutResult
	initiateErr    error
	confirmOrder   *domain.Order
	confirmErr     error
	webhookOutcome checkoutsvc.WebhookOutcome
	webhookErr     error
	webhookBody    []byte
	webhookSig     string
}

func (s *stubCheckoutService) InitiateCheckout(_ context.Context, _ string, _ []domain.CartLine) (*checkoutsvc.CheckoutResult, error) {
	return s.initiateResult, s.initiateErr
}

func (s *stubCheckoutService) ConfirmPayment(_ context.Context, _, _, _, _, _ string) (*domain.Order, error) {
	return s.confirmOrder, s.confirmErr
}

func (s *stubCheckoutService) HandleWebhook(_ context.Context, rawBody []byte, signature string) (checkoutsvc.WebhookOutcome, error) {
	s.webhookBody = rawBody
	s.webhookSig = signature
	return s.webhookOutcome, s.webhookErr
}

type stubOrderService struct {
	orders map[string]*domain.Order
}

func (s *stubOrderService) History(_ context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrderService) Get(_ context.Context, session domain.Session, orderID string) (*domain.Order, error) {
	o, ok := s.orders[orderID]
	if !ok || (o.UserID != session.UserID && !session.IsAdmin()) {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *stubOrderService) ListAll(_ context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrderService) Stats(_ context.Context) (*ordersvc.Stats, error) {
	return &ordersvc.Stats{TotalOrders: 3, RevenuePaise: 100000, PaidOrders: 2, FailedOrders: 1}, nil
}

func testDeps() (Deps, *stubCheckoutService) {
	checkout := &stubCheckoutService{
		initiateResult: &checkoutsvc.CheckoutResult{OrderID: "order-1", KeyID: "key_test"},
	}
	deps := Deps{
		AuthSvc: &stubAuthService{sessions: map[string]domain.Session{
			"token-user":  {UserID: "user-1", Role: domain.RoleUser},
			"token-admin": {UserID: "admin-1", Role: domain.RoleAdmin},
		}},
		CatalogSvc: &stubCatalogService{products: map[string]*domain.Product{
			"p1": {ID: "p1", Title: "Headphones", Slug: "headphones", PricePaise: 49900, Stock: 5},
		}},
		CartSvc:     &stubCartService{carts: map[string]*domain.Cart{}},
		CheckoutSvc: checkout,
		OrderSvc: &stubOrderService{orders: map[string]*domain.Order{
			"order-1": {ID: "order-1", UserID: "user-1", Status: domain.OrderPending},
		}},
	}
	return deps, checkout
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	router, err := buildRouter(zap.NewNop(), nil, deps)
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouterRejectsMissingDeps(t *testing.T) {
	deps, _ := testDeps()
	deps.CheckoutSvc = nil
	if _, err := buildRouter(zap.NewNop(), nil, deps); err == nil {
		t.Fatalf("expected error for missing dependency")
	}
}

func TestHealthz(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/auth/me"},
	}
	for _, p := range paths {
		rec := doRequest(t, router, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", p.method, p.path, rec.Code)
		}
		rec = doRequest(t, router, p.method, p.path, "token-bogus", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestMe(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(t, router, http.MethodGet, "/auth/me", "token-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["userId"] != "user-1" || body["role"] != domain.RoleUser {
		t.Errorf("unexpected identity: %v", body)
	}
}

func TestAdminGating(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	in := catalogsvc.ProductInput{Title: "New", Slug: "new", PricePaise: 100, Stock: 1}

	rec := doRequest(t, router, http.MethodPost, "/admin/products", "token-user", in)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for USER role, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodPost, "/admin/products", "token-admin", in)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for ADMIN role, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodGet, "/admin/stats", "token-admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin stats, got %d", rec.Code)
	}
}

func TestPublicCatalog(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(t, router, http.MethodGet, "/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/products/p1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/products/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCartEndpoints(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(t, router, http.MethodPost, "/cart/items", "token-user", map[string]string{"productId": "p1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodPost, "/cart/items", "token-user", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing product id, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodPost, "/cart/items", "token-user", map[string]string{"productId": "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodDelete, "/cart/items/p1", "token-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInitiateCheckoutEndpoint(t *testing.T) {
	deps, checkout := testDeps()
	router := newTestRouter(t, deps)

	body := map[string]any{"items": []map[string]any{{"productId": "p1", "quantity": 2}}}
	rec := doRequest(t, router, http.MethodPost, "/checkout", "token-user", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	checkout.initiateResult = nil
	checkout.initiateErr = &domain.InsufficientStockError{ProductID: "p1", Requested: 10, Available: 5}
	rec = doRequest(t, router, http.MethodPost, "/checkout", "token-user", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var conflict map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if conflict["productId"] != "p1" {
		t.Errorf("expected product detail in conflict body, got %v", conflict)
	}

	checkout.initiateErr = &domain.GatewayError{Status: 502, Body: "down"}
	rec = doRequest(t, router, http.MethodPost, "/checkout", "token-user", body)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestConfirmPaymentEndpoint(t *testing.T) {
	deps, checkout := testDeps()
	router := newTestRouter(t, deps)

	body := map[string]string{
		"orderId":             "order-1",
		"razorpay_order_id":   "remote-1",
		"razorpay_payment_id": "pay-1",
		"razorpay_signature":  "sig",
	}

	checkout.confirmOrder = &domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderPaid}
	rec := doRequest(t, router, http.MethodPost, "/checkout/confirm", "token-user", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	checkout.confirmOrder = nil
	checkout.confirmErr = domain.ErrPaymentVerificationFailed
	rec = doRequest(t, router, http.MethodPost, "/checkout/confirm", "token-user", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for failed verification, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/checkout/confirm", "token-user", map[string]string{"orderId": "order-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", rec.Code)
	}
}

func TestWebhookEndpoint(t *testing.T) {
	deps, checkout := testDeps()
	router := newTestRouter(t, deps)

	payload := []byte(`{"event":"payment.captured","payload":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(payload))
	req.Header.Set(razorpaySignatureHeader, "sig-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if string(checkout.webhookBody) != string(payload) {
		t.Errorf("handler must pass the raw body through unchanged")
	}
	if checkout.webhookSig != "sig-1" {
		t.Errorf("expected signature header forwarded, got %q", checkout.webhookSig)
	}

	checkout.webhookOutcome = checkoutsvc.WebhookRejected
	checkout.webhookErr = domain.ErrPaymentVerificationFailed
	req = httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(payload))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected delivery, got %d", rec.Code)
	}
}

func TestOrderEndpoints(t *testing.T) {
	deps, _ := testDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(t, router, http.MethodGet, "/orders", "token-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/orders/order-1", "token-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/orders/order-1", "token-admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/admin/orders", "token-admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
