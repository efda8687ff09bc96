package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"
)

func TestCreateOrderSendsWireContract(t *testing.T) {
	var gotBody createOrderRequest
	var gotAuthUser, gotAuthPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		if r.URL.Path != "/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(RemoteOrder{
			ID: "order_remote1", Amount: 20000, Currency: "INR", Receipt: "local-1", Status: "created",
		})
	}))
	defer srv.Close()

	c := New("key_id", "key_secret", "whsecret", nil, WithBaseURL(srv.URL))
	remote, err := c.CreateOrder(context.Background(), 20000, "INR", "local-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuthUser != "key_id" || gotAuthPass != "key_secret" {
		t.Fatalf("unexpected basic auth %s:%s", gotAuthUser, gotAuthPass)
	}
	if gotBody.Amount != 20000 || gotBody.Currency != "INR" || gotBody.Receipt != "local-1" || gotBody.PaymentCapture != 1 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if remote.ID != "order_remote1" || remote.Amount != 20000 {
		t.Fatalf("unexpected remote order: %+v", remote)
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"description":"upstream down"}}`))
	}))
	defer srv.Close()

	c := New("key_id", "key_secret", "whsecret", nil, WithBaseURL(srv.URL))
	_, err := c.CreateOrder(context.Background(), 100, "INR", "local-1")

	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", gwErr.Status)
	}
	if gwErr.Body == "" {
		t.Fatalf("expected provider error body to be surfaced")
	}
}

func TestCreateOrderNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := New("key_id", "key_secret", "whsecret", nil, WithBaseURL(srv.URL))
	if _, err := c.CreateOrder(context.Background(), 100, "INR", "local-1"); err == nil {
		t.Fatalf("expected error for unreachable gateway")
	}
}
