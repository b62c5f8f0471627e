package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/farmbasket/farmbasket-backend/internal/checkout"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
)

type stubCheckoutService struct {
	redirect *checkout.Redirect
	err      error
	key      string
	email    *string
	called   int
}

func (s *stubCheckoutService) CreateSession(_ context.Context, cartKey string, customerEmail *string) (*checkout.Redirect, error) {
	s.called++
	s.key = cartKey
	s.email = customerEmail
	if s.err != nil {
		return nil, s.err
	}
	return s.redirect, nil
}

func TestCheckoutReturnsRedirect(t *testing.T) {
	t.Parallel()

	stub := &stubCheckoutService{redirect: &checkout.Redirect{
		OrderID:   uuid.New(),
		SessionID: "cs_test_123",
		URL:       "https://checkout.stripe.com/c/pay/cs_test_123",
	}}
	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/checkout", ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.key != "abc" {
		t.Fatalf("expected cart key abc, got %q", stub.key)
	}
	if stub.email != nil {
		t.Fatalf("expected no customer email, got %v", *stub.email)
	}
	data := decodeCart(t, rec)
	if data["url"] != "https://checkout.stripe.com/c/pay/cs_test_123" {
		t.Fatalf("unexpected redirect payload: %v", data)
	}
}

func TestCheckoutForwardsCustomerEmail(t *testing.T) {
	t.Parallel()

	stub := &stubCheckoutService{redirect: &checkout.Redirect{SessionID: "cs_1", URL: "https://example.test"}}
	body := `{"customer_email":"ada@example.com"}`
	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/checkout", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.email == nil || *stub.email != "ada@example.com" {
		t.Fatalf("customer email not forwarded: %v", stub.email)
	}
}

func TestCheckoutRejectsBadEmail(t *testing.T) {
	t.Parallel()

	stub := &stubCheckoutService{}
	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/checkout", `{"customer_email":"nope"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.called != 0 {
		t.Fatal("service must not run for an invalid payload")
	}
}

func TestCheckoutEmptyCartIs400(t *testing.T) {
	t.Parallel()

	stub := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/checkout", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutStripeOutageIs502(t *testing.T) {
	t.Parallel()

	stub := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDependency, "create checkout session")}
	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/checkout", ""))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
