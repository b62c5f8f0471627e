package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/farmbasket/farmbasket-backend/api/middleware"
	"github.com/farmbasket/farmbasket-backend/api/responses"
	"github.com/farmbasket/farmbasket-backend/api/validators"
	"github.com/farmbasket/farmbasket-backend/internal/checkout"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// CheckoutService opens hosted payment sessions for a cart.
type CheckoutService interface {
	CreateSession(ctx context.Context, cartKey string, customerEmail *string) (*checkout.Redirect, error)
}

type checkoutRequest struct {
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// Checkout snapshots the cart and returns the hosted payment redirect. The
// cart survives unchanged until the payment webhook confirms completion.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		// An empty body means an anonymous checkout; anything else invalid is
		// rejected.
		if err := validators.DecodeJSONBody(r, &payload); err != nil && !errors.Is(err, io.EOF) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirect, err := svc.CreateSession(r.Context(), middleware.CartKeyFromContext(r.Context()), payload.CustomerEmail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, redirect)
	}
}
