package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmbasket/farmbasket-backend/api/middleware"
	"github.com/farmbasket/farmbasket-backend/api/responses"
	"github.com/farmbasket/farmbasket-backend/api/validators"
	"github.com/farmbasket/farmbasket-backend/internal/cart"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// CartService is the mutation surface the cart routes expose.
type CartService interface {
	Get(ctx context.Context, key string) (cart.Snapshot, error)
	Add(ctx context.Context, key, productID string) (cart.Snapshot, error)
	Decrement(ctx context.Context, key, productID string) (cart.Snapshot, error)
	Remove(ctx context.Context, key, productID string) (cart.Snapshot, error)
	Clear(ctx context.Context, key string) error
}

type cartResponse struct {
	Items []cart.LineItem `json:"items"`
	Total string          `json:"total"`
	Count int             `json:"count"`
}

func toCartResponse(snap cart.Snapshot) cartResponse {
	items := snap.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartResponse{
		Items: items,
		Total: snap.Total.StringFixed(2),
		Count: snap.Count,
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// CartFetch serves the current cart with derived totals.
func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snap, err := svc.Get(r.Context(), middleware.CartKeyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(snap))
	}
}

// CartAddItem merges one unit of a product into the cart.
func CartAddItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Add(r.Context(), middleware.CartKeyFromContext(r.Context()), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(snap))
	}
}

// CartDecrementItem lowers a line's quantity by one, removing it at zero.
func CartDecrementItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snap, err := svc.Decrement(r.Context(), middleware.CartKeyFromContext(r.Context()), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(snap))
	}
}

// CartRemoveItem drops a line regardless of its quantity.
func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snap, err := svc.Remove(r.Context(), middleware.CartKeyFromContext(r.Context()), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(snap))
	}
}

// CartClear empties the cart explicitly at the shopper's request.
func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		key := middleware.CartKeyFromContext(r.Context())
		if err := svc.Clear(r.Context(), key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Get(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(snap))
	}
}
