package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmbasket/farmbasket-backend/api/middleware"
	"github.com/farmbasket/farmbasket-backend/api/responses"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// OrderReader is the read surface the order routes expose.
type OrderReader interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	ListForCart(ctx context.Context, cartKey string) ([]models.Order, error)
}

type orderLineResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	TotalCents     int    `json:"total_cents"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	SubtotalCents int                 `json:"subtotal_cents"`
	TotalCents    int                 `json:"total_cents"`
	Items         []orderLineResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CanceledAt    *time.Time          `json:"canceled_at,omitempty"`
}

func toOrderResponse(order models.Order) orderResponse {
	items := make([]orderLineResponse, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, orderLineResponse{
			ProductID:      line.ProductID.String(),
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}
	return orderResponse{
		ID:            order.ID.String(),
		Status:        string(order.Status),
		SubtotalCents: order.SubtotalCents,
		TotalCents:    order.TotalCents,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		PaidAt:        order.PaidAt,
		CanceledAt:    order.CanceledAt,
	}
}

// OrderList serves the orders created by the current cart session.
func OrderList(svc OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		rows, err := svc.ListForCart(r.Context(), middleware.CartKeyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toOrderResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderDetail serves one order, scoped to the requesting cart session.
func OrderDetail(svc OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.CartKey != middleware.CartKeyFromContext(r.Context()) {
			// Another session's order is indistinguishable from a missing one.
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, toOrderResponse(*order))
	}
}
