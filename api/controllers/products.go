package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmbasket/farmbasket-backend/api/responses"
	"github.com/farmbasket/farmbasket-backend/api/validators"
	"github.com/farmbasket/farmbasket-backend/internal/products"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// ProductCatalog is the read surface the storefront consumes.
type ProductCatalog interface {
	List(ctx context.Context, category enums.ProductCategory, limit int) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
}

const (
	defaultProductLimit = 50
	maxProductLimit     = 200
)

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	FarmName    string  `json:"farm_name"`
	Price       float64 `json:"price"`
	PriceCents  int     `json:"price_cents"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func toProductResponse(p models.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		FarmName:    p.FarmName,
		Price:       products.DollarsFromCents(p.PriceCents),
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
	}
}

// ProductList serves the active catalog.
func ProductList(svc ProductCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultProductLimit, 1, maxProductLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var category enums.ProductCategory
		if raw := r.URL.Query().Get("category"); raw != "" {
			category, err = enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category"))
				return
			}
		}

		rows, err := svc.List(r.Context(), category, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toProductResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductDetail serves one catalog product.
func ProductDetail(svc ProductCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		row, err := svc.Get(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(*row))
	}
}
