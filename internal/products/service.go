package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/farmbasket/farmbasket-backend/internal/cart"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// Service exposes catalog reads to the API and resolves products for the cart.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService wires the products service.
func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// List returns the active catalog, optionally filtered to one category, at
// most limit rows when limit is positive.
func (s *Service) List(ctx context.Context, category enums.ProductCategory, limit int) ([]models.Product, error) {
	return s.repo.ListActive(ctx, category, limit)
}

// Get fetches one product by its string ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id must be a uuid")
	}
	return s.repo.FindByID(ctx, parsed)
}

// Resolve satisfies the cart's catalog dependency. Inactive products cannot be
// added to a cart even when they still exist in the table.
func (s *Service) Resolve(ctx context.Context, productID string) (cart.CatalogItem, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return cart.CatalogItem{}, err
	}
	if !product.IsActive {
		return cart.CatalogItem{}, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return cart.CatalogItem{
		ID:    product.ID.String(),
		Name:  product.Name,
		Price: DollarsFromCents(product.PriceCents),
	}, nil
}

// DollarsFromCents converts a catalog price to the decimal-dollar value the
// cart payload stores.
func DollarsFromCents(cents int) float64 {
	return float64(cents) / 100
}
