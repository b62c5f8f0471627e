package cart

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// CatalogItem is what the cart needs to know about a product before it can be
// added: identity plus the display name and price captured onto the line item.
type CatalogItem struct {
	ID    string
	Name  string
	Price float64
}

// Catalog resolves products for add-to-cart. The products service satisfies it.
type Catalog interface {
	Resolve(ctx context.Context, productID string) (CatalogItem, error)
}

// Service exposes the cart mutations the API serves. Adds for the same
// product in the same cart are collapsed through singleflight so a burst of
// identical requests performs one read-merge-write.
type Service struct {
	store   Store
	catalog Catalog
	logg    *logger.Logger
	adds    singleflight.Group
}

// NewService wires the cart service.
func NewService(store Store, catalog Catalog, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &Service{store: store, catalog: catalog, logg: logg}, nil
}

// Get returns the current items with derived totals.
func (s *Service) Get(ctx context.Context, key string) (Snapshot, error) {
	items, err := s.store.Read(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	total, count := Totals(items)
	return Snapshot{Items: items, Total: total, Count: count}, nil
}

// Add resolves the product and merges one unit into the cart. Concurrent adds
// of the same product to the same cart share a single store round trip.
func (s *Service) Add(ctx context.Context, key, productID string) (Snapshot, error) {
	if key == "" {
		return Snapshot{}, apperrors.New(apperrors.CodeValidation, "cart key is required")
	}
	if productID == "" {
		return Snapshot{}, apperrors.New(apperrors.CodeValidation, "product id is required")
	}

	flightKey := key + "|" + productID
	result, err, _ := s.adds.Do(flightKey, func() (any, error) {
		product, err := s.catalog.Resolve(ctx, productID)
		if err != nil {
			return nil, err
		}
		line := LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    NormalizePrice(product.Price),
			Quantity: 1,
		}
		if err := s.store.AddItem(ctx, key, line); err != nil {
			return nil, err
		}
		return s.Get(ctx, key)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return result.(Snapshot), nil
}

// Decrement lowers the quantity of one line by one; a line that reaches zero
// is removed. Decrementing a product not in the cart is a no-op.
func (s *Service) Decrement(ctx context.Context, key, productID string) (Snapshot, error) {
	return s.mutate(ctx, key, productID, func(items []LineItem) []LineItem {
		return AdjustQuantity(items, productID, -1)
	})
}

// Remove drops the line entirely regardless of quantity.
func (s *Service) Remove(ctx context.Context, key, productID string) (Snapshot, error) {
	return s.mutate(ctx, key, productID, func(items []LineItem) []LineItem {
		return RemoveItem(items, productID)
	})
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (s *Service) Clear(ctx context.Context, key string) error {
	if key == "" {
		return apperrors.New(apperrors.CodeValidation, "cart key is required")
	}
	return s.store.Clear(ctx, key)
}

func (s *Service) mutate(ctx context.Context, key, productID string, transform func([]LineItem) []LineItem) (Snapshot, error) {
	if key == "" {
		return Snapshot{}, apperrors.New(apperrors.CodeValidation, "cart key is required")
	}
	if productID == "" {
		return Snapshot{}, apperrors.New(apperrors.CodeValidation, "product id is required")
	}

	items, err := s.store.Read(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.store.Write(ctx, key, transform(items)); err != nil {
		return Snapshot{}, err
	}
	return s.Get(ctx, key)
}
