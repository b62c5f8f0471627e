package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
)

// Repository reads the product catalog.
type Repository struct {
	conn *gorm.DB
}

// NewRepository wraps a GORM connection.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// ListActive returns active catalog products, newest first. An empty category
// matches all categories; limit <= 0 means no limit.
func (r *Repository) ListActive(ctx context.Context, category enums.ProductCategory, limit int) ([]models.Product, error) {
	var rows []models.Product
	query := r.conn.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing products")
	}
	return rows, nil
}

// FindByID fetches one product regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.conn.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching product")
	}
	return &row, nil
}

// FindManyByIDs fetches the given products in one query. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (r *Repository) FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	err := r.conn.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching products")
	}
	return rows, nil
}
