package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
)

// Repository persists orders and their line items.
type Repository struct {
	conn *gorm.DB
}

// NewRepository wraps a GORM connection.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// CreateTx inserts the order and its line items inside the caller's
// transaction.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if err := tx.Create(order).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating order")
	}
	return nil
}

// FindByID fetches an order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.conn.WithContext(ctx).Preload("Items").First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching order")
	}
	return &row, nil
}

// FindByStripeSessionID fetches the order a checkout session charges against.
func (r *Repository) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var row models.Order
	err := r.conn.WithContext(ctx).Preload("Items").
		First(&row, "stripe_session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching order by session")
	}
	return &row, nil
}

// ListByCartKey returns the orders a cart session has created, newest first.
func (r *Repository) ListByCartKey(ctx context.Context, cartKey string) ([]models.Order, error) {
	var rows []models.Order
	err := r.conn.WithContext(ctx).Preload("Items").
		Where("cart_key = ?", cartKey).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

// UpdateTx saves the order row inside the caller's transaction.
func (r *Repository) UpdateTx(tx *gorm.DB, order *models.Order) error {
	if err := tx.Save(order).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "updating order")
	}
	return nil
}

// AttachStripeSession records the checkout session on a freshly created order.
func (r *Repository) AttachStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	result := r.conn.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("stripe_session_id", sessionID)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, result.Error, "attaching stripe session")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return nil
}
