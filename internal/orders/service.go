package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/internal/cart"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/outbox"
	"github.com/farmbasket/farmbasket-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogSource interface {
	FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the order lifecycle: creation from a cart snapshot, payment
// confirmation, and cancellation. Charged amounts always come from the catalog
// at creation time, never from prices stored in the cart payload.
type Service struct {
	db      txRunner
	repo    *Repository
	catalog catalogSource
	events  eventEmitter
	logg    *logger.Logger
}

// NewService wires the orders service.
func NewService(db txRunner, repo *Repository, catalog catalogSource, events eventEmitter, logg *logger.Logger) (*Service, error) {
	if db == nil || repo == nil || catalog == nil || events == nil {
		return nil, fmt.Errorf("db, repository, catalog and event emitter are required")
	}
	return &Service{db: db, repo: repo, catalog: catalog, events: events, logg: logg}, nil
}

// CreateFromCart converts a cart snapshot into a pending order. Every line is
// revalidated against the catalog: quantities come from the cart, unit prices
// come from the product table. A product that has vanished or gone inactive
// since it was added fails the whole checkout.
func (s *Service) CreateFromCart(ctx context.Context, cartKey string, items []cart.LineItem, customerEmail *string) (*models.Order, error) {
	if cartKey == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "cart key is required")
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		parsed, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, apperrors.New(apperrors.CodeValidation, "cart contains a malformed product id")
		}
		ids = append(ids, parsed)
	}

	catalog, err := s.catalog.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(catalog))
	for _, product := range catalog {
		byID[product.ID] = product
	}

	order := &models.Order{
		ID:            uuid.New(),
		CartKey:       cartKey,
		Status:        enums.OrderStatusPending,
		CustomerEmail: customerEmail,
	}

	for i, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		product, ok := byID[ids[i]]
		if !ok || !product.IsActive {
			return nil, apperrors.New(apperrors.CodeStateConflict, "a cart item is no longer available").
				WithDetails(map[string]string{"product_id": item.ID})
		}
		lineTotal := product.PriceCents * item.Quantity
		order.Items = append(order.Items, models.OrderLineItem{
			OrderID:        order.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            item.Quantity,
			UnitPriceCents: product.PriceCents,
			TotalCents:     lineTotal,
		})
		order.SubtotalCents += lineTotal
	}
	if len(order.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart has no purchasable items")
	}
	order.TotalCents = order.SubtotalCents

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				CartKey:    cartKey,
				TotalCents: order.TotalCents,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(s.logg.WithCartKey(ctx, cartKey), order.ID.String()), "order created")
	}
	return order, nil
}

// AttachStripeSession records the checkout session an order is charged
// through.
func (s *Service) AttachStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	if sessionID == "" {
		return apperrors.New(apperrors.CodeValidation, "session id is required")
	}
	return s.repo.AttachStripeSession(ctx, orderID, sessionID)
}

// Get fetches an order with its line items.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id must be a uuid")
	}
	return s.repo.FindByID(ctx, parsed)
}

// ListForCart returns the orders a cart session has created.
func (s *Service) ListForCart(ctx context.Context, cartKey string) ([]models.Order, error) {
	if cartKey == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "cart key is required")
	}
	return s.repo.ListByCartKey(ctx, cartKey)
}

// MarkPaidBySession transitions the order for a checkout session to paid.
// Replayed confirmations return the already-paid order without touching it.
func (s *Service) MarkPaidBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := s.repo.FindByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusPaid:
		return order, nil
	case enums.OrderStatusCanceled:
		return nil, apperrors.New(apperrors.CodeStateConflict, "order is canceled")
	}

	now := time.Now()
	order.Status = enums.OrderStatusPaid
	order.PaidAt = &now

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID: order.ID,
				CartKey: order.CartKey,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order paid")
	}
	return order, nil
}

// CancelBySession transitions a pending order to canceled, for expired or
// abandoned checkout sessions. Paid and already-canceled orders are left
// untouched.
func (s *Service) CancelBySession(ctx context.Context, sessionID, reason string) (*models.Order, error) {
	order, err := s.repo.FindByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return order, nil
	}

	now := time.Now()
	order.Status = enums.OrderStatusCanceled
	order.CanceledAt = &now

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCanceledEvent{
				OrderID: order.ID,
				Reason:  reason,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order canceled")
	}
	return order, nil
}
