package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/enums"
)

// Order is the durable record a checkout session charges against. Unit prices
// are resolved from the catalog at creation time; cart prices are advisory.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CartKey          string            `gorm:"column:cart_key;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	CustomerEmail    *string           `gorm:"column:customer_email"`
	SubtotalCents    int               `gorm:"column:subtotal_cents;not null"`
	TotalCents       int               `gorm:"column:total_cents;not null"`
	StripeSessionID  *string           `gorm:"column:stripe_session_id;index"`
	Items            []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	PaidAt           *time.Time        `gorm:"column:paid_at"`
	CanceledAt       *time.Time        `gorm:"column:canceled_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem is one product row on an order.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an ID when the caller did not.
func (i *OrderLineItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
