package payloads

import "github.com/google/uuid"

// OrderCreatedEvent is emitted when checkout converts a cart into an order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CartKey    string    `json:"cart_key"`
	TotalCents int       `json:"total_cents"`
}

// OrderPaidEvent is emitted when Stripe confirms payment for an order.
type OrderPaidEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	CartKey string    `json:"cart_key"`
}

// OrderCanceledEvent is emitted when a checkout session expires or is abandoned.
type OrderCanceledEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason,omitempty"`
}
