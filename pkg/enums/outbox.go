package enums

// OutboxEventType is the canonical event_type for outbox routing.
type OutboxEventType string

const (
	EventOrderCreated  OutboxEventType = "order.created"
	EventOrderPaid     OutboxEventType = "order.paid"
	EventOrderCanceled OutboxEventType = "order.canceled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)
