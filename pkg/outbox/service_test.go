package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	"github.com/farmbasket/farmbasket-backend/pkg/outbox/payloads"
)

type captureRepo struct {
	rows []models.OutboxEvent
	err  error
}

func (c *captureRepo) Insert(_ *gorm.DB, event models.OutboxEvent) error {
	if c.err != nil {
		return c.err
	}
	c.rows = append(c.rows, event)
	return nil
}

func TestEmitRequiresTransaction(t *testing.T) {
	t.Parallel()

	svc := NewService(&captureRepo{}, nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	t.Parallel()

	repo := &captureRepo{}
	svc := NewService(repo, nil)
	orderID := uuid.New()

	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          payloads.OrderCreatedEvent{OrderID: orderID, CartKey: "cart-1", TotalCents: 998},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(repo.rows))
	}

	row := repo.rows[0]
	if row.EventType != enums.EventOrderCreated || row.AggregateID != orderID {
		t.Fatalf("unexpected row %+v", row)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("payload is not an envelope: %v", err)
	}
	if envelope.Version != 1 || envelope.EventID == "" || envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope not populated: %+v", envelope)
	}

	var data payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("envelope data does not decode: %v", err)
	}
	if data.CartKey != "cart-1" || data.TotalCents != 998 {
		t.Fatalf("unexpected event data %+v", data)
	}
}
