package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/farmbasket/farmbasket-backend/internal/cart"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/outbox"
)

type gormTxRunner struct {
	conn *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type stubCatalog struct {
	products map[uuid.UUID]models.Product
}

func (c *stubCatalog) FindManyByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	for _, id := range ids {
		if product, ok := c.products[id]; ok {
			rows = append(rows, product)
		}
	}
	return rows, nil
}

type captureEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (e *captureEmitter) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return fmt.Errorf("emit outside transaction")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *captureEmitter) types() []enums.OutboxEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]enums.OutboxEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.EventType)
	}
	return out
}

type fixture struct {
	svc     *Service
	conn    *gorm.DB
	catalog *stubCatalog
	emitter *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	catalog := &stubCatalog{products: map[uuid.UUID]models.Product{}}
	emitter := &captureEmitter{}
	svc, err := NewService(&gormTxRunner{conn: conn}, NewRepository(conn), catalog, emitter, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, conn: conn, catalog: catalog, emitter: emitter}
}

func (f *fixture) addProduct(name string, priceCents int, active bool) uuid.UUID {
	id := uuid.New()
	f.catalog.products[id] = models.Product{
		ID:         id,
		Name:       name,
		Category:   enums.ProductCategoryProduce,
		FarmName:   "Cedar Hollow Farm",
		PriceCents: priceCents,
		IsActive:   active,
	}
	return id
}

func TestCreateFromCartRevalidatesPrices(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	honey := f.addProduct("Wildflower Honey", 1100, true)

	// Cart prices are deliberately wrong; the order must charge catalog prices.
	items := []cart.LineItem{
		{ID: tomatoes.String(), Name: "Heirloom Tomatoes", Price: 0.01, Quantity: 2},
		{ID: honey.String(), Name: "Wildflower Honey", Price: 0.01, Quantity: 1},
	}

	order, err := f.svc.CreateFromCart(context.Background(), "abc", items, nil)
	if err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}

	if order.TotalCents != 2*499+1100 {
		t.Fatalf("expected total %d, got %d", 2*499+1100, order.TotalCents)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected two line items, got %d", len(order.Items))
	}
	for _, line := range order.Items {
		if line.UnitPriceCents == 1 {
			t.Fatalf("order charged the cart price, not the catalog price: %+v", line)
		}
		if line.TotalCents != line.UnitPriceCents*line.Qty {
			t.Fatalf("line total mismatch: %+v", line)
		}
	}

	types := f.emitter.types()
	if len(types) != 1 || types[0] != enums.EventOrderCreated {
		t.Fatalf("expected one order.created event, got %v", types)
	}

	stored, err := f.svc.Get(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.CartKey != "abc" || len(stored.Items) != 2 {
		t.Fatalf("persisted order mismatch: %+v", stored)
	}
}

func TestCreateFromCartRejectsVanishedProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	items := []cart.LineItem{{ID: uuid.NewString(), Name: "Ghost", Price: 1, Quantity: 1}}

	_, err := f.svc.CreateFromCart(context.Background(), "abc", items, nil)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.emitter.types()) != 0 {
		t.Fatalf("failed checkout must emit nothing, got %v", f.emitter.types())
	}
}

func TestCreateFromCartRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	retired := f.addProduct("Retired Item", 100, false)
	items := []cart.LineItem{{ID: retired.String(), Quantity: 1}}

	_, err := f.svc.CreateFromCart(context.Background(), "abc", items, nil)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateFromCartRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateFromCart(context.Background(), "abc", nil, nil)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateFromCartSkipsZeroQuantityLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	items := []cart.LineItem{
		{ID: tomatoes.String(), Quantity: 0},
	}

	_, err := f.svc.CreateFromCart(context.Background(), "abc", items, nil)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error for no purchasable items, got %v", err)
	}
}

func TestMarkPaidBySessionIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	ctx := context.Background()

	order, err := f.svc.CreateFromCart(ctx, "abc", []cart.LineItem{{ID: tomatoes.String(), Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}
	if err := f.svc.AttachStripeSession(ctx, order.ID, "cs_test_123"); err != nil {
		t.Fatalf("AttachStripeSession: %v", err)
	}

	paid, err := f.svc.MarkPaidBySession(ctx, "cs_test_123")
	if err != nil {
		t.Fatalf("MarkPaidBySession: %v", err)
	}
	if paid.Status != enums.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid order, got %+v", paid)
	}

	// Replayed webhook delivery.
	again, err := f.svc.MarkPaidBySession(ctx, "cs_test_123")
	if err != nil {
		t.Fatalf("replayed MarkPaidBySession: %v", err)
	}
	if again.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid order on replay, got %s", again.Status)
	}

	types := f.emitter.types()
	paidEvents := 0
	for _, et := range types {
		if et == enums.EventOrderPaid {
			paidEvents++
		}
	}
	if paidEvents != 1 {
		t.Fatalf("expected exactly one order.paid event, got %v", types)
	}
}

func TestMarkPaidUnknownSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.MarkPaidBySession(context.Background(), "cs_missing")
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCancelBySessionLeavesPaidOrderAlone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	ctx := context.Background()

	order, err := f.svc.CreateFromCart(ctx, "abc", []cart.LineItem{{ID: tomatoes.String(), Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}
	if err := f.svc.AttachStripeSession(ctx, order.ID, "cs_test_456"); err != nil {
		t.Fatalf("AttachStripeSession: %v", err)
	}
	if _, err := f.svc.MarkPaidBySession(ctx, "cs_test_456"); err != nil {
		t.Fatalf("MarkPaidBySession: %v", err)
	}

	// An expired event can arrive after completion; it must not cancel.
	got, err := f.svc.CancelBySession(ctx, "cs_test_456", "session expired")
	if err != nil {
		t.Fatalf("CancelBySession: %v", err)
	}
	if got.Status != enums.OrderStatusPaid {
		t.Fatalf("paid order was canceled: %s", got.Status)
	}
}

func TestCancelBySessionCancelsPendingOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	ctx := context.Background()

	order, err := f.svc.CreateFromCart(ctx, "abc", []cart.LineItem{{ID: tomatoes.String(), Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}
	if err := f.svc.AttachStripeSession(ctx, order.ID, "cs_test_789"); err != nil {
		t.Fatalf("AttachStripeSession: %v", err)
	}

	got, err := f.svc.CancelBySession(ctx, "cs_test_789", "session expired")
	if err != nil {
		t.Fatalf("CancelBySession: %v", err)
	}
	if got.Status != enums.OrderStatusCanceled || got.CanceledAt == nil {
		t.Fatalf("expected canceled order, got %+v", got)
	}

	// Paying a canceled order is a state conflict.
	_, err = f.svc.MarkPaidBySession(ctx, "cs_test_789")
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestListForCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tomatoes := f.addProduct("Heirloom Tomatoes", 499, true)
	ctx := context.Background()

	if _, err := f.svc.CreateFromCart(ctx, "abc", []cart.LineItem{{ID: tomatoes.String(), Quantity: 1}}, nil); err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}
	if _, err := f.svc.CreateFromCart(ctx, "other", []cart.LineItem{{ID: tomatoes.String(), Quantity: 2}}, nil); err != nil {
		t.Fatalf("CreateFromCart: %v", err)
	}

	rows, err := f.svc.ListForCart(ctx, "abc")
	if err != nil {
		t.Fatalf("ListForCart: %v", err)
	}
	if len(rows) != 1 || rows[0].CartKey != "abc" {
		t.Fatalf("expected one order for the cart, got %+v", rows)
	}
}
