package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/farmbasket/farmbasket-backend/internal/cart"
	"github.com/farmbasket/farmbasket-backend/pkg/config"
	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/metrics"
)

type cartReader interface {
	Get(ctx context.Context, key string) (cart.Snapshot, error)
}

type orderCreator interface {
	CreateFromCart(ctx context.Context, cartKey string, items []cart.LineItem, customerEmail *string) (*models.Order, error)
	AttachStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
}

// Redirect is the handoff the API returns: the hosted payment page the
// customer should be sent to, plus the order it will settle.
type Redirect struct {
	OrderID   uuid.UUID `json:"order_id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

// Service converts a cart into a pending order and opens a hosted Stripe
// checkout session for it. The cart itself is never modified here; it is
// cleared only once the payment webhook confirms the session completed.
type Service struct {
	carts   cartReader
	orders  orderCreator
	stripe  StripeSessionClient
	cfg     config.CheckoutConfig
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewService wires the checkout service.
func NewService(carts cartReader, orders orderCreator, stripeClient StripeSessionClient, cfg config.CheckoutConfig, logg *logger.Logger, cartMetrics *metrics.CartMetrics) (*Service, error) {
	if carts == nil || orders == nil || stripeClient == nil {
		return nil, fmt.Errorf("cart reader, order creator and stripe client are required")
	}
	if cfg.SessionTimeout <= 0 {
		return nil, fmt.Errorf("checkout session timeout must be positive")
	}
	return &Service{
		carts:   carts,
		orders:  orders,
		stripe:  stripeClient,
		cfg:     cfg,
		logg:    logg,
		metrics: cartMetrics,
	}, nil
}

// CreateSession snapshots the cart, creates the order it will charge, and
// opens the Stripe session. Any failure leaves the cart exactly as it was so
// the customer can retry.
func (s *Service) CreateSession(ctx context.Context, cartKey string, customerEmail *string) (*Redirect, error) {
	if cartKey == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "cart key is required")
	}

	snapshot, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}

	order, err := s.orders.CreateFromCart(ctx, cartKey, snapshot.Items, customerEmail)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	session, err := s.createStripeSession(ctx, order, customerEmail)
	s.metrics.ObserveCheckoutDuration(time.Since(started))
	if err != nil {
		s.metrics.IncCheckoutSession("error")
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(s.logg.WithCartKey(ctx, cartKey), order.ID.String()), "stripe session creation failed", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating checkout session")
	}
	if session.URL == "" {
		s.metrics.IncCheckoutSession("missing_url")
		return nil, apperrors.New(apperrors.CodeDependency, "checkout session has no redirect url")
	}

	if err := s.orders.AttachStripeSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}

	s.metrics.IncCheckoutSession("success")
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(s.logg.WithCartKey(ctx, cartKey), order.ID.String()), "checkout session created")
	}
	return &Redirect{OrderID: order.ID, SessionID: session.ID, URL: session.URL}, nil
}

func (s *Service) createStripeSession(ctx context.Context, order *models.Order, customerEmail *string) (*stripe.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SessionTimeout)
	defer cancel()

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, line := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(int64(line.UnitPriceCents)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		ClientReferenceID: stripe.String(order.ID.String()),
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"cart_key": order.CartKey,
		},
	}
	if s.cfg.SuccessURL != "" {
		params.SuccessURL = stripe.String(s.cfg.SuccessURL)
	}
	if s.cfg.CancelURL != "" {
		params.CancelURL = stripe.String(s.cfg.CancelURL)
	}
	if customerEmail != nil && *customerEmail != "" {
		params.CustomerEmail = customerEmail
	}

	return s.stripe.Create(ctx, params)
}
