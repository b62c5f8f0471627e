package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

type orderLifecycle interface {
	MarkPaidBySession(ctx context.Context, sessionID string) (*models.Order, error)
	CancelBySession(ctx context.Context, sessionID, reason string) (*models.Order, error)
}

type cartClearer interface {
	Clear(ctx context.Context, key string) error
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Service reacts to Stripe checkout lifecycle events. Payment confirmation is
// the only place a cart is cleared: until checkout.session.completed arrives
// the customer keeps their items, however many sessions they opened.
type Service struct {
	orders orderLifecycle
	carts  cartClearer
	guard  deliveryGuard
	logg   *logger.Logger
}

type ServiceParams struct {
	Orders orderLifecycle
	Carts  cartClearer
	Guard  deliveryGuard
	Logger *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "order lifecycle required")
	}
	if params.Carts == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "cart clearer required")
	}
	if params.Guard == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "delivery guard required")
	}
	return &Service{
		orders: params.Orders,
		carts:  params.Carts,
		guard:  params.Guard,
		logg:   params.Logger,
	}, nil
}

// HandleEvent dispatches one verified Stripe event. Unrecognized event types
// are acknowledged without action so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return apperrors.New(apperrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.withGuard(ctx, event, s.handleCompleted)
	case stripe.EventTypeCheckoutSessionExpired:
		return s.withGuard(ctx, event, s.handleExpired)
	default:
		return nil
	}
}

func (s *Service) withGuard(ctx context.Context, event *stripe.Event, handle func(context.Context, *stripe.CheckoutSession) error) error {
	first, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "claiming webhook delivery")
	}
	if !first {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "duplicate webhook delivery skipped")
		}
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "decode checkout session event")
	}

	if err := handle(ctx, &session); err != nil {
		// Release the claim so Stripe's retry can attempt the work again.
		if releaseErr := s.guard.Release(ctx, event.ID); releaseErr != nil && s.logg != nil {
			s.logg.Error(ctx, "releasing webhook claim failed", releaseErr)
		}
		return err
	}
	return nil
}

func (s *Service) handleCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	order, err := s.orders.MarkPaidBySession(ctx, session.ID)
	if err != nil {
		return err
	}

	// Backend-confirmed payment is the only trigger for emptying a cart.
	if err := s.carts.Clear(ctx, order.CartKey); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "clearing cart after payment")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(s.logg.WithCartKey(ctx, order.CartKey), order.ID.String()), "payment confirmed, cart cleared")
	}
	return nil
}

func (s *Service) handleExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	_, err := s.orders.CancelBySession(ctx, session.ID, "checkout session expired")
	return err
}
