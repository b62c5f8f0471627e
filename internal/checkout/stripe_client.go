package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/farmbasket/farmbasket-backend/pkg/stripe"
)

// StripeSessionClient exposes the one Stripe operation checkout needs, so the
// service can be tested without the network.
type StripeSessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the configured Stripe client.
func NewStripeClient(api *pkgstripe.Client) StripeSessionClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}
