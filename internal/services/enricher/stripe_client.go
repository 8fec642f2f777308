package enricher

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeClient adapts the Stripe SDK to the ProviderClient interface.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (c *StripeClient) PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	return c.api.PaymentIntents.Get(id, params)
}

func (c *StripeClient) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	return c.api.Customers.Get(id, params)
}

// Ping verifies API key connectivity with a balance fetch.
func (c *StripeClient) Ping(ctx context.Context) error {
	params := &stripe.BalanceParams{Params: stripe.Params{Context: ctx}}
	_, err := c.api.Balance.Get(params)
	return err
}
