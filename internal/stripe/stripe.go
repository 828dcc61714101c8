// Package stripe wraps the pieces of the Stripe API the billing flow uses.
package stripe

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v84"
	portalsession "github.com/stripe/stripe-go/v84/billingportal/session"
	checksession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/getresett/resett/internal/config"
)

type Client struct {
	cfg        config.Stripe
	successURL string
	cancelURL  string
}

// NewClient configures the global Stripe key and returns a client. The
// success and cancel URLs anchor checkout back into the app.
func NewClient(cfg config.Stripe, baseURL string) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{
		cfg:        cfg,
		successURL: baseURL + "/account?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  baseURL + "/pricing",
	}
}

// CreateCustomer creates a Stripe customer and returns the customer ID.
func (c *Client) CreateCustomer(email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a subscription checkout session and returns its
// URL. The plan name rides along as metadata so the webhook can record it.
func (c *Client) CreateCheckoutSession(customerID, priceID, plan string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Metadata: map[string]string{"plan": plan},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(c.successURL),
		CancelURL:           stripe.String(c.cancelURL),
	}
	sess, err := checksession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreateBillingPortalSession creates a billing portal session and returns its URL.
func (c *Client) CreateBillingPortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// PriceIDForPlan maps a plan name to its Stripe price ID. Unknown plans fall
// back to monthly.
func (c *Client) PriceIDForPlan(plan string) string {
	if plan == "annual" {
		return c.cfg.AnnualPriceID
	}
	return c.cfg.MonthlyPriceID
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}
