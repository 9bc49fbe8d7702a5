// Package payment wraps the Stripe SDK behind a small surface so
// handlers depend on an interface instead of the SDK types.  Only two
// capabilities are exposed: creating a hosted checkout session and
// verifying webhook signatures.
package payment

import (
	"context"
	"encoding/json"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// LineItem is one priced cart line for a checkout session.  UnitAmount
// is in minor units (cents) and always comes from a fresh read of the
// productos table, never from the request body.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest carries everything needed to build a hosted checkout
// session.  Metadata is echoed back verbatim in the completed-session
// webhook event and is the only channel through which checkout state
// reaches the webhook.
type SessionRequest struct {
	CustomerEmail string
	Currency      string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	Metadata      map[string]string
}

// Session is the subset of the gateway's session object the storefront
// needs: the opaque id stored on reservations and the redirect URL.
type Session struct {
	ID  string
	URL string
}

// Gateway is the seam handlers program against; Client implements it
// with real Stripe calls and tests substitute fakes.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

// Client calls the Stripe API with a server-held secret key.
type Client struct {
	api *client.API
}

// NewClient builds a Client from the secret API key.
func NewClient(secretKey string) *Client {
	return &Client{api: client.New(secretKey, nil)}
}

// CreateCheckoutSession creates a hosted checkout session in payment
// mode and returns its id and redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

// CompletedSession is the slice of a checkout.session.completed event
// the webhook consumes.
type CompletedSession struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// Event is a verified webhook event.  Session is populated only for
// checkout.session.completed events.
type Event struct {
	Type    string
	Session *CompletedSession
}

// VerifyEvent checks the Stripe-Signature header against the webhook
// secret and parses the payload.  Verification happens before the body
// is interpreted at all; an invalid or missing signature fails here and
// nothing downstream runs.
func VerifyEvent(payload []byte, sigHeader, secret string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return Event{}, err
	}
	out := Event{Type: string(ev.Type)}
	if out.Type == "checkout.session.completed" {
		var sess CompletedSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return Event{}, err
		}
		out.Session = &sess
	}
	return out, nil
}
