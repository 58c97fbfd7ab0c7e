package stripepay

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Config struct {
		BaseURL string `json:"base_url" mapstructure:"base_url"`

		// SecretKey authenticates API requests.
		SecretKey string `json:"secret_key" mapstructure:"secret_key"`

		// WebhookKey is the endpoint signing secret used to verify
		// incoming webhook signatures.
		WebhookKey string `json:"webhook_key" mapstructure:"webhook_key"`
	}

	// StripePay is the public entry point to the StripePay backend.
	StripePay struct {
		client *Client
	}
)

// SignatureTolerance is the maximum accepted age of a signed webhook.
const SignatureTolerance = 5 * time.Minute

func New(_ context.Context, c *Config) (*StripePay, error) {
	if c.SecretKey == "" {
		return nil, fmt.Errorf("stripepay: missing secret key")
	}
	return &StripePay{client: newClient(c)}, nil
}

// CreateAccount creates a connected seller account.
func (s *StripePay) CreateAccount(ctx context.Context, email, country string) (string, error) {
	return s.client.createAccount(ctx, email, country)
}

// CreateAccountLink returns the hosted onboarding URL for an account.
func (s *StripePay) CreateAccountLink(ctx context.Context, accountID, returnURL string) (string, error) {
	return s.client.createAccountLink(ctx, accountID, returnURL)
}

// CheckoutForm describes one hosted checkout session.
type CheckoutForm struct {
	AccountID     string
	ReferenceID   string
	Description   string
	UnitAmount    decimal.Decimal
	Quantity      int
	FeePercent    float64
	Currency      string
	SuccessURL    string
	CancelURL     string
	ExpireMinutes int
}

// CreateCheckoutSession opens a hosted checkout session and returns its
// id and redirect URL.
func (s *StripePay) CreateCheckoutSession(ctx context.Context, f *CheckoutForm) (string, string, error) {
	return s.client.createCheckoutSession(ctx, f)
}

// Refund refunds a captured payment, amount in major currency units.
func (s *StripePay) Refund(ctx context.Context, paymentIntentID, accountID string, amount decimal.Decimal) error {
	return s.client.refund(ctx, paymentIntentID, accountID, amount)
}

// VerifySignature checks the `t=<unix>,v1=<hex>` webhook signature header
// against the raw body, rejecting stale timestamps.
func (s *StripePay) VerifySignature(body []byte, header string) error {
	return verifySignature(body, header, s.client.webhookKey, time.Now(), SignatureTolerance)
}

// Event is a decoded webhook notification.
type Event struct {
	Type          string
	SessionID     string
	PaymentIntent string
	AmountTotal   decimal.Decimal
}

// ParseEvent decodes a verified webhook body.
func (s *StripePay) ParseEvent(body []byte) (*Event, error) {
	return parseEvent(body)
}
