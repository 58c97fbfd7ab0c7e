package paystack

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

var _ Paystack = (*paystack)(nil)

type (
	Config struct {
		BaseURL string `json:"base_url" mapstructure:"base_url"`

		// SecretKey authenticates API requests and keys the webhook
		// signature.
		SecretKey string `json:"secret_key" mapstructure:"secret_key"`

		// CallbackURL is where the hosted page redirects the buyer
		// after payment.
		CallbackURL string `json:"callback_url" mapstructure:"callback_url"`
	}

	paystack struct {
		client *Client
	}
)

// Paystack is the public surface of the Paystack backend client.
type Paystack interface {
	CreateSubaccount(ctx context.Context, businessName, email string) (string, error)
	InitializeTransaction(ctx context.Context, f *TransactionForm) (string, string, error)
	Refund(ctx context.Context, transactionRef string, amount decimal.Decimal) error
	VerifySignature(body []byte, signature string) error
	ParseEvent(body []byte) (*Event, error)
}

// TransactionForm describes one hosted payment page.
type TransactionForm struct {
	SubaccountCode string
	ReferenceID    string
	Email          string
	Amount         decimal.Decimal
	FeePercent     float64
	Currency       string
}

// Event is a decoded webhook notification.
type Event struct {
	Type          string
	Reference     string
	TransactionID string
	Amount        decimal.Decimal
}

func New(_ context.Context, c *Config) (Paystack, error) {
	if c.SecretKey == "" {
		return nil, fmt.Errorf("paystack: missing secret key")
	}
	return &paystack{client: newClient(c)}, nil
}

func (p *paystack) CreateSubaccount(ctx context.Context, businessName, email string) (string, error) {
	return p.client.createSubaccount(ctx, businessName, email)
}

func (p *paystack) InitializeTransaction(ctx context.Context, f *TransactionForm) (string, string, error) {
	return p.client.initializeTransaction(ctx, f)
}

func (p *paystack) Refund(ctx context.Context, transactionRef string, amount decimal.Decimal) error {
	return p.client.refund(ctx, transactionRef, amount)
}

// VerifySignature checks the x-paystack-signature header: a hex
// HMAC-SHA512 of the raw body keyed by the secret key.
func (p *paystack) VerifySignature(body []byte, signature string) error {
	return verifySignature(body, signature, p.client.secretKey)
}

func (p *paystack) ParseEvent(body []byte) (*Event, error) {
	return parseEvent(body)
}
