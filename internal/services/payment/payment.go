package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderSlug identifies one of the interchangeable payment processors.
type ProviderSlug string

const (
	ProviderStripePay ProviderSlug = "stripepay"
	ProviderPaystack  ProviderSlug = "paystack"
)

// AccountData carries seller onboarding details.
type AccountData struct {
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
	Country      string `json:"country"`
}

// Account is the provider-side seller account created at onboarding.
type Account struct {
	AccountID string `json:"account_id"`
	WalletID  string `json:"wallet_id,omitempty"`
}

// CheckoutForm is a generic checkout session request.
type CheckoutForm struct {
	AccountID     string          `json:"account_id"`
	EventID       string          `json:"event_id"`
	EventName     string          `json:"event_name"`
	ReservationID string          `json:"reservation_id"`
	UserID        string          `json:"user_id"`
	CustomerEmail string          `json:"customer_email"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	FeePercent    float64         `json:"fee_percent"`
	Currency      string          `json:"currency"`
	SuccessURL    string          `json:"success_url"`
	CancelURL     string          `json:"cancel_url"`
}

// CheckoutSession is the provider-side session the buyer is redirected to.
type CheckoutSession struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

// WebhookEvent is the provider-agnostic view of a webhook notification.
// Completed is true only for the "checkout completed" event type; other
// recognized types are acknowledged and ignored.
type WebhookEvent struct {
	Type            string          `json:"type"`
	Completed       bool            `json:"completed"`
	SessionID       string          `json:"session_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// Provider defines the common interface for all payment processors.
// The rest of the application depends only on this shape, never on a
// specific provider's wire format.
type Provider interface {
	// Slug returns the provider identifier.
	Slug() ProviderSlug

	// CreateAccount creates a seller account at the provider.
	CreateAccount(ctx context.Context, data *AccountData) (*Account, error)

	// CreateAccountLink returns the hosted onboarding URL for an account.
	CreateAccountLink(ctx context.Context, accountID string) (string, error)

	// CreateCheckoutSession opens a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, form *CheckoutForm) (*CheckoutSession, error)

	// ProcessRefund refunds a completed payment.
	ProcessRefund(ctx context.Context, paymentID, accountID string, amount decimal.Decimal) error

	// VerifyWebhook validates a webhook signature against the raw body.
	VerifyWebhook(body []byte, signature string) error

	// ParseWebhookEvent decodes a verified webhook body.
	ParseWebhookEvent(body []byte) (*WebhookEvent, error)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}
