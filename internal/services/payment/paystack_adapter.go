package payment

import (
	"context"
	"fmt"

	"ticket-marketplace/internal/services/payment/paystack"

	"github.com/shopspring/decimal"
)

// PaystackAdapter wraps the Paystack client to conform to Provider.
type PaystackAdapter struct {
	client paystack.Paystack
}

func NewPaystackAdapter(ctx context.Context, config *paystack.Config) (*PaystackAdapter, error) {
	client, err := paystack.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Paystack client: %w", err)
	}

	return &PaystackAdapter{client: client}, nil
}

func (a *PaystackAdapter) Slug() ProviderSlug {
	return ProviderPaystack
}

func (a *PaystackAdapter) CreateAccount(ctx context.Context, data *AccountData) (*Account, error) {
	code, err := a.client.CreateSubaccount(ctx, data.BusinessName, data.Email)
	if err != nil {
		return nil, err
	}

	// The subaccount code doubles as the settlement wallet identifier.
	return &Account{AccountID: code, WalletID: code}, nil
}

func (a *PaystackAdapter) CreateAccountLink(ctx context.Context, accountID string) (string, error) {
	// Paystack subaccounts are active on creation; the dashboard is the
	// only onboarding surface.
	return "https://dashboard.paystack.com/#/subaccounts", nil
}

func (a *PaystackAdapter) CreateCheckoutSession(ctx context.Context, form *CheckoutForm) (*CheckoutSession, error) {
	total := form.UnitPrice.Mul(decimal.NewFromInt(int64(form.Quantity)))

	reference, authURL, err := a.client.InitializeTransaction(ctx, &paystack.TransactionForm{
		SubaccountCode: form.AccountID,
		ReferenceID:    form.ReservationID,
		Email:          form.CustomerEmail,
		Amount:         total,
		FeePercent:     form.FeePercent,
		Currency:       form.Currency,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{SessionID: reference, SessionURL: authURL}, nil
}

func (a *PaystackAdapter) ProcessRefund(ctx context.Context, paymentID, accountID string, amount decimal.Decimal) error {
	return a.client.Refund(ctx, paymentID, amount)
}

func (a *PaystackAdapter) VerifyWebhook(body []byte, signature string) error {
	return a.client.VerifySignature(body, signature)
}

func (a *PaystackAdapter) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	event, err := a.client.ParseEvent(body)
	if err != nil {
		return nil, err
	}

	return &WebhookEvent{
		Type:            event.Type,
		Completed:       event.Type == "charge.success",
		SessionID:       event.Reference,
		PaymentIntentID: event.TransactionID,
		Amount:          event.Amount,
	}, nil
}

func (a *PaystackAdapter) Close(ctx context.Context) error {
	return nil
}
