package payment

import (
	"context"
	"fmt"

	"ticket-marketplace/internal/services/payment/stripepay"

	"github.com/shopspring/decimal"
)

// StripePayAdapter wraps the StripePay client to conform to Provider.
type StripePayAdapter struct {
	client *stripepay.StripePay
}

func NewStripePayAdapter(ctx context.Context, config *stripepay.Config) (*StripePayAdapter, error) {
	client, err := stripepay.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create StripePay client: %w", err)
	}

	return &StripePayAdapter{client: client}, nil
}

func (a *StripePayAdapter) Slug() ProviderSlug {
	return ProviderStripePay
}

func (a *StripePayAdapter) CreateAccount(ctx context.Context, data *AccountData) (*Account, error) {
	accountID, err := a.client.CreateAccount(ctx, data.Email, data.Country)
	if err != nil {
		return nil, err
	}

	// StripePay has no separate wallet concept; the account settles itself.
	return &Account{AccountID: accountID}, nil
}

func (a *StripePayAdapter) CreateAccountLink(ctx context.Context, accountID string) (string, error) {
	return a.client.CreateAccountLink(ctx, accountID, "")
}

func (a *StripePayAdapter) CreateCheckoutSession(ctx context.Context, form *CheckoutForm) (*CheckoutSession, error) {
	sessionID, sessionURL, err := a.client.CreateCheckoutSession(ctx, &stripepay.CheckoutForm{
		AccountID:     form.AccountID,
		ReferenceID:   form.ReservationID,
		Description:   form.EventName,
		UnitAmount:    form.UnitPrice,
		Quantity:      form.Quantity,
		FeePercent:    form.FeePercent,
		Currency:      form.Currency,
		SuccessURL:    form.SuccessURL,
		CancelURL:     form.CancelURL,
		ExpireMinutes: 30,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{SessionID: sessionID, SessionURL: sessionURL}, nil
}

func (a *StripePayAdapter) ProcessRefund(ctx context.Context, paymentID, accountID string, amount decimal.Decimal) error {
	return a.client.Refund(ctx, paymentID, accountID, amount)
}

func (a *StripePayAdapter) VerifyWebhook(body []byte, signature string) error {
	return a.client.VerifySignature(body, signature)
}

func (a *StripePayAdapter) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	event, err := a.client.ParseEvent(body)
	if err != nil {
		return nil, err
	}

	return &WebhookEvent{
		Type:            event.Type,
		Completed:       event.Type == "checkout.session.completed",
		SessionID:       event.SessionID,
		PaymentIntentID: event.PaymentIntent,
		Amount:          event.AmountTotal,
	}, nil
}

func (a *StripePayAdapter) Close(ctx context.Context) error {
	// StripePay keeps no long-lived connections.
	return nil
}
