package models

import "github.com/pocketbase/pocketbase/core"

const (
	CollectionCheckoutSessions = "checkout_sessions"
	CollectionPaymentAccounts  = "payment_accounts"
)

// CheckoutSession correlates an external payment session back to the
// reservation it was created for.
type CheckoutSession struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	Provider      string  `json:"provider"`
	EventID       string  `json:"event_id"`
	UserID        string  `json:"user_id"`
	ReservationID string  `json:"reservation_id"`
	Price         float64 `json:"price"`
}

func CheckoutSessionFromRecord(r *core.Record) *CheckoutSession {
	return &CheckoutSession{
		ID:            r.Id,
		SessionID:     r.GetString("session_id"),
		Provider:      r.GetString("provider"),
		EventID:       r.GetString("event"),
		UserID:        r.GetString("user"),
		ReservationID: r.GetString("reservation"),
		Price:         r.GetFloat("price"),
	}
}

// PaymentAccount is a seller's onboarded account with one payment
// provider. The provider is chosen once and never changed.
type PaymentAccount struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Provider  string `json:"provider"`
	AccountID string `json:"account_id"`
	WalletID  string `json:"wallet_id,omitempty"`
	Onboarded bool   `json:"onboarded"`
}

func PaymentAccountFromRecord(r *core.Record) *PaymentAccount {
	return &PaymentAccount{
		ID:        r.Id,
		UserID:    r.GetString("user"),
		Provider:  r.GetString("provider"),
		AccountID: r.GetString("account_id"),
		WalletID:  r.GetString("wallet_id"),
		Onboarded: r.GetBool("onboarded"),
	}
}
