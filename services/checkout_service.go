package services

import (
	"context"
	"fmt"
	"time"

	"ticket-marketplace/config"
	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// CheckoutService opens a provider checkout session for a buyer holding
// a live offer, and records the session metadata the webhook handler
// later correlates back to the reservation.
type CheckoutService struct {
	App      core.App
	Registry *payment.Registry
	Config   *config.Config
}

func NewCheckoutService(app core.App, registry *payment.Registry, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		App:      app,
		Registry: registry,
		Config:   cfg,
	}
}

// CreateCheckoutSession requires a currently-offered reservation. The
// provider is the one the event owner onboarded with; buyers don't pick.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, eventID, userID string) (*payment.CheckoutSession, error) {
	resRec, err := s.App.FindFirstRecordByFilter(models.CollectionReservations,
		"event = {:event} && user = {:user} && status = {:status}",
		dbx.Params{"event": eventID, "user": userID, "status": models.ReservationOffered},
	)
	if err != nil {
		return nil, status.ErrReservationNotFound
	}
	reservation := models.ReservationFromRecord(resRec)

	if !reservation.OfferExpiresAt.After(time.Now()) {
		return nil, status.ErrOfferNoLongerValid
	}

	eventRec, err := s.App.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	event := models.EventFromRecord(eventRec)
	if event.IsCancelled {
		return nil, status.ErrEventCancelled
	}

	accountRec, err := s.App.FindFirstRecordByFilter(models.CollectionPaymentAccounts,
		"user = {:user} && onboarded = true",
		dbx.Params{"user": event.UserID},
	)
	if err != nil {
		return nil, status.ErrAccountNotFound
	}
	account := models.PaymentAccountFromRecord(accountRec)

	provider, err := s.Registry.Get(payment.ProviderSlug(account.Provider))
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	email := ""
	if userRec, err := s.App.FindRecordById("users", userID); err == nil {
		email = userRec.Email()
	}

	session, err := provider.CreateCheckoutSession(ctx, &payment.CheckoutForm{
		AccountID:     account.AccountID,
		EventID:       eventID,
		EventName:     event.Name,
		ReservationID: reservation.ID,
		UserID:        userID,
		CustomerEmail: email,
		UnitPrice:     decimal.NewFromFloat(event.Price),
		Quantity:      reservation.Quantity,
		FeePercent:    s.Config.PlatformFeePercent,
		Currency:      "usd",
		SuccessURL:    s.Config.PublicURL + "/tickets",
		CancelURL:     s.Config.PublicURL + "/event/" + eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrPaymentProvider, err)
	}

	collection, err := s.App.FindCollectionByNameOrId(models.CollectionCheckoutSessions)
	if err != nil {
		return nil, err
	}

	rec := core.NewRecord(collection)
	rec.Set("session_id", session.SessionID)
	rec.Set("provider", account.Provider)
	rec.Set("event", eventID)
	rec.Set("user", userID)
	rec.Set("reservation", reservation.ID)
	rec.Set("price", event.Price)

	if err := s.App.Save(rec); err != nil {
		return nil, fmt.Errorf("checkout: save session metadata: %w", err)
	}

	return session, nil
}

// LookupSession resolves stored metadata by (sessionID, provider).
func (s *CheckoutService) LookupSession(sessionID string, provider payment.ProviderSlug) (*models.CheckoutSession, error) {
	rec, err := s.App.FindFirstRecordByFilter(models.CollectionCheckoutSessions,
		"session_id = {:sid} && provider = {:provider}",
		dbx.Params{"sid": sessionID, "provider": string(provider)},
	)
	if err != nil {
		return nil, status.ErrSessionNotFound
	}
	return models.CheckoutSessionFromRecord(rec), nil
}
