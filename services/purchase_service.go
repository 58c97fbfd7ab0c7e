package services

import (
	"context"
	"fmt"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/utils"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

// PaymentInfo is the confirmed payment the webhook handler extracted
// from the provider event.
type PaymentInfo struct {
	PaymentIntentID string
	Amount          decimal.Decimal
}

// PurchaseService converts a paid-for offer into ticket rows. The
// status re-check inside the transaction is the idempotency mechanism:
// a duplicate webhook finds the reservation already purchased and fails
// cleanly instead of double-issuing tickets.
type PurchaseService struct {
	App      core.App
	Waitlist *WaitlistService
	Email    *EmailService
	PubNub   *pubnub.PubNub
	Monitor  *monitoring.Monitor
}

func NewPurchaseService(app core.App, waitlist *WaitlistService, email *EmailService, pn *pubnub.PubNub, monitor *monitoring.Monitor) *PurchaseService {
	return &PurchaseService{
		App:      app,
		Waitlist: waitlist,
		Email:    email,
		PubNub:   pn,
		Monitor:  monitor,
	}
}

// FinalizePurchase creates one ticket row per unit of quantity and marks
// the reservation purchased, all in one transaction. The paid amount is
// split evenly across tickets, rounded down to cents; ticket count, not
// money, bounds capacity.
func (s *PurchaseService) FinalizePurchase(ctx context.Context, eventID, userID, reservationID string, info PaymentInfo) ([]string, error) {
	now := time.Now()
	var ticketIDs []string
	var offerDeadline time.Time

	err := s.App.RunInTransaction(func(txApp core.App) error {
		resRec, err := txApp.FindRecordById(models.CollectionReservations, reservationID)
		if err != nil {
			return status.ErrReservationNotFound
		}
		reservation := models.ReservationFromRecord(resRec)

		if reservation.Status != models.ReservationOffered {
			return status.ErrOfferNoLongerValid
		}
		if reservation.UserID != userID {
			return status.ErrUserMismatch
		}

		eventRec, err := txApp.FindRecordById(models.CollectionEvents, eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		if eventRec.GetBool("is_cancelled") {
			return status.ErrEventCancelled
		}

		collection, err := txApp.FindCollectionByNameOrId(models.CollectionTickets)
		if err != nil {
			return err
		}

		quantity := reservation.Quantity
		unit := info.Amount.
			Div(decimal.NewFromInt(int64(quantity))).
			RoundDown(2)

		purchasedAt, err := types.ParseDateTime(now)
		if err != nil {
			return err
		}

		for i := 0; i < quantity; i++ {
			code, err := utils.GenerateCode(8)
			if err != nil {
				return fmt.Errorf("finalize: generate code: %w", err)
			}

			ticket := core.NewRecord(collection)
			ticket.Set("event", eventID)
			ticket.Set("user", userID)
			ticket.Set("status", models.TicketValid)
			ticket.Set("purchased_at", purchasedAt)
			ticket.Set("payment_intent_id", info.PaymentIntentID)
			ticket.Set("amount", unit.InexactFloat64())
			ticket.Set("unique_code", code)

			if err := txApp.Save(ticket); err != nil {
				return fmt.Errorf("finalize: save ticket: %w", err)
			}
			ticketIDs = append(ticketIDs, ticket.Id)
		}

		offerDeadline = reservation.OfferExpiresAt
		resRec.Set("status", models.ReservationPurchased)
		if err := txApp.Save(resRec); err != nil {
			return fmt.Errorf("finalize: save reservation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Monitor != nil {
		s.Monitor.TrackTicketsIssued(eventID, len(ticketIDs))
		if !offerDeadline.IsZero() {
			s.Monitor.TrackOfferFill(eventID, s.Waitlist.Config.OfferDuration-time.Until(offerDeadline))
		}
	}

	// Round-down remainders from the amount split free no capacity:
	// promotion only reacts to reservation state, which just changed.
	if err := s.Waitlist.PromoteQueue(ctx, eventID); err != nil {
		return ticketIDs, fmt.Errorf("finalize: promote: %w", err)
	}

	if s.Email != nil {
		go s.Email.SendTicketsEmail(ticketIDs, userID)
	}

	s.notifyUser(userID, map[string]any{
		"type":     "purchase_complete",
		"event_id": eventID,
		"tickets":  len(ticketIDs),
	})

	return ticketIDs, nil
}

func (s *PurchaseService) notifyUser(userID string, message map[string]any) {
	if s.PubNub == nil {
		return
	}
	s.PubNub.Publish().
		Channel(fmt.Sprintf("user-%s", userID)).
		Message(message).
		Execute()
}
