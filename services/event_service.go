package services

import (
	"context"
	"fmt"
	"log"

	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// EventService owns the event lifecycle edges coupled to the allocation
// engine: capacity changes, cancellation, and refunds.
type EventService struct {
	App      core.App
	Registry *payment.Registry
	Waitlist *WaitlistService
}

func NewEventService(app core.App, registry *payment.Registry, waitlist *WaitlistService) *EventService {
	return &EventService{
		App:      app,
		Registry: registry,
		Waitlist: waitlist,
	}
}

// UpdateCapacity changes total_tickets. Shrinking below the number of
// already-sold tickets is rejected; growth frees capacity and promotes.
func (s *EventService) UpdateCapacity(ctx context.Context, eventID, requesterID string, newTotal int) error {
	grew := false

	err := s.App.RunInTransaction(func(txApp core.App) error {
		eventRec, err := txApp.FindRecordById(models.CollectionEvents, eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		if eventRec.GetString("user") != requesterID {
			return status.ErrAccessDenied
		}

		sold, err := txApp.CountRecords(models.CollectionTickets,
			dbx.HashExp{"event": eventID},
			dbx.In("status", models.TicketValid, models.TicketUsed),
		)
		if err != nil {
			return fmt.Errorf("update capacity: count sold: %w", err)
		}
		if int64(newTotal) < sold {
			return fmt.Errorf("update capacity: new total %d below %d sold tickets", newTotal, sold)
		}

		grew = newTotal > eventRec.GetInt("total_tickets")
		eventRec.Set("total_tickets", newTotal)
		return txApp.Save(eventRec)
	})
	if err != nil {
		return err
	}

	if grew {
		return s.Waitlist.PromoteQueue(ctx, eventID)
	}
	return nil
}

// CancelEvent is only possible once every ticket is refunded or
// cancelled; it then removes all reservation rows outright. No expiry
// grace: cancellation is immediate and final.
func (s *EventService) CancelEvent(ctx context.Context, eventID, requesterID string) error {
	return s.App.RunInTransaction(func(txApp core.App) error {
		eventRec, err := txApp.FindRecordById(models.CollectionEvents, eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		if eventRec.GetString("user") != requesterID {
			return status.ErrAccessDenied
		}

		active, err := txApp.CountRecords(models.CollectionTickets,
			dbx.HashExp{"event": eventID},
			dbx.In("status", models.TicketValid, models.TicketUsed),
		)
		if err != nil {
			return fmt.Errorf("cancel event: count tickets: %w", err)
		}
		if active > 0 {
			return status.ErrActiveTicketsExist
		}

		eventRec.Set("is_cancelled", true)
		if err := txApp.Save(eventRec); err != nil {
			return fmt.Errorf("cancel event: save: %w", err)
		}

		reservations, err := txApp.FindAllRecords(models.CollectionReservations,
			dbx.HashExp{"event": eventID},
		)
		if err != nil {
			return fmt.Errorf("cancel event: list reservations: %w", err)
		}
		for _, rec := range reservations {
			if err := txApp.Delete(rec); err != nil {
				return fmt.Errorf("cancel event: delete reservation %s: %w", rec.Id, err)
			}
		}

		return nil
	})
}

// RefundEventTickets refunds every valid/used ticket through the event
// owner's provider. Failures are collected per ticket, not rolled back,
// so the caller can decide whether to proceed with cancellation.
func (s *EventService) RefundEventTickets(ctx context.Context, eventID, requesterID string) ([]models.RefundResult, error) {
	eventRec, err := s.App.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	if eventRec.GetString("user") != requesterID {
		return nil, status.ErrAccessDenied
	}

	accountRec, err := s.App.FindFirstRecordByFilter(models.CollectionPaymentAccounts,
		"user = {:user} && onboarded = true",
		dbx.Params{"user": requesterID},
	)
	if err != nil {
		return nil, status.ErrAccountNotFound
	}
	account := models.PaymentAccountFromRecord(accountRec)

	provider, err := s.Registry.Get(payment.ProviderSlug(account.Provider))
	if err != nil {
		return nil, err
	}

	recs, err := s.App.FindAllRecords(models.CollectionTickets,
		dbx.HashExp{"event": eventID},
		dbx.In("status", models.TicketValid, models.TicketUsed),
	)
	if err != nil {
		return nil, fmt.Errorf("refund: list tickets: %w", err)
	}

	results := make([]models.RefundResult, 0, len(recs))
	for _, rec := range recs {
		ticket := models.TicketFromRecord(rec)
		result := models.RefundResult{TicketID: ticket.ID}

		err := provider.ProcessRefund(ctx, ticket.PaymentIntentID, account.AccountID, decimal.NewFromFloat(ticket.Amount))
		if err != nil {
			log.Printf("Refund of ticket %s failed: %v", ticket.ID, err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		rec.Set("status", models.TicketRefunded)
		if err := s.App.Save(rec); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Refunded = true
		results = append(results, result)
	}

	return results, nil
}
