package services

import (
	"fmt"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// AvailabilityService derives live availability for an event. It has no
// stored state: every call recomputes from the ticket and reservation
// tables, because offers expire passively between sweeps.
type AvailabilityService struct {
	App core.App
}

func NewAvailabilityService(app core.App) *AvailabilityService {
	return &AvailabilityService{App: app}
}

// Availability returns the public availability view. When the event hides
// its counts the numeric fields are zeroed; the true values are still
// used internally for admission decisions.
func (s *AvailabilityService) Availability(eventID string) (*models.Availability, error) {
	eventRec, err := s.App.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	event := models.EventFromRecord(eventRec)

	avail, err := computeAvailability(s.App, event, time.Now())
	if err != nil {
		return nil, err
	}

	if !event.DisplayTotalTickets {
		return &models.Availability{
			IsSoldOut:          avail.IsSoldOut,
			AvailabilityHidden: true,
		}, nil
	}

	return avail, nil
}

// computeAvailability is the shared capacity math. Callers inside a
// transaction pass the transactional app so the read is atomic with
// their write.
func computeAvailability(app core.App, event *models.Event, now time.Time) (*models.Availability, error) {
	purchased, err := app.CountRecords(models.CollectionTickets,
		dbx.HashExp{"event": event.ID},
		dbx.In("status", models.TicketValid, models.TicketUsed),
	)
	if err != nil {
		return nil, fmt.Errorf("availability: count tickets: %w", err)
	}

	nowDT, err := types.ParseDateTime(now.UTC())
	if err != nil {
		return nil, fmt.Errorf("availability: parse now: %w", err)
	}

	// A technically-expired but not-yet-swept offer is excluded here but
	// still blocks a rejoin via the duplicate check; the window is
	// bounded by the sweep interval.
	offers, err := app.FindAllRecords(models.CollectionReservations,
		dbx.HashExp{"event": event.ID, "status": models.ReservationOffered},
		dbx.NewExp("offer_expires_at > {:now}", dbx.Params{"now": nowDT.String()}),
	)
	if err != nil {
		return nil, fmt.Errorf("availability: list offers: %w", err)
	}

	activeOffers := 0
	for _, rec := range offers {
		activeOffers += rec.GetInt("quantity")
	}

	remaining := event.TotalTickets - int(purchased) - activeOffers
	if remaining < 0 {
		remaining = 0
	}

	return &models.Availability{
		TotalTickets:     event.TotalTickets,
		PurchasedCount:   int(purchased),
		ActiveOffers:     activeOffers,
		RemainingTickets: remaining,
		IsSoldOut:        int(purchased)+activeOffers >= event.TotalTickets,
	}, nil
}
