package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticket-marketplace/config"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// ExpiryService transitions stale offers out of the holding state. Two
// redundant triggers feed it: the per-offer scheduled callback and the
// periodic sweep. Both re-check status inside the transaction, so racing
// triggers on the same row are no-ops after the first.
type ExpiryService struct {
	App      core.App
	Waitlist *WaitlistService
	Config   *config.Config
	Monitor  *monitoring.Monitor
}

func NewExpiryService(app core.App, waitlist *WaitlistService, cfg *config.Config, monitor *monitoring.Monitor) *ExpiryService {
	return &ExpiryService{
		App:      app,
		Waitlist: waitlist,
		Config:   cfg,
		Monitor:  monitor,
	}
}

// HandleOfferExpiry is the one-shot callback scheduled at offer time.
func (s *ExpiryService) HandleOfferExpiry(ctx context.Context, job ExpiryJob) {
	expired, err := s.expireReservation(job.ReservationID)
	if err != nil {
		log.Printf("Error expiring offer %s: %v", job.ReservationID, err)
		return
	}
	if !expired {
		// already purchased, released, or swept
		return
	}

	if s.Monitor != nil {
		s.Monitor.TrackOfferExpired(job.EventID, "callback")
	}

	if err := s.Waitlist.PromoteQueue(ctx, job.EventID); err != nil {
		log.Printf("Error promoting queue for event %s: %v", job.EventID, err)
	}
}

// SweepExpiredOffers scans all offers past their deadline across all
// events and promotes each affected event's queue once.
func (s *ExpiryService) SweepExpiredOffers(ctx context.Context) {
	nowDT, err := types.ParseDateTime(time.Now().UTC())
	if err != nil {
		log.Printf("Error preparing sweep timestamp: %v", err)
		return
	}

	stale, err := s.App.FindAllRecords(models.CollectionReservations,
		dbx.HashExp{"status": models.ReservationOffered},
		dbx.NewExp("offer_expires_at != '' AND offer_expires_at <= {:now}", dbx.Params{"now": nowDT.String()}),
	)
	if err != nil {
		log.Printf("Error scanning stale offers: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	affectedEvents := make(map[string]struct{})
	for _, rec := range stale {
		expired, err := s.expireReservation(rec.Id)
		if err != nil {
			log.Printf("Error sweeping offer %s: %v", rec.Id, err)
			continue
		}
		if !expired {
			continue
		}

		eventID := rec.GetString("event")
		affectedEvents[eventID] = struct{}{}
		if s.Monitor != nil {
			s.Monitor.TrackOfferExpired(eventID, "sweep")
		}
	}

	for eventID := range affectedEvents {
		if err := s.Waitlist.PromoteQueue(ctx, eventID); err != nil {
			log.Printf("Error promoting queue for event %s: %v", eventID, err)
		}
	}

	if len(affectedEvents) > 0 {
		log.Printf("Sweep expired %d offers across %d events", len(stale), len(affectedEvents))
	}
}

// expireReservation applies the offered -> expired transition. Returns
// false without writing when the row is no longer offered.
func (s *ExpiryService) expireReservation(reservationID string) (bool, error) {
	expired := false

	err := s.App.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindRecordById(models.CollectionReservations, reservationID)
		if err != nil {
			// row deleted (event cancellation); nothing to transition
			return nil
		}

		if rec.GetString("status") != models.ReservationOffered {
			return nil
		}

		rec.Set("status", models.ReservationExpired)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("expire reservation %s: %w", reservationID, err)
		}

		expired = true
		return nil
	})

	return expired, err
}

// CleanupStaleData removes checkout session metadata whose reservation
// left the offered state long ago. Unrelated to correctness; keeps the
// table from growing unbounded.
func (s *ExpiryService) CleanupStaleData(ctx context.Context) {
	cutoff, err := types.ParseDateTime(time.Now().Add(-s.Config.StaleSessionTTL).UTC())
	if err != nil {
		return
	}

	sessions, err := s.App.FindAllRecords(models.CollectionCheckoutSessions,
		dbx.NewExp("created <= {:cutoff}", dbx.Params{"cutoff": cutoff.String()}),
	)
	if err != nil {
		log.Printf("Error scanning stale checkout sessions: %v", err)
		return
	}

	removed := 0
	for _, rec := range sessions {
		res, err := s.App.FindRecordById(models.CollectionReservations, rec.GetString("reservation"))
		if err == nil && res.GetString("status") == models.ReservationOffered {
			continue
		}
		if err := s.App.Delete(rec); err != nil {
			log.Printf("Error deleting stale session %s: %v", rec.Id, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("Cleanup removed %d stale checkout sessions", removed)
	}
}
