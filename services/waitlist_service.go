package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticket-marketplace/config"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/security"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
)

// WaitlistService is the admission engine: it decides whether a join
// becomes a time-boxed offer or a wait entry, and promotes waiting
// buyers when capacity frees up. All capacity checks happen inside the
// same transaction as the reservation write.
type WaitlistService struct {
	App       core.App
	Redis     *redis.Client
	PubNub    *pubnub.PubNub
	Config    *config.Config
	Scheduler *Scheduler
	Limiter   *security.JoinLimiter
	Monitor   *monitoring.Monitor
}

func NewWaitlistService(app core.App, redisClient *redis.Client, pn *pubnub.PubNub, cfg *config.Config, scheduler *Scheduler, monitor *monitoring.Monitor) *WaitlistService {
	return &WaitlistService{
		App:       app,
		Redis:     redisClient,
		PubNub:    pn,
		Config:    cfg,
		Scheduler: scheduler,
		Limiter:   security.NewJoinLimiter(redisClient, cfg.JoinRateLimit, cfg.JoinRateWindow),
		Monitor:   monitor,
	}
}

// Join admits a buyer to the waitlist for an event. Returns an offered
// reservation when enough spots are free, a waiting one when the event
// is fully held, and an error when 0 < available < quantity so the
// client can suggest reducing the request.
func (s *WaitlistService) Join(ctx context.Context, eventID, userID string, quantity int) (*models.JoinResult, error) {
	if quantity < 1 {
		return nil, status.ErrInvalidQuantity
	}

	if s.Limiter != nil {
		ok, retryAfter, err := s.Limiter.Allow(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.trackJoin(eventID, "rate_limited")
			return nil, &status.RateLimitedError{RetryAfter: retryAfter}
		}
	}

	now := time.Now()
	result := &models.JoinResult{}

	err := s.App.RunInTransaction(func(txApp core.App) error {
		eventRec, err := txApp.FindRecordById(models.CollectionEvents, eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		event := models.EventFromRecord(eventRec)

		if event.IsCancelled {
			return status.ErrEventCancelled
		}
		if event.HasEnded(now) {
			return status.ErrEventEnded
		}

		// One non-expired reservation per (user, event). Note: an
		// offered row past its expiry but not yet swept still blocks
		// here, by design.
		existing, err := txApp.FindAllRecords(models.CollectionReservations,
			dbx.HashExp{"event": eventID, "user": userID},
			dbx.Not(dbx.HashExp{"status": models.ReservationExpired}),
		)
		if err != nil {
			return fmt.Errorf("join: duplicate check: %w", err)
		}
		if len(existing) > 0 {
			return status.ErrDuplicateReservation
		}

		avail, err := computeAvailability(txApp, event, now)
		if err != nil {
			return err
		}

		if avail.RemainingTickets > 0 && avail.RemainingTickets < quantity {
			return status.ErrInsufficientAvailability
		}

		collection, err := txApp.FindCollectionByNameOrId(models.CollectionReservations)
		if err != nil {
			return err
		}

		rec := core.NewRecord(collection)
		rec.Set("event", eventID)
		rec.Set("user", userID)
		rec.Set("quantity", quantity)

		if avail.RemainingTickets >= quantity {
			expires, err := types.ParseDateTime(now.Add(s.Config.OfferDuration))
			if err != nil {
				return err
			}
			rec.Set("status", models.ReservationOffered)
			rec.Set("offer_expires_at", expires)
		} else {
			rec.Set("status", models.ReservationWaiting)
		}

		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("join: save reservation: %w", err)
		}

		result.ReservationID = rec.Id
		result.Status = rec.GetString("status")
		return nil
	})
	if err != nil {
		s.trackJoin(eventID, "error")
		return nil, err
	}

	if result.Status == models.ReservationOffered {
		s.scheduleExpiry(ctx, result.ReservationID, eventID)
		s.notifyUser(userID, map[string]any{
			"type":       "offer_ready",
			"event_id":   eventID,
			"expires_in": s.Config.OfferDuration.Seconds(),
		})
	}

	s.trackJoin(eventID, result.Status)
	return result, nil
}

// PromoteQueue evaluates the waiting queue after capacity frees up.
// Promotion is strict FIFO: the walk stops at the first waiting entry
// that does not fit the residual capacity, even if a smaller entry
// behind it would.
func (s *WaitlistService) PromoteQueue(ctx context.Context, eventID string) error {
	now := time.Now()

	type promotion struct {
		reservationID string
		userID        string
	}
	var promoted []promotion

	err := s.App.RunInTransaction(func(txApp core.App) error {
		eventRec, err := txApp.FindRecordById(models.CollectionEvents, eventID)
		if err != nil {
			// event deleted under us, nothing to promote
			return nil
		}
		event := models.EventFromRecord(eventRec)
		if event.IsCancelled {
			return nil
		}

		avail, err := computeAvailability(txApp, event, now)
		if err != nil {
			return err
		}
		remaining := avail.RemainingTickets
		if remaining <= 0 {
			return nil
		}

		waiting, err := txApp.FindRecordsByFilter(models.CollectionReservations,
			"event = {:event} && status = {:status}",
			"created", 0, 0,
			dbx.Params{"event": eventID, "status": models.ReservationWaiting},
		)
		if err != nil {
			return fmt.Errorf("promote: list waiting: %w", err)
		}

		expires, err := types.ParseDateTime(now.Add(s.Config.OfferDuration))
		if err != nil {
			return err
		}

		for _, rec := range waiting {
			quantity := rec.GetInt("quantity")
			if quantity > remaining {
				break
			}

			rec.Set("status", models.ReservationOffered)
			rec.Set("offer_expires_at", expires)
			if err := saveRecord(txApp, rec); err != nil {
				return err
			}

			remaining -= quantity
			promoted = append(promoted, promotion{
				reservationID: rec.Id,
				userID:        rec.GetString("user"),
			})
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range promoted {
		s.scheduleExpiry(ctx, p.reservationID, eventID)
		s.notifyUser(p.userID, map[string]any{
			"type":       "offer_ready",
			"event_id":   eventID,
			"expires_in": s.Config.OfferDuration.Seconds(),
		})
		s.trackOp("promote", eventID, "success")
	}

	return nil
}

// Release is a user-initiated early expiry: identical effect to the
// passive timeout, including promotion of the next waiting buyer.
func (s *WaitlistService) Release(ctx context.Context, eventID, userID string) error {
	wasOffered := false

	err := s.App.RunInTransaction(func(txApp core.App) error {
		active, err := txApp.FindAllRecords(models.CollectionReservations,
			dbx.HashExp{"event": eventID, "user": userID},
			dbx.In("status", models.ReservationWaiting, models.ReservationOffered),
		)
		if err != nil {
			return fmt.Errorf("release: lookup: %w", err)
		}
		if len(active) == 0 {
			return status.ErrReservationNotFound
		}

		rec := active[0]
		wasOffered = rec.GetString("status") == models.ReservationOffered

		rec.Set("status", models.ReservationExpired)
		return saveRecord(txApp, rec)
	})
	if err != nil {
		return err
	}

	s.trackOp("release", eventID, "success")

	if wasOffered {
		return s.PromoteQueue(ctx, eventID)
	}
	return nil
}

// QueuePosition returns the 1-based position among waiting entries. The
// value is cached briefly to keep polling clients off the store.
func (s *WaitlistService) QueuePosition(ctx context.Context, eventID, userID string) (int, error) {
	posKey := fmt.Sprintf("queue:position:%s:%s", eventID, userID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, posKey).Int(); err == nil {
			return cached, nil
		}
	}

	mine, err := s.App.FindFirstRecordByFilter(models.CollectionReservations,
		"event = {:event} && user = {:user} && status = {:status}",
		dbx.Params{"event": eventID, "user": userID, "status": models.ReservationWaiting},
	)
	if err != nil {
		return 0, status.ErrReservationNotFound
	}

	ahead, err := s.App.CountRecords(models.CollectionReservations,
		dbx.HashExp{"event": eventID, "status": models.ReservationWaiting},
		dbx.NewExp("created <= {:created}", dbx.Params{"created": mine.GetDateTime("created").String()}),
	)
	if err != nil {
		return 0, fmt.Errorf("queue position: count: %w", err)
	}

	position := int(ahead)
	if s.Redis != nil {
		s.Redis.Set(ctx, posKey, position, 5*time.Second)
	}

	return position, nil
}

func (s *WaitlistService) scheduleExpiry(ctx context.Context, reservationID, eventID string) {
	if s.Scheduler == nil {
		return
	}
	err := s.Scheduler.Schedule(ctx, ExpiryJob{
		ReservationID: reservationID,
		EventID:       eventID,
	}, s.Config.OfferDuration)
	if err != nil {
		// the periodic sweep covers a lost callback
		log.Printf("Error scheduling offer expiry for %s: %v", reservationID, err)
	}
}

func (s *WaitlistService) notifyUser(userID string, message map[string]any) {
	if s.PubNub == nil {
		return
	}
	channel := fmt.Sprintf("user-%s", userID)
	s.PubNub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}

func (s *WaitlistService) trackJoin(eventID, outcome string) {
	s.trackOp("join", eventID, outcome)
}

func (s *WaitlistService) trackOp(operation, eventID, outcome string) {
	if s.Monitor != nil {
		s.Monitor.TrackWaitlistOperation(operation, eventID, outcome)
	}
}

func saveRecord(app core.App, rec *core.Record) error {
	if err := app.Save(rec); err != nil {
		return fmt.Errorf("save %s record: %w", rec.Collection().Name, err)
	}
	return nil
}
