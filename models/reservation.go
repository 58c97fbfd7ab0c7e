package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const CollectionReservations = "reservations"

// Reservation statuses. Expired and purchased rows are terminal.
const (
	ReservationWaiting   = "waiting"
	ReservationOffered   = "offered"
	ReservationPurchased = "purchased"
	ReservationExpired   = "expired"
)

type Reservation struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	Quantity       int       `json:"quantity"`
	OfferExpiresAt time.Time `json:"offer_expires_at,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ReservationFromRecord(r *core.Record) *Reservation {
	return &Reservation{
		ID:             r.Id,
		EventID:        r.GetString("event"),
		UserID:         r.GetString("user"),
		Status:         r.GetString("status"),
		Quantity:       r.GetInt("quantity"),
		OfferExpiresAt: r.GetDateTime("offer_expires_at").Time(),
		CreatedAt:      r.GetDateTime("created").Time(),
	}
}

// IsActive reports whether the row still blocks a new reservation
// for the same (user, event) pair.
func (r *Reservation) IsActive() bool {
	return r.Status != ReservationExpired
}

// OfferLive reports whether an offered row still counts against capacity.
func (r *Reservation) OfferLive(now time.Time) bool {
	return r.Status == ReservationOffered && r.OfferExpiresAt.After(now)
}
