package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const CollectionTickets = "tickets"

// Ticket statuses. valid -> used by the scanner, valid/used -> refunded
// by the refund flow; transitions are never reversed.
const (
	TicketValid     = "valid"
	TicketUsed      = "used"
	TicketRefunded  = "refunded"
	TicketCancelled = "cancelled"
)

type Ticket struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	Status          string    `json:"status"`
	PurchasedAt     time.Time `json:"purchased_at"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	Amount          float64   `json:"amount"`
	UniqueCode      string    `json:"unique_code"`
}

func TicketFromRecord(r *core.Record) *Ticket {
	return &Ticket{
		ID:              r.Id,
		EventID:         r.GetString("event"),
		UserID:          r.GetString("user"),
		Status:          r.GetString("status"),
		PurchasedAt:     r.GetDateTime("purchased_at").Time(),
		PaymentIntentID: r.GetString("payment_intent_id"),
		Amount:          r.GetFloat("amount"),
		UniqueCode:      r.GetString("unique_code"),
	}
}

// Counted reports whether the ticket counts toward sold capacity.
func (t *Ticket) Counted() bool {
	return t.Status == TicketValid || t.Status == TicketUsed
}
