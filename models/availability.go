package models

// Availability is the live view of an event's remaining capacity.
// Recomputed on every read because offers expire passively.
type Availability struct {
	TotalTickets       int  `json:"total_tickets"`
	PurchasedCount     int  `json:"purchased_count"`
	ActiveOffers       int  `json:"active_offers"`
	RemainingTickets   int  `json:"remaining_tickets"`
	IsSoldOut          bool `json:"is_sold_out"`
	AvailabilityHidden bool `json:"availability_hidden"`
}

type JoinResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// RefundResult reports the outcome of one ticket's refund attempt.
// Partial failures are returned per-ticket, never rolled back.
type RefundResult struct {
	TicketID string `json:"ticket_id"`
	Refunded bool   `json:"refunded"`
	Error    string `json:"error,omitempty"`
}
