package status

import (
	"errors"
	"fmt"
	"time"
)

// Admission errors surfaced verbatim to the caller.
var (
	ErrDuplicateReservation     = errors.New("waitlist: an active reservation already exists for this event")
	ErrInsufficientAvailability = errors.New("waitlist: not enough tickets available for the requested quantity")
	ErrSoldOut                  = errors.New("waitlist: event is sold out")
	ErrInvalidQuantity          = errors.New("waitlist: quantity must be at least 1")
	ErrEventEnded               = errors.New("waitlist: event has already ended")
)

// Integrity errors: stale client state or a race that resolved against the caller.
var (
	ErrEventNotFound       = errors.New("event: event not found")
	ErrEventCancelled      = errors.New("event: event has been cancelled")
	ErrReservationNotFound = errors.New("reservation: reservation not found")
	ErrOfferNoLongerValid  = errors.New("reservation: offer is no longer valid")
	ErrUserMismatch        = errors.New("reservation: reservation belongs to another user")
	ErrTicketNotFound      = errors.New("ticket: ticket not found")
	ErrTicketNotValid      = errors.New("ticket: ticket is not valid")
	ErrAccessDenied        = errors.New("access denied")
	ErrActiveTicketsExist  = errors.New("event: refund all tickets before cancelling")
	ErrSessionNotFound     = errors.New("checkout: session not found")
	ErrAccountNotFound     = errors.New("payment: seller account not found")
)

// Upstream errors: the payment provider call failed; the HTTP layer retries.
var (
	ErrPaymentProvider  = errors.New("payment: provider request failed")
	ErrInvalidSignature = errors.New("payment: webhook signature verification failed")
)

// RateLimitedError carries the remaining window so clients can back off.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("waitlist: rate limited, retry after %s", e.RetryAfter)
}
