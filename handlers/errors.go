package handlers

import (
	"errors"
	"net/http"

	"ticket-marketplace/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// apiError maps service-layer errors onto HTTP responses. Unknown
// errors become opaque 500s so internals never leak to clients.
func apiError(err error) error {
	var limited *status.RateLimitedError
	if errors.As(err, &limited) {
		return apis.NewApiError(http.StatusTooManyRequests, "Too many join attempts", map[string]any{
			"retry_after_seconds": int(limited.RetryAfter.Seconds()),
		})
	}

	switch {
	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrReservationNotFound),
		errors.Is(err, status.ErrTicketNotFound),
		errors.Is(err, status.ErrSessionNotFound),
		errors.Is(err, status.ErrAccountNotFound):
		return apis.NewNotFoundError(err.Error(), err)

	case errors.Is(err, status.ErrAccessDenied),
		errors.Is(err, status.ErrUserMismatch):
		return apis.NewForbiddenError(err.Error(), err)

	case errors.Is(err, status.ErrDuplicateReservation),
		errors.Is(err, status.ErrInvalidQuantity),
		errors.Is(err, status.ErrInsufficientAvailability),
		errors.Is(err, status.ErrSoldOut),
		errors.Is(err, status.ErrEventEnded),
		errors.Is(err, status.ErrEventCancelled),
		errors.Is(err, status.ErrOfferNoLongerValid),
		errors.Is(err, status.ErrTicketNotValid),
		errors.Is(err, status.ErrActiveTicketsExist),
		errors.Is(err, status.ErrInvalidSignature):
		return apis.NewBadRequestError(err.Error(), err)

	case errors.Is(err, status.ErrPaymentProvider):
		return apis.NewApiError(http.StatusBadGateway, "Payment provider unavailable", nil)

	default:
		return apis.NewInternalServerError("Something went wrong", err)
	}
}
