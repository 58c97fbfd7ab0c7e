package handlers

import (
	"net/http"

	"ticket-marketplace/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type WaitlistHandler struct {
	app          *pocketbase.PocketBase
	waitlist     *services.WaitlistService
	availability *services.AvailabilityService
}

func NewWaitlistHandler(app *pocketbase.PocketBase, waitlist *services.WaitlistService, availability *services.AvailabilityService) *WaitlistHandler {
	return &WaitlistHandler{
		app:          app,
		waitlist:     waitlist,
		availability: availability,
	}
}

// JoinWaitlist - Join the waitlist for an event
func (h *WaitlistHandler) JoinWaitlist(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID  string `json:"event_id"`
		Quantity int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	result, err := h.waitlist.Join(e.Request.Context(), req.EventID, e.Auth.Id, req.Quantity)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, result)
}

// LeaveWaitlist - Abandon a waiting or offered reservation
func (h *WaitlistHandler) LeaveWaitlist(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.waitlist.Release(e.Request.Context(), req.EventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Successfully left waitlist"})
}

// GetQueuePosition - Current position among waiting reservations
func (h *WaitlistHandler) GetQueuePosition(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	position, err := h.waitlist.QueuePosition(e.Request.Context(), eventID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"position": position})
}

// GetAvailability - Live remaining capacity for an event (public)
func (h *WaitlistHandler) GetAvailability(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	availability, err := h.availability.Availability(eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, availability)
}
