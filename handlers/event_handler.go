package handlers

import (
	"net/http"

	"ticket-marketplace/models"
	"ticket-marketplace/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	app    *pocketbase.PocketBase
	events *services.EventService
}

func NewEventHandler(app *pocketbase.PocketBase, events *services.EventService) *EventHandler {
	return &EventHandler{
		app:    app,
		events: events,
	}
}

// CreateEvent - Create a new event owned by the caller
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name                string  `json:"name"`
		Description         string  `json:"description"`
		Location            string  `json:"location"`
		EventDate           string  `json:"event_date"`
		Price               float64 `json:"price"`
		TotalTickets        int     `json:"total_tickets"`
		DisplayTotalTickets bool    `json:"display_total_tickets"`
		ImageURL            string  `json:"image_url"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" {
		return apis.NewBadRequestError("Name required", nil)
	}
	if req.TotalTickets < 1 {
		return apis.NewBadRequestError("Total tickets must be at least 1", nil)
	}
	if req.Price < 0 {
		return apis.NewBadRequestError("Price cannot be negative", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId(models.CollectionEvents)
	if err != nil {
		return apis.NewInternalServerError("Something went wrong", err)
	}

	record := core.NewRecord(collection)
	record.Set("name", req.Name)
	record.Set("description", req.Description)
	record.Set("location", req.Location)
	record.Set("event_date", req.EventDate)
	record.Set("price", req.Price)
	record.Set("total_tickets", req.TotalTickets)
	record.Set("display_total_tickets", req.DisplayTotalTickets)
	record.Set("image_url", req.ImageURL)
	record.Set("is_cancelled", false)
	record.Set("user", e.Auth.Id)

	if err := h.app.Save(record); err != nil {
		return apis.NewBadRequestError("Failed to create event", err)
	}

	return e.JSON(http.StatusOK, models.EventFromRecord(record))
}

// UpdateEvent - Update event details; capacity changes go through the
// guarded path so sold tickets are never stranded.
func (h *EventHandler) UpdateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	var req struct {
		Name                *string  `json:"name"`
		Description         *string  `json:"description"`
		Location            *string  `json:"location"`
		EventDate           *string  `json:"event_date"`
		Price               *float64 `json:"price"`
		TotalTickets        *int     `json:"total_tickets"`
		DisplayTotalTickets *bool    `json:"display_total_tickets"`
		ImageURL            *string  `json:"image_url"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	record, err := h.app.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	if record.GetString("user") != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	if req.Name != nil {
		record.Set("name", *req.Name)
	}
	if req.Description != nil {
		record.Set("description", *req.Description)
	}
	if req.Location != nil {
		record.Set("location", *req.Location)
	}
	if req.EventDate != nil {
		record.Set("event_date", *req.EventDate)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return apis.NewBadRequestError("Price cannot be negative", nil)
		}
		record.Set("price", *req.Price)
	}
	if req.DisplayTotalTickets != nil {
		record.Set("display_total_tickets", *req.DisplayTotalTickets)
	}
	if req.ImageURL != nil {
		record.Set("image_url", *req.ImageURL)
	}

	if err := h.app.Save(record); err != nil {
		return apis.NewBadRequestError("Failed to update event", err)
	}

	if req.TotalTickets != nil {
		if err := h.events.UpdateCapacity(e.Request.Context(), eventID, e.Auth.Id, *req.TotalTickets); err != nil {
			return apiError(err)
		}
		record, _ = h.app.FindRecordById(models.CollectionEvents, eventID)
	}

	return e.JSON(http.StatusOK, models.EventFromRecord(record))
}

// CancelEvent - Cancel an event once all tickets are refunded
func (h *EventHandler) CancelEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	if err := h.events.CancelEvent(e.Request.Context(), eventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Event cancelled"})
}

// RefundEvent - Refund every outstanding ticket for an event
func (h *EventHandler) RefundEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	results, err := h.events.RefundEventTickets(e.Request.Context(), eventID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"refunds": results})
}
