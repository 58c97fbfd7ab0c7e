package handlers

import (
	"net/http"

	"ticket-marketplace/security"
	"ticket-marketplace/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	tickets *services.TicketService
	limiter *security.ScannerLimiter
}

func NewTicketHandler(tickets *services.TicketService, limiter *security.ScannerLimiter) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		limiter: limiter,
	}
}

// ConsumeTicket - Mark a ticket as used at the venue door. Accepts
// either a scanned QR payload or a raw ticket ID.
func (h *TicketHandler) ConsumeTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if h.limiter != nil && !h.limiter.Allow(e.Auth.Id) {
		return apis.NewApiError(http.StatusTooManyRequests, "Scanning too fast", nil)
	}

	var req struct {
		QRPayload string `json:"qr_payload"`
		TicketID  string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	var ticketID string
	var err error
	switch {
	case req.QRPayload != "":
		ticketID, err = h.tickets.ConsumeByQR(e.Request.Context(), req.QRPayload, e.Auth.Id)
	case req.TicketID != "":
		ticketID = req.TicketID
		err = h.tickets.Consume(e.Request.Context(), req.TicketID, e.Auth.Id)
	default:
		return apis.NewBadRequestError("QR payload or ticket ID required", nil)
	}
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":   "Ticket consumed",
		"ticket_id": ticketID,
	})
}

// GetScannerTickets - Valid tickets for an event, for the door scanner
func (h *TicketHandler) GetScannerTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	tickets, err := h.tickets.ScannerTickets(eventID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

// GetUserTickets - All of the caller's own tickets
func (h *TicketHandler) GetUserTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.tickets.UserTickets(e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

// PrintTicket - Printable PDF with the embedded QR code
func (h *TicketHandler) PrintTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")
	if ticketID == "" {
		return apis.NewBadRequestError("Ticket ID required", nil)
	}

	pdf, err := h.tickets.TicketPDF(ticketID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	e.Response.Header().Set("Content-Disposition", "attachment; filename=ticket-"+ticketID+".pdf")
	return e.Blob(http.StatusOK, "application/pdf", pdf)
}
