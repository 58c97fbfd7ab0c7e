package handlers

import (
	"net/http"

	"ticket-marketplace/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateCheckoutSession - Open a hosted checkout session for the
// caller's live offer. The buyer is redirected to the returned URL.
func (h *CheckoutHandler) CreateCheckoutSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	session, err := h.checkout.CreateCheckoutSession(e.Request.Context(), req.EventID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session_id":  session.SessionID,
		"session_url": session.SessionURL,
	})
}
