package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// WebhookHandler receives payment provider notifications. Each provider
// posts to its own route so the right signature scheme is applied
// before anything else looks at the body.
type WebhookHandler struct {
	registry *payment.Registry
	checkout *services.CheckoutService
	purchase *services.PurchaseService
	monitor  *monitoring.Monitor
}

func NewWebhookHandler(registry *payment.Registry, checkout *services.CheckoutService, purchase *services.PurchaseService, monitor *monitoring.Monitor) *WebhookHandler {
	return &WebhookHandler{
		registry: registry,
		checkout: checkout,
		purchase: purchase,
		monitor:  monitor,
	}
}

// HandleStripePayWebhook - StripePay event notifications
func (h *WebhookHandler) HandleStripePayWebhook(e *core.RequestEvent) error {
	signature := e.Request.Header.Get("StripePay-Signature")
	return h.handle(e, payment.ProviderStripePay, signature)
}

// HandlePaystackWebhook - Paystack event notifications
func (h *WebhookHandler) HandlePaystackWebhook(e *core.RequestEvent) error {
	signature := e.Request.Header.Get("X-Paystack-Signature")
	return h.handle(e, payment.ProviderPaystack, signature)
}

func (h *WebhookHandler) handle(e *core.RequestEvent, slug payment.ProviderSlug, signature string) error {
	provider, err := h.registry.Get(slug)
	if err != nil {
		return apis.NewNotFoundError("Unknown provider", nil)
	}

	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Cannot read body", err)
	}

	if err := provider.VerifyWebhook(body, signature); err != nil {
		h.track(slug, "invalid_signature")
		return apis.NewBadRequestError("Invalid signature", nil)
	}

	event, err := provider.ParseWebhookEvent(body)
	if err != nil {
		h.track(slug, "parse_error")
		return apis.NewBadRequestError("Invalid payload", nil)
	}

	// Recognized but uninteresting event types are acknowledged so the
	// provider stops retrying them.
	if !event.Completed {
		h.track(slug, "ignored")
		return e.JSON(http.StatusOK, map[string]any{"received": true})
	}

	session, err := h.checkout.LookupSession(event.SessionID, slug)
	if err != nil {
		h.track(slug, "unknown_session")
		return apis.NewNotFoundError("Unknown session", nil)
	}

	ticketIDs, err := h.purchase.FinalizePurchase(
		e.Request.Context(),
		session.EventID,
		session.UserID,
		session.ReservationID,
		services.PaymentInfo{
			PaymentIntentID: event.PaymentIntentID,
			Amount:          event.Amount,
		},
	)
	if err != nil {
		// A replayed webhook finds the reservation already purchased;
		// that is success, not an error.
		if errors.Is(err, status.ErrOfferNoLongerValid) {
			h.track(slug, "duplicate")
			return e.JSON(http.StatusOK, map[string]any{"received": true})
		}
		h.track(slug, "failed")
		log.Printf("Webhook finalize failed for session %s: %v", event.SessionID, err)
		return apis.NewInternalServerError("Finalize failed", nil)
	}

	h.track(slug, "success")
	return e.JSON(http.StatusOK, map[string]any{
		"received":     true,
		"ticket_count": len(ticketIDs),
	})
}

func (h *WebhookHandler) track(slug payment.ProviderSlug, outcome string) {
	if h.monitor != nil {
		h.monitor.TrackWebhook(string(slug), outcome)
	}
}
