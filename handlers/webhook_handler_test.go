package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/internal/services/payment/stripepay"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookKey = "whsec_handler_test"

func newWebhookTestRegistry(t *testing.T) *payment.Registry {
	t.Helper()

	registry := payment.NewRegistry(payment.NewFactory())
	err := registry.Register(context.Background(), payment.ProviderStripePay, &stripepay.Config{
		SecretKey:  "sk_test",
		WebhookKey: testWebhookKey,
	})
	require.NoError(t, err)

	return registry
}

func newWebhookRequest(body []byte, signature string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripepay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("StripePay-Signature", signature)
	}

	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec

	return e, rec
}

func TestWebhookHandler_UnknownProvider(t *testing.T) {
	// empty registry, nothing configured
	handler := NewWebhookHandler(payment.NewRegistry(payment.NewFactory()), nil, nil, nil)

	e, _ := newWebhookRequest([]byte(`{}`), "")
	err := handler.HandleStripePayWebhook(e)

	assert.Error(t, err)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	handler := NewWebhookHandler(newWebhookTestRegistry(t), nil, nil, nil)

	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	e, _ := newWebhookRequest(body, "t=123,v1=deadbeef")
	err := handler.HandleStripePayWebhook(e)

	assert.Error(t, err)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	handler := NewWebhookHandler(newWebhookTestRegistry(t), nil, nil, nil)

	e, _ := newWebhookRequest([]byte(`{"type":"checkout.session.completed"}`), "")
	err := handler.HandleStripePayWebhook(e)

	assert.Error(t, err)
}

func TestWebhookHandler_IgnoredEventType(t *testing.T) {
	handler := NewWebhookHandler(newWebhookTestRegistry(t), nil, nil, nil)

	body := []byte(`{"type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`)
	e, rec := newWebhookRequest(body, stripepay.SignPayload(body, testWebhookKey, time.Now()))
	err := handler.HandleStripePayWebhook(e)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "received")
}

func TestWaitlistHandler_JoinUnauthorized(t *testing.T) {
	handler := &WaitlistHandler{}

	e, _ := newWebhookRequest([]byte(`{"event_id":"abc","quantity":1}`), "")
	err := handler.JoinWaitlist(e)

	assert.Error(t, err)
}

func TestWaitlistHandler_JoinMissingEventID(t *testing.T) {
	handler := &WaitlistHandler{}

	e, _ := newWebhookRequest([]byte(`{"quantity":1}`), "")
	e.Auth = &core.Record{}

	err := handler.JoinWaitlist(e)

	assert.Error(t, err)
}
