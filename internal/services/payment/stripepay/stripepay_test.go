package stripepay

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookKey = "whsec_test_key"

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()

	header := SignPayload(body, testWebhookKey, now)

	err := verifySignature(body, header, testWebhookKey, now, SignatureTolerance)
	assert.NoError(t, err)
}

func TestVerifySignature_WrongKey(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()

	header := SignPayload(body, "whsec_other_key", now)

	err := verifySignature(body, header, testWebhookKey, now, SignatureTolerance)
	assert.Error(t, err)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := SignPayload([]byte(`{"amount":100}`), testWebhookKey, now)

	err := verifySignature([]byte(`{"amount":999}`), header, testWebhookKey, now, SignatureTolerance)
	assert.Error(t, err)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	body := []byte(`{}`)
	signedAt := time.Now().Add(-10 * time.Minute)

	header := SignPayload(body, testWebhookKey, signedAt)

	err := verifySignature(body, header, testWebhookKey, time.Now(), SignatureTolerance)
	assert.Error(t, err)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)

	err := verifySignature(body, "garbage", testWebhookKey, time.Now(), SignatureTolerance)
	assert.Error(t, err)

	err = verifySignature(body, "t=abc,v1=def", testWebhookKey, time.Now(), SignatureTolerance)
	assert.Error(t, err)
}

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	body := []byte(`{
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_abc",
				"payment_intent": "pi_test_xyz",
				"amount_total": 12550
			}
		}
	}`)

	event, err := parseEvent(body)
	require.NoError(t, err)

	assert.Equal(t, "checkout.session.completed", event.Type)
	assert.Equal(t, "cs_test_abc", event.SessionID)
	assert.Equal(t, "pi_test_xyz", event.PaymentIntent)
	assert.True(t, event.AmountTotal.Equal(decimal.NewFromFloat(125.50)),
		"amount_total is in cents, expected 125.50 got %s", event.AmountTotal)
}

func TestParseEvent_InvalidJSON(t *testing.T) {
	_, err := parseEvent([]byte("not json"))
	assert.Error(t, err)
}

func TestNew_RequiresSecretKey(t *testing.T) {
	_, err := New(context.Background(), &Config{BaseURL: "https://example.com"})
	assert.Error(t, err)
}

func TestHmac256_Deterministic(t *testing.T) {
	a := Hmac256([]byte("payload"), []byte("key"))
	b := Hmac256([]byte("payload"), []byte("key"))
	c := Hmac256([]byte("payload"), []byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
