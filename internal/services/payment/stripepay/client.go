package stripepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	// baseURL is the base url of the StripePay backend.
	baseURL string

	// secretKey authenticates API requests.
	secretKey string

	// webhookKey verifies incoming webhook signatures.
	webhookKey string

	// hc is the http client.
	hc *http.Client
}

func newClient(c *Config) *Client {
	return &Client{
		baseURL:    c.BaseURL,
		secretKey:  c.SecretKey,
		webhookKey: c.WebhookKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, path string, payload any, reply any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("stripepay: json.Marshal: %v", err)
	}

	base, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("stripepay: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Idempotency-Key", requestID())

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("stripepay: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("stripepay: %s: status %d: %s", path, resp.StatusCode, apiErr.Error.Message)
	}

	if reply == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return fmt.Errorf("stripepay: json.Decode: %v", err)
	}
	return nil
}

func (c *Client) createAccount(ctx context.Context, email, country string) (string, error) {
	payload := map[string]any{
		"type":    "express",
		"email":   email,
		"country": country,
		"capabilities": map[string]any{
			"transfers": map[string]any{"requested": true},
		},
	}

	var reply struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "/v1/accounts", payload, &reply); err != nil {
		return "", err
	}
	return reply.ID, nil
}

func (c *Client) createAccountLink(ctx context.Context, accountID, returnURL string) (string, error) {
	payload := map[string]any{
		"account":     accountID,
		"refresh_url": returnURL,
		"return_url":  returnURL,
		"type":        "account_onboarding",
	}

	var reply struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, "/v1/account_links", payload, &reply); err != nil {
		return "", err
	}
	return reply.URL, nil
}

func (c *Client) createCheckoutSession(ctx context.Context, f *CheckoutForm) (string, string, error) {
	unitCents := f.UnitAmount.Mul(decimal.NewFromInt(100)).IntPart()
	total := f.UnitAmount.Mul(decimal.NewFromInt(int64(f.Quantity)))
	feeCents := total.Mul(decimal.NewFromFloat(f.FeePercent)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(100)).
		IntPart()

	payload := map[string]any{
		"mode":                "payment",
		"client_reference_id": f.ReferenceID,
		"line_items": []map[string]any{
			{
				"quantity": f.Quantity,
				"price_data": map[string]any{
					"currency":    f.Currency,
					"unit_amount": unitCents,
					"product_data": map[string]any{
						"name": f.Description,
					},
				},
			},
		},
		"payment_intent_data": map[string]any{
			"application_fee_amount": feeCents,
			"transfer_data":          map[string]any{"destination": f.AccountID},
		},
		"expires_at":  time.Now().Add(time.Duration(f.ExpireMinutes) * time.Minute).Unix(),
		"success_url": f.SuccessURL,
		"cancel_url":  f.CancelURL,
	}

	var reply struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, "/v1/checkout/sessions", payload, &reply); err != nil {
		return "", "", err
	}
	return reply.ID, reply.URL, nil
}

func (c *Client) refund(ctx context.Context, paymentIntentID, accountID string, amount decimal.Decimal) error {
	payload := map[string]any{
		"payment_intent":         paymentIntentID,
		"amount":                 amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"reverse_transfer":       true,
		"refund_application_fee": true,
		"on_behalf_of":           accountID,
	}

	var reply struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, "/v1/refunds", payload, &reply); err != nil {
		return err
	}
	if reply.Status == "failed" {
		return fmt.Errorf("stripepay: refund %s failed", reply.ID)
	}
	return nil
}

func parseEvent(body []byte) (*Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentIntent string `json:"payment_intent"`
				AmountTotal   int64  `json:"amount_total"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("stripepay: parseEvent: %v", err)
	}

	return &Event{
		Type:          raw.Type,
		SessionID:     raw.Data.Object.ID,
		PaymentIntent: raw.Data.Object.PaymentIntent,
		AmountTotal:   decimal.NewFromInt(raw.Data.Object.AmountTotal).Div(decimal.NewFromInt(100)),
	}, nil
}
