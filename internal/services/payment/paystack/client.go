package paystack

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
	// baseURL is the base url of the Paystack backend.
	baseURL string

	// secretKey authenticates API requests.
	secretKey string

	// callbackURL is the post-payment redirect target.
	callbackURL string

	// hc is the http client.
	hc *http.Client
}

func newClient(c *Config) *Client {
	return &Client{
		baseURL:     c.BaseURL,
		secretKey:   c.SecretKey,
		callbackURL: c.CallbackURL,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope is the reply wrapper every Paystack endpoint uses.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, path string, payload any, data any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("paystack: json.Marshal: %v", err)
	}

	base, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("paystack: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("paystack: http.Do: %v", err)
	}
	defer resp.Body.Close()

	var reply envelope
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("paystack: json.Decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !reply.Status {
		return fmt.Errorf("paystack: %s: status %d: %s", path, resp.StatusCode, reply.Message)
	}

	if data == nil {
		return nil
	}
	if err := json.Unmarshal(reply.Data, data); err != nil {
		return fmt.Errorf("paystack: json.Unmarshal data: %v", err)
	}
	return nil
}

func (c *Client) createSubaccount(ctx context.Context, businessName, email string) (string, error) {
	payload := map[string]any{
		"business_name":   businessName,
		"primary_contact": email,
		// settlement happens on the platform schedule
		"settlement_schedule": "auto",
	}

	var data struct {
		SubaccountCode string `json:"subaccount_code"`
	}
	if err := c.do(ctx, "/subaccount", payload, &data); err != nil {
		return "", err
	}
	return data.SubaccountCode, nil
}

func (c *Client) initializeTransaction(ctx context.Context, f *TransactionForm) (string, string, error) {
	// amounts are sent in the currency's minor unit
	payload := map[string]any{
		"email":             f.Email,
		"amount":            f.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency":          f.Currency,
		"reference":         f.ReferenceID,
		"subaccount":        f.SubaccountCode,
		"transaction_charge": f.FeePercent,
		"bearer":            "subaccount",
		"callback_url":      c.callbackURL,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := c.do(ctx, "/transaction/initialize", payload, &data); err != nil {
		return "", "", err
	}
	return data.Reference, data.AuthorizationURL, nil
}

func (c *Client) refund(ctx context.Context, transactionRef string, amount decimal.Decimal) error {
	payload := map[string]any{
		"transaction": transactionRef,
		"amount":      amount.Mul(decimal.NewFromInt(100)).IntPart(),
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "/refund", payload, &data); err != nil {
		return err
	}
	if data.Status == "failed" {
		return fmt.Errorf("paystack: refund of %s failed", transactionRef)
	}
	return nil
}

func parseEvent(body []byte) (*Event, error) {
	var raw struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64 `json:"id"`
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("paystack: parseEvent: %v", err)
	}

	return &Event{
		Type:          raw.Event,
		Reference:     raw.Data.Reference,
		TransactionID: fmt.Sprintf("%d", raw.Data.ID),
		Amount:        decimal.NewFromInt(raw.Data.Amount).Div(decimal.NewFromInt(100)),
	}, nil
}
