package handlers

import (
	"net/http"

	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// SellerHandler manages seller onboarding with a payment provider. The
// provider is chosen on first onboarding and can never be changed; all
// of a seller's payouts flow through that one account.
type SellerHandler struct {
	app      *pocketbase.PocketBase
	registry *payment.Registry
}

func NewSellerHandler(app *pocketbase.PocketBase, registry *payment.Registry) *SellerHandler {
	return &SellerHandler{
		app:      app,
		registry: registry,
	}
}

// CreateAccount - Create (or resume) the caller's seller account and
// return the hosted onboarding URL.
func (h *SellerHandler) CreateAccount(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Provider     string `json:"provider"`
		BusinessName string `json:"business_name"`
		Country      string `json:"country"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	slug := payment.ProviderSlug(req.Provider)
	provider, err := h.registry.Get(slug)
	if err != nil {
		return apis.NewBadRequestError("Unknown provider", nil)
	}

	ctx := e.Request.Context()

	existing, err := h.app.FindFirstRecordByFilter(models.CollectionPaymentAccounts,
		"user = {:user}",
		dbx.Params{"user": e.Auth.Id},
	)
	if err == nil {
		account := models.PaymentAccountFromRecord(existing)
		if account.Provider != string(slug) {
			return apis.NewBadRequestError("Payment provider cannot be changed after onboarding", nil)
		}
		url, err := provider.CreateAccountLink(ctx, account.AccountID)
		if err != nil {
			return apiError(err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"account_id":     account.AccountID,
			"onboarding_url": url,
		})
	}

	account, err := provider.CreateAccount(ctx, &payment.AccountData{
		Email:        e.Auth.Email(),
		BusinessName: req.BusinessName,
		Country:      req.Country,
	})
	if err != nil {
		return apiError(err)
	}

	collection, err := h.app.FindCollectionByNameOrId(models.CollectionPaymentAccounts)
	if err != nil {
		return apis.NewInternalServerError("Something went wrong", err)
	}

	record := core.NewRecord(collection)
	record.Set("user", e.Auth.Id)
	record.Set("provider", string(slug))
	record.Set("account_id", account.AccountID)
	record.Set("wallet_id", account.WalletID)
	record.Set("onboarded", false)
	if err := h.app.Save(record); err != nil {
		return apis.NewInternalServerError("Failed to save account", err)
	}

	url, err := provider.CreateAccountLink(ctx, account.AccountID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"account_id":     account.AccountID,
		"onboarding_url": url,
	})
}

// CompleteOnboarding - Called from the onboarding return URL once the
// provider's hosted flow finishes.
func (h *SellerHandler) CompleteOnboarding(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindFirstRecordByFilter(models.CollectionPaymentAccounts,
		"user = {:user}",
		dbx.Params{"user": e.Auth.Id},
	)
	if err != nil {
		return apis.NewNotFoundError("Seller account not found", nil)
	}

	record.Set("onboarded", true)
	if err := h.app.Save(record); err != nil {
		return apis.NewInternalServerError("Failed to save account", err)
	}

	return e.JSON(http.StatusOK, models.PaymentAccountFromRecord(record))
}

// GetAccount - The caller's seller account, if any
func (h *SellerHandler) GetAccount(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindFirstRecordByFilter(models.CollectionPaymentAccounts,
		"user = {:user}",
		dbx.Params{"user": e.Auth.Id},
	)
	if err != nil {
		return apis.NewNotFoundError("Seller account not found", nil)
	}

	return e.JSON(http.StatusOK, models.PaymentAccountFromRecord(record))
}
