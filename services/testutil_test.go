package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"ticket-marketplace/config"
	_ "ticket-marketplace/migrations"
	"ticket-marketplace/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	return app
}

func testConfig() *config.Config {
	return &config.Config{
		OfferDuration:     30 * time.Minute,
		SweepInterval:     time.Minute,
		JoinRateLimit:     100,
		JoinRateWindow:    30 * time.Minute,
		SchedulerPollRate: time.Second,
		StaleSessionTTL:   24 * time.Hour,
	}
}

func newTestWaitlist(app core.App) *WaitlistService {
	return &WaitlistService{
		App:    app,
		Config: testConfig(),
	}
}

func createTestUser(t *testing.T, app core.App, email string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("email", email)
	rec.Set("password", "secret-password-123")
	require.NoError(t, app.Save(rec))

	return rec
}

func createTestEvent(t *testing.T, app core.App, ownerID string, totalTickets int, price float64) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.CollectionEvents)
	require.NoError(t, err)

	eventDate, err := types.ParseDateTime(time.Now().Add(48 * time.Hour))
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("name", "Test Concert")
	rec.Set("location", "Test Hall")
	rec.Set("event_date", eventDate)
	rec.Set("price", price)
	rec.Set("total_tickets", totalTickets)
	rec.Set("display_total_tickets", true)
	rec.Set("is_cancelled", false)
	rec.Set("user", ownerID)
	require.NoError(t, app.Save(rec))

	return rec
}

func createReservation(t *testing.T, app core.App, eventID, userID, reservationStatus string, quantity int, offerExpiresAt time.Time) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.CollectionReservations)
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("event", eventID)
	rec.Set("user", userID)
	rec.Set("quantity", quantity)
	rec.Set("status", reservationStatus)
	if !offerExpiresAt.IsZero() {
		expires, err := types.ParseDateTime(offerExpiresAt)
		require.NoError(t, err)
		rec.Set("offer_expires_at", expires)
	}
	require.NoError(t, app.Save(rec))

	return rec
}

func reservationStatus(t *testing.T, app core.App, reservationID string) string {
	t.Helper()

	rec, err := app.FindRecordById(models.CollectionReservations, reservationID)
	require.NoError(t, err)

	return rec.GetString("status")
}

func signQRData(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

var testUserSeq int

func nextTestEmail() string {
	testUserSeq++
	return fmt.Sprintf("user%d@example.com", testUserSeq)
}
