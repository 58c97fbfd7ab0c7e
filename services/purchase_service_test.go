package services

import (
	"context"
	"testing"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPurchase(waitlist *WaitlistService) *PurchaseService {
	return &PurchaseService{
		App:      waitlist.App,
		Waitlist: waitlist,
	}
}

func TestPurchaseService_FinalizePurchase_IssuesTickets(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	purchase := newTestPurchase(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 50.0)

	reservation := createReservation(t, app, event.Id, buyer.Id, models.ReservationOffered, 2,
		time.Now().Add(20*time.Minute))

	ticketIDs, err := purchase.FinalizePurchase(context.Background(), event.Id, buyer.Id, reservation.Id,
		PaymentInfo{
			PaymentIntentID: "pi_test_123",
			Amount:          decimal.NewFromFloat(100.00),
		})

	require.NoError(t, err)
	require.Len(t, ticketIDs, 2)

	assert.Equal(t, models.ReservationPurchased, reservationStatus(t, app, reservation.Id))

	for _, id := range ticketIDs {
		rec, err := app.FindRecordById(models.CollectionTickets, id)
		require.NoError(t, err)
		assert.Equal(t, models.TicketValid, rec.GetString("status"))
		assert.Equal(t, "pi_test_123", rec.GetString("payment_intent_id"))
		assert.InDelta(t, 50.0, rec.GetFloat("amount"), 0.001)
		assert.NotEmpty(t, rec.GetString("unique_code"))
	}
}

func TestPurchaseService_FinalizePurchase_SplitsAmountRoundedDown(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	purchase := newTestPurchase(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 33.34)

	reservation := createReservation(t, app, event.Id, buyer.Id, models.ReservationOffered, 3,
		time.Now().Add(20*time.Minute))

	ticketIDs, err := purchase.FinalizePurchase(context.Background(), event.Id, buyer.Id, reservation.Id,
		PaymentInfo{
			PaymentIntentID: "pi_test_split",
			Amount:          decimal.NewFromFloat(100.00),
		})

	require.NoError(t, err)
	require.Len(t, ticketIDs, 3)

	for _, id := range ticketIDs {
		rec, err := app.FindRecordById(models.CollectionTickets, id)
		require.NoError(t, err)
		assert.InDelta(t, 33.33, rec.GetFloat("amount"), 0.001)
	}
}

func TestPurchaseService_FinalizePurchase_DuplicateWebhookIsRejected(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	purchase := newTestPurchase(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 50.0)

	reservation := createReservation(t, app, event.Id, buyer.Id, models.ReservationOffered, 2,
		time.Now().Add(20*time.Minute))

	info := PaymentInfo{
		PaymentIntentID: "pi_test_dup",
		Amount:          decimal.NewFromFloat(100.00),
	}

	_, err := purchase.FinalizePurchase(context.Background(), event.Id, buyer.Id, reservation.Id, info)
	require.NoError(t, err)

	_, err = purchase.FinalizePurchase(context.Background(), event.Id, buyer.Id, reservation.Id, info)
	assert.ErrorIs(t, err, status.ErrOfferNoLongerValid)

	// replay issued nothing extra
	count, err := app.CountRecords(models.CollectionTickets, dbx.HashExp{"event": event.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPurchaseService_FinalizePurchase_UserMismatch(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	purchase := newTestPurchase(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	other := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 50.0)

	reservation := createReservation(t, app, event.Id, buyer.Id, models.ReservationOffered, 1,
		time.Now().Add(20*time.Minute))

	_, err := purchase.FinalizePurchase(context.Background(), event.Id, other.Id, reservation.Id,
		PaymentInfo{PaymentIntentID: "pi_test_mm", Amount: decimal.NewFromFloat(50.00)})

	assert.ErrorIs(t, err, status.ErrUserMismatch)
	assert.Equal(t, models.ReservationOffered, reservationStatus(t, app, reservation.Id))
}

func TestPurchaseService_FinalizePurchase_WaitingReservation(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	purchase := newTestPurchase(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 50.0)

	reservation := createReservation(t, app, event.Id, buyer.Id, models.ReservationWaiting, 1, time.Time{})

	_, err := purchase.FinalizePurchase(context.Background(), event.Id, buyer.Id, reservation.Id,
		PaymentInfo{PaymentIntentID: "pi_test_wait", Amount: decimal.NewFromFloat(50.00)})

	assert.ErrorIs(t, err, status.ErrOfferNoLongerValid)
}
