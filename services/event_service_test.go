package services

import (
	"context"
	"testing"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvents(waitlist *WaitlistService) *EventService {
	return &EventService{
		App:      waitlist.App,
		Waitlist: waitlist,
	}
}

func TestEventService_UpdateCapacity_GrowthPromotesWaiting(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	holder := createTestUser(t, app, nextTestEmail())
	waiter := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 1, 20.0)

	_, err := waitlist.Join(context.Background(), event.Id, holder.Id, 1)
	require.NoError(t, err)

	wait, err := waitlist.Join(context.Background(), event.Id, waiter.Id, 1)
	require.NoError(t, err)
	require.Equal(t, models.ReservationWaiting, wait.Status)

	require.NoError(t, events.UpdateCapacity(context.Background(), event.Id, owner.Id, 2))

	rec, err := app.FindRecordById(models.CollectionEvents, event.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.GetInt("total_tickets"))
	assert.Equal(t, models.ReservationOffered, reservationStatus(t, app, wait.ReservationID))
}

func TestEventService_UpdateCapacity_CannotShrinkBelowSold(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 20.0)

	createTestTicket(t, app, event.Id, buyer.Id, models.TicketValid, "CAP00001")
	createTestTicket(t, app, event.Id, buyer.Id, models.TicketUsed, "CAP00002")

	err := events.UpdateCapacity(context.Background(), event.Id, owner.Id, 1)
	assert.Error(t, err)

	rec, err := app.FindRecordById(models.CollectionEvents, event.Id)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.GetInt("total_tickets"))
}

func TestEventService_UpdateCapacity_OwnerOnly(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	other := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 20.0)

	err := events.UpdateCapacity(context.Background(), event.Id, other.Id, 10)
	assert.ErrorIs(t, err, status.ErrAccessDenied)
}

func TestEventService_CancelEvent_BlockedByActiveTickets(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 20.0)

	createTestTicket(t, app, event.Id, buyer.Id, models.TicketValid, "CXL00001")

	err := events.CancelEvent(context.Background(), event.Id, owner.Id)
	assert.ErrorIs(t, err, status.ErrActiveTicketsExist)

	rec, err := app.FindRecordById(models.CollectionEvents, event.Id)
	require.NoError(t, err)
	assert.False(t, rec.GetBool("is_cancelled"))
}

func TestEventService_CancelEvent_RemovesReservations(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	waiter := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 20.0)

	// only refunded/cancelled tickets remain
	createTestTicket(t, app, event.Id, buyer.Id, models.TicketRefunded, "CXL00002")

	createReservation(t, app, event.Id, buyer.Id, models.ReservationPurchased, 1, time.Time{})
	createReservation(t, app, event.Id, waiter.Id, models.ReservationWaiting, 1, time.Time{})

	require.NoError(t, events.CancelEvent(context.Background(), event.Id, owner.Id))

	rec, err := app.FindRecordById(models.CollectionEvents, event.Id)
	require.NoError(t, err)
	assert.True(t, rec.GetBool("is_cancelled"))

	count, err := app.CountRecords(models.CollectionReservations, dbx.HashExp{"event": event.Id})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEventService_CancelEvent_OwnerOnly(t *testing.T) {
	app := setupTestApp(t)
	waitlist := newTestWaitlist(app)
	events := newTestEvents(waitlist)

	owner := createTestUser(t, app, nextTestEmail())
	other := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 5, 20.0)

	err := events.CancelEvent(context.Background(), event.Id, other.Id)
	assert.ErrorIs(t, err, status.ErrAccessDenied)
}
