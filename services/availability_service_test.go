package services

import (
	"testing"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityService_Availability(t *testing.T) {
	app := setupTestApp(t)
	service := NewAvailabilityService(app)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	holder := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 10, 20.0)

	createTestTicket(t, app, event.Id, buyer.Id, models.TicketValid, "AVL00001")
	createTestTicket(t, app, event.Id, buyer.Id, models.TicketUsed, "AVL00002")
	createTestTicket(t, app, event.Id, buyer.Id, models.TicketRefunded, "AVL00003")

	createReservation(t, app, event.Id, holder.Id, models.ReservationOffered, 3,
		time.Now().Add(20*time.Minute))

	avail, err := service.Availability(event.Id)
	require.NoError(t, err)

	assert.Equal(t, 10, avail.TotalTickets)
	assert.Equal(t, 2, avail.PurchasedCount, "refunded tickets do not count")
	assert.Equal(t, 3, avail.ActiveOffers)
	assert.Equal(t, 5, avail.RemainingTickets)
	assert.False(t, avail.IsSoldOut)
	assert.False(t, avail.AvailabilityHidden)
}

func TestAvailabilityService_Availability_ExcludesLapsedOffers(t *testing.T) {
	app := setupTestApp(t)
	service := NewAvailabilityService(app)

	owner := createTestUser(t, app, nextTestEmail())
	holder := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 2, 20.0)

	createReservation(t, app, event.Id, holder.Id, models.ReservationOffered, 2,
		time.Now().Add(-time.Minute))

	avail, err := service.Availability(event.Id)
	require.NoError(t, err)

	assert.Equal(t, 0, avail.ActiveOffers)
	assert.Equal(t, 2, avail.RemainingTickets)
	assert.False(t, avail.IsSoldOut)
}

func TestAvailabilityService_Availability_SoldOut(t *testing.T) {
	app := setupTestApp(t)
	service := NewAvailabilityService(app)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 1, 20.0)

	createTestTicket(t, app, event.Id, buyer.Id, models.TicketValid, "AVL00004")

	avail, err := service.Availability(event.Id)
	require.NoError(t, err)

	assert.True(t, avail.IsSoldOut)
	assert.Equal(t, 0, avail.RemainingTickets)
}

func TestAvailabilityService_Availability_HiddenCounts(t *testing.T) {
	app := setupTestApp(t)
	service := NewAvailabilityService(app)

	owner := createTestUser(t, app, nextTestEmail())
	buyer := createTestUser(t, app, nextTestEmail())
	event := createTestEvent(t, app, owner.Id, 2, 20.0)
	event.Set("display_total_tickets", false)
	require.NoError(t, app.Save(event))

	createTestTicket(t, app, event.Id, buyer.Id, models.TicketValid, "AVL00005")

	avail, err := service.Availability(event.Id)
	require.NoError(t, err)

	assert.True(t, avail.AvailabilityHidden)
	assert.Zero(t, avail.TotalTickets)
	assert.Zero(t, avail.PurchasedCount)
	assert.Zero(t, avail.RemainingTickets)
	assert.False(t, avail.IsSoldOut)
}

func TestAvailabilityService_Availability_EventNotFound(t *testing.T) {
	app := setupTestApp(t)
	service := NewAvailabilityService(app)

	_, err := service.Availability("missing")
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}
