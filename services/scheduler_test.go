package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchAnyArgs ignores argument values; used where members and scores
// embed the current time.
func matchAnyArgs(expected, actual []interface{}) error {
	return nil
}

func TestScheduler_Schedule(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	scheduler := NewScheduler(db, time.Second)

	mock.CustomMatch(matchAnyArgs).
		ExpectZAdd(offerExpiryQueue, redis.Z{}).
		SetVal(1)

	err := scheduler.Schedule(context.Background(), ExpiryJob{
		ReservationID: "res1",
		EventID:       "evt1",
	}, 30*time.Minute)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_DispatchDue_RunsClaimedJob(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	scheduler := NewScheduler(db, time.Second)

	var handled []ExpiryJob
	scheduler.SetHandler(func(ctx context.Context, job ExpiryJob) {
		handled = append(handled, job)
	})

	member, err := json.Marshal(ExpiryJob{ReservationID: "res1", EventID: "evt1"})
	require.NoError(t, err)

	mock.CustomMatch(matchAnyArgs).
		ExpectZRangeByScore(offerExpiryQueue, &redis.ZRangeBy{Count: 100}).
		SetVal([]string{string(member)})
	mock.ExpectZRem(offerExpiryQueue, string(member)).SetVal(1)

	scheduler.dispatchDue(context.Background())

	require.Len(t, handled, 1)
	assert.Equal(t, "res1", handled[0].ReservationID)
	assert.Equal(t, "evt1", handled[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_DispatchDue_LostClaimSkipsHandler(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	scheduler := NewScheduler(db, time.Second)

	called := false
	scheduler.SetHandler(func(ctx context.Context, job ExpiryJob) {
		called = true
	})

	member, err := json.Marshal(ExpiryJob{ReservationID: "res1", EventID: "evt1"})
	require.NoError(t, err)

	// another poller removed the member first
	mock.CustomMatch(matchAnyArgs).
		ExpectZRangeByScore(offerExpiryQueue, &redis.ZRangeBy{Count: 100}).
		SetVal([]string{string(member)})
	mock.ExpectZRem(offerExpiryQueue, string(member)).SetVal(0)

	scheduler.dispatchDue(context.Background())

	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_DispatchDue_EmptyQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	scheduler := NewScheduler(db, time.Second)
	scheduler.SetHandler(func(ctx context.Context, job ExpiryJob) {
		t.Fatal("handler must not run for an empty queue")
	})

	mock.CustomMatch(matchAnyArgs).
		ExpectZRangeByScore(offerExpiryQueue, &redis.ZRangeBy{Count: 100}).
		SetVal([]string{})

	scheduler.dispatchDue(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_StartStop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	mock.MatchExpectationsInOrder(false)

	scheduler := NewScheduler(db, 10*time.Millisecond)
	scheduler.SetHandler(func(ctx context.Context, job ExpiryJob) {})

	// allow a few polls before shutdown
	for i := 0; i < 20; i++ {
		mock.CustomMatch(matchAnyArgs).
			ExpectZRangeByScore(offerExpiryQueue, &redis.ZRangeBy{Count: 100}).
			SetVal([]string{})
	}

	scheduler.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	scheduler.Stop()
}
