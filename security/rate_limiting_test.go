package security

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestJoinLimiter_Allow_FirstAttempt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	limiter := NewJoinLimiter(db, 3, 30*time.Minute)

	mock.ExpectIncr("ratelimit:join:user1").SetVal(1)
	mock.ExpectExpire("ratelimit:join:user1", 30*time.Minute).SetVal(true)

	ok, retryAfter, err := limiter.Allow(context.Background(), "user1")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinLimiter_Allow_WithinLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	limiter := NewJoinLimiter(db, 3, 30*time.Minute)

	// second attempt in an established window: no EXPIRE call
	mock.ExpectIncr("ratelimit:join:user1").SetVal(2)

	ok, _, err := limiter.Allow(context.Background(), "user1")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinLimiter_Allow_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	limiter := NewJoinLimiter(db, 3, 30*time.Minute)

	mock.ExpectIncr("ratelimit:join:user1").SetVal(4)
	mock.ExpectTTL("ratelimit:join:user1").SetVal(12 * time.Minute)

	ok, retryAfter, err := limiter.Allow(context.Background(), "user1")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 12*time.Minute, retryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinLimiter_Allow_TTLFallback(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	limiter := NewJoinLimiter(db, 3, 30*time.Minute)

	mock.ExpectIncr("ratelimit:join:user1").SetVal(4)
	mock.ExpectTTL("ratelimit:join:user1").SetVal(-1 * time.Second)

	ok, retryAfter, err := limiter.Allow(context.Background(), "user1")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, retryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScannerLimiter_Allow(t *testing.T) {
	limiter := NewScannerLimiter()

	// burst of 10 passes, the 11th immediate scan is throttled
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("scanner1"))
	}
	assert.False(t, limiter.Allow("scanner1"))

	// independent bucket per requester
	assert.True(t, limiter.Allow("scanner2"))
}
