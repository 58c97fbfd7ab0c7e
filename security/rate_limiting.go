package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// JoinLimiter is a fixed-window counter keyed by user id: at most Limit
// join attempts per Window. Redis INCR with a first-hit EXPIRE keeps the
// counter atomic across instances.
type JoinLimiter struct {
	redis  *redis.Client
	Limit  int
	Window time.Duration
}

func NewJoinLimiter(redisClient *redis.Client, limit int, window time.Duration) *JoinLimiter {
	return &JoinLimiter{
		redis:  redisClient,
		Limit:  limit,
		Window: window,
	}
}

// Allow consumes one attempt. When the window is exhausted it returns
// false with the remaining time until the window resets.
func (l *JoinLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	key := fmt.Sprintf("ratelimit:join:%s", userID)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit: incr: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit: expire: %w", err)
		}
	}

	if count > int64(l.Limit) {
		ttl, err := l.redis.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.Window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}

// ScannerLimiter throttles venue-entry scanners in-process. One token
// bucket per requester, pruned after ten minutes of inactivity.
type ScannerLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
}

func NewScannerLimiter() *ScannerLimiter {
	return &ScannerLimiter{
		visitors: make(map[string]*rate.Limiter),
	}
}

func (sl *ScannerLimiter) getLimiter(id string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if limiter, exists := sl.visitors[id]; exists {
		return limiter
	}

	// 5 scans per second with a small burst for gate rushes
	limiter := rate.NewLimiter(5, 10)
	sl.visitors[id] = limiter

	go func() {
		time.Sleep(10 * time.Minute)
		sl.mu.Lock()
		delete(sl.visitors, id)
		sl.mu.Unlock()
	}()

	return limiter
}

// Allow reports whether the requester may scan right now.
func (sl *ScannerLimiter) Allow(id string) bool {
	return sl.getLimiter(id).Allow()
}
