package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const offerExpiryQueue = "jobs:offer_expiry"

// ExpiryJob is the payload of a one-shot offer-expiry callback.
type ExpiryJob struct {
	ReservationID string `json:"reservation_id"`
	EventID       string `json:"event_id"`
	ScheduledAt   int64  `json:"scheduled_at"`
}

// Scheduler is a durable delayed-job queue: jobs live in a redis sorted
// set scored by due time and are claimed by a polling worker. Delivery is
// at-least-once; handlers must be idempotent.
type Scheduler struct {
	Redis    *redis.Client
	pollRate time.Duration
	handler  func(ctx context.Context, job ExpiryJob)

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(redisClient *redis.Client, pollRate time.Duration) *Scheduler {
	return &Scheduler{
		Redis:    redisClient,
		pollRate: pollRate,
		stopChan: make(chan struct{}),
	}
}

// SetHandler installs the callback invoked for each due job. Must be set
// before Start.
func (s *Scheduler) SetHandler(fn func(ctx context.Context, job ExpiryJob)) {
	s.handler = fn
}

// Schedule enqueues a job to fire after the given delay.
func (s *Scheduler) Schedule(ctx context.Context, job ExpiryJob, delay time.Duration) error {
	job.ScheduledAt = time.Now().Unix()

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return s.Redis.ZAdd(ctx, offerExpiryQueue, redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: data,
	}).Err()
}

// Start launches the polling worker.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)

	log.Println("Scheduler worker started")
}

// Stop signals the worker and waits for it to drain.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatchDue(ctx)
		case <-s.stopChan:
			log.Println("Scheduler worker stopping")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	members, err := s.Redis.ZRangeByScore(ctx, offerExpiryQueue, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: 100,
	}).Result()
	if err != nil {
		log.Printf("Error polling scheduled jobs: %v", err)
		return
	}

	for _, member := range members {
		// ZRem is the claim: only the poller that removes the member
		// runs its handler.
		removed, err := s.Redis.ZRem(ctx, offerExpiryQueue, member).Result()
		if err != nil || removed == 0 {
			continue
		}

		var job ExpiryJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			log.Printf("Error unmarshaling scheduled job: %v", err)
			continue
		}

		if s.handler != nil {
			s.handler(ctx, job)
		}
	}
}
