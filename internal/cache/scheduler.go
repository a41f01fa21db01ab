package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Corner324/spimexpulse/internal/logger"
)

// apiKeyPattern matches every cached API response.
const apiKeyPattern = "trading:*"

// ResetScheduler clears the API cache once a day at 14:11, right after
// SPIMEX publishes the new bulletin.
//
// The scheduler must be started with Start and released with Stop; it
// recomputes the sleep interval on every cycle so clock adjustments and
// DST transitions cannot drift the firing time.
type ResetScheduler struct {
	client *Client

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewResetScheduler builds a scheduler bound to the given cache client.
// A nil client is allowed; the scheduler then idles without touching Redis.
func NewResetScheduler(client *Client) *ResetScheduler {
	return &ResetScheduler{
		client: client,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background loop. It returns immediately; the loop
// runs until Stop is called or ctx is cancelled.
func (s *ResetScheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *ResetScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *ResetScheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		wait := TTLUntilDailyReset(time.Now())

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}

		if err := s.client.DeletePattern(ctx, apiKeyPattern); err != nil {
			logger.L().Error().Err(err).Msg("daily cache reset failed")
		} else {
			logger.L().Info().Str("pattern", apiKeyPattern).Msg("daily cache reset completed")
		}

		// Guard against firing twice within the same reset minute.
		timer = time.NewTimer(2 * time.Second)
		select {
		case <-timer.C:
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
