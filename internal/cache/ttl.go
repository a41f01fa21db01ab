package cache

import "time"

// SPIMEX publishes the daily bulletin around 14:11 local server time,
// so every cached API response expires at the next occurrence of that
// moment rather than after a fixed duration.
const (
	resetHour   = 14
	resetMinute = 11
)

// TTLUntilDailyReset computes how long a cache entry written at `now`
// should live: the time remaining until the next 14:11.
//
// If `now` is already past today's 14:11, the deadline rolls over to
// tomorrow. The result is never below one second, so entries written
// in the same instant as the reset still get a positive TTL.
func TTLUntilDailyReset(now time.Time) time.Duration {
	deadline := time.Date(now.Year(), now.Month(), now.Day(), resetHour, resetMinute, 0, 0, now.Location())
	if !deadline.After(now) {
		deadline = deadline.AddDate(0, 0, 1)
	}

	ttl := deadline.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
