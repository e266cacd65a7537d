package engine

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Retry calls op up to attempts times, sleeping backoff between attempts but
// not after the last one. It returns true on the first successful attempt.
// attempt is 1-based.
func Retry(clock clockwork.Clock, attempts int, backoff time.Duration, op func(attempt int) bool) bool {
	for attempt := 1; attempt <= attempts; attempt++ {
		if op(attempt) {
			return true
		}
		if attempt < attempts && backoff > 0 {
			clock.Sleep(backoff)
		}
	}
	return false
}
