package remote

import (
	"context"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/syncutil"
)

// Limiter defaults.
const (
	DefaultRate   = 5.0
	DefaultBurst  = 5
	limiterMaxAge = 10 * time.Minute
	cleanupEvery  = 5 * time.Minute
)

// ClientLimiter keeps one token bucket per client address.
type ClientLimiter struct {
	limit rate.Limit
	burst int
	clock clockwork.Clock

	mu       syncutil.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows perSecond submissions per client with the given
// burst. Non-positive values use the defaults.
func NewClientLimiter(perSecond float64, burst int, clock clockwork.Clock) *ClientLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clock:    clock,
		limiters: make(map[string]*limiterEntry),
	}
}

// Allow takes one token from the bucket for client.
func (l *ClientLimiter) Allow(client string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	entry, ok := l.limiters[client]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Cleanup forgets clients that have not been seen for a while.
func (l *ClientLimiter) Cleanup() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for client, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterMaxAge {
			delete(l.limiters, client)
			logging.Debug("Removed stale rate limiter", zap.String("client", client))
		}
	}
}

// Clients returns the number of tracked clients.
func (l *ClientLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// StartCleanup runs Cleanup periodically until ctx is done.
func (l *ClientLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := l.clock.NewTicker(cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// clientKey strips the port from a remote address.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
