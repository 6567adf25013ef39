package ratelimit

import (
	"sync"
	"time"

	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"golang.org/x/time/rate"
)

// Limiter decides whether a user may start another rate-limited action.
type Limiter interface {
	Allow(userID int64) bool
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryLimiter keeps one token bucket per user. Buckets idle for longer
// than idleTTL are dropped on the next sweep.
type InMemoryLimiter struct {
	mu      sync.Mutex
	users   map[int64]*entry
	r       rate.Limit
	b       int
	idleTTL time.Duration
	swept   time.Time
	now     func() time.Time
}

// NewInMemoryLimiter allows requests actions per period with the given burst.
// Example: NewInMemoryLimiter(5, time.Minute, 2) refills one token every 12s, two in a row.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if per <= 0 {
		per = time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	return &InMemoryLimiter{
		users:   make(map[int64]*entry),
		r:       rate.Every(per / time.Duration(requests)),
		b:       burst,
		idleTTL: 10 * per,
		now:     time.Now,
	}
}

// New builds the ingest limiter from configuration.
func New(cfg *config.Config) Limiter {
	return NewInMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Per, cfg.RateLimit.Burst)
}

func (l *InMemoryLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.users[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.r, l.b)}
		l.users[userID] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (l *InMemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.idleTTL {
		return
	}
	for id, e := range l.users {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.users, id)
		}
	}
	l.swept = now
}
