package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BetRateLimiter throttles bet placement per user
type BetRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	r        rate.Limit
	b        int
	idleTTL  time.Duration
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewBetRateLimiter creates a limiter allowing perSecond bets per user with the given burst.
// A non-positive rate disables limiting.
func NewBetRateLimiter(perSecond float64, burst int) *BetRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &BetRateLimiter{
		limiters: make(map[int64]*userLimiter),
		r:        rate.Limit(perSecond),
		b:        burst,
		idleTTL:  3 * time.Minute,
	}
}

// Allow reports whether the user may place a bet now. A nil limiter allows everything.
func (l *BetRateLimiter) Allow(userID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.limiters[userID]
	if !ok {
		v = &userLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[userID] = v
		l.evictIdle(now)
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evictIdle drops limiters of users not seen recently; caller holds mu
func (l *BetRateLimiter) evictIdle(now time.Time) {
	for id, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.limiters, id)
		}
	}
}
