package handlers

import (
	"strings"
	"sync"
	"time"
)

// rateLimiter gates a request by caller key.
type rateLimiter interface {
	Allow(key string) bool
}

// maxTrackedKeys bounds the quota table when callers rotate source
// addresses. Once full, unseen callers pass until a sweep frees room.
const maxTrackedKeys = 10000

// quota tracks one caller's usage inside the current window.
type quota struct {
	used    int
	resetAt time.Time
}

// windowLimiter counts requests per caller over a fixed window. Expired
// entries are swept opportunistically, at most once per window.
type windowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	quotas    map[string]*quota
	nextSweep time.Time
}

func newWindowLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &windowLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		quotas: make(map[string]*quota),
	}
}

func (l *windowLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		l.sweepLocked(now)
		l.nextSweep = now.Add(l.window)
	}

	q := l.quotas[key]
	if q == nil || now.After(q.resetAt) {
		if q == nil && len(l.quotas) >= maxTrackedKeys {
			return true
		}
		l.quotas[key] = &quota{used: 1, resetAt: now.Add(l.window)}
		return true
	}
	if q.used >= l.limit {
		return false
	}
	q.used++
	return true
}

func (l *windowLimiter) sweepLocked(now time.Time) {
	for key, q := range l.quotas {
		if now.After(q.resetAt) {
			delete(l.quotas, key)
		}
	}
}
