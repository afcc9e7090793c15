package ratelimit

import (
	"fmt"
	"sync"
	"time"

	gerr "github.com/jekabolt/grbpwr-catalog/internal/errors"
)

// Limiter implements a simple in-memory fixed window rate limiter
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	window   time.Duration
	max      int
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		l.counters[key] = &counter{
			count:     1,
			expiresAt: now.Add(l.window),
		}
		return true
	}

	if c.count >= l.max {
		return false
	}

	c.count++
	return true
}

// GetRemaining returns the number of remaining requests for the given key
func (l *Limiter) GetRemaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, exists := l.counters[key]
	if !exists || l.now().After(c.expiresAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) evictExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, c := range l.counters {
		if now.After(c.expiresAt) {
			delete(l.counters, key)
		}
	}
}

// cleanup periodically removes expired counters
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictExpired()
		case <-l.stop:
			return
		}
	}
}

const (
	OpSearch = "search"
	OpFacets = "facets"
)

type Config struct {
	SearchPerMinute int `mapstructure:"search_per_minute"`
	FacetsPerMinute int `mapstructure:"facets_per_minute"`
	// RequestsPerMinute is the global per-IP limit applied to every public route.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// MultiKeyLimiter manages one limiter per catalog operation
type MultiKeyLimiter struct {
	limiters map[string]*Limiter
}

// NewMultiKeyLimiter creates per-operation limiters; a zero limit disables the operation's limiter.
func NewMultiKeyLimiter(c Config) *MultiKeyLimiter {
	m := &MultiKeyLimiter{limiters: map[string]*Limiter{}}
	if c.SearchPerMinute > 0 {
		m.limiters[OpSearch] = NewLimiter(time.Minute, c.SearchPerMinute)
	}
	if c.FacetsPerMinute > 0 {
		m.limiters[OpFacets] = NewLimiter(time.Minute, c.FacetsPerMinute)
	}
	return m
}

// Check verifies that the client may run op.
func (m *MultiKeyLimiter) Check(op, client string) error {
	if m == nil {
		return nil
	}
	l, ok := m.limiters[op]
	if !ok {
		return nil
	}
	if !l.Allow(client) {
		return fmt.Errorf("%w: %s", gerr.ErrRateLimited, op)
	}
	return nil
}

// Remaining returns the remaining requests of op for client, -1 when op is unlimited.
func (m *MultiKeyLimiter) Remaining(op, client string) int {
	if m == nil {
		return -1
	}
	l, ok := m.limiters[op]
	if !ok {
		return -1
	}
	return l.GetRemaining(client)
}

func (m *MultiKeyLimiter) Stop() {
	if m == nil {
		return
	}
	for _, l := range m.limiters {
		l.Stop()
	}
}
