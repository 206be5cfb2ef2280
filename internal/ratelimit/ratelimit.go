// Package ratelimit provides a token bucket limiter, with a per-key variant
// used to throttle individual chat users before their messages reach the
// processing queue.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// New creates a limiter with the given burst capacity and refill rate.
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill adds tokens for the elapsed time. Must be called with mu held.
func (l *Limiter) refill() {
	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// Allow consumes one token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// full reports whether the bucket is back at capacity; an inactive bucket.
func (l *Limiter) full() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= l.maxTokens
}

// PerKeyConfig configures a PerKeyLimiter.
type PerKeyConfig struct {
	MaxTokens     float64
	RefillRate    float64
	CleanupPeriod time.Duration
}

// PerKeyLimiter keeps one bucket per key and discards buckets that refill
// completely between cleanups.
type PerKeyLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	cfg      PerKeyConfig
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPerKey creates a per-key limiter and starts its cleanup loop.
func NewPerKey(cfg PerKeyConfig) *PerKeyLimiter {
	pkl := &PerKeyLimiter{
		limiters: make(map[string]*Limiter),
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go pkl.cleanupLoop()
	}
	return pkl
}

// Allow consumes one token for key. An empty key is always allowed.
func (pkl *PerKeyLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	pkl.mu.RLock()
	limiter, ok := pkl.limiters[key]
	pkl.mu.RUnlock()

	if !ok {
		pkl.mu.Lock()
		limiter, ok = pkl.limiters[key]
		if !ok {
			limiter = New(pkl.cfg.MaxTokens, pkl.cfg.RefillRate)
			pkl.limiters[key] = limiter
		}
		pkl.mu.Unlock()
	}
	return limiter.Allow()
}

// ActiveCount returns the number of tracked keys.
func (pkl *PerKeyLimiter) ActiveCount() int {
	pkl.mu.RLock()
	defer pkl.mu.RUnlock()
	return len(pkl.limiters)
}

// Stop terminates the cleanup loop.
func (pkl *PerKeyLimiter) Stop() {
	pkl.stopOnce.Do(func() { close(pkl.stopCh) })
}

func (pkl *PerKeyLimiter) cleanupLoop() {
	ticker := time.NewTicker(pkl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-pkl.stopCh:
			return
		case <-ticker.C:
			pkl.cleanup()
		}
	}
}

func (pkl *PerKeyLimiter) cleanup() {
	pkl.mu.Lock()
	defer pkl.mu.Unlock()

	for key, limiter := range pkl.limiters {
		if limiter.full() {
			delete(pkl.limiters, key)
		}
	}
}
