// Package session tracks per-user conversational state with expiry.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
)

// Session is one user's conversational state. Updated in place on each
// message, never shared across users.
type Session struct {
	UserID          string
	LastMessageText string
	MessageCount    int
	CreatedAt       time.Time
	LastTouchedAt   time.Time
}

// Patch carries the fields touch merges into an existing session.
type Patch struct {
	LastMessageText string
}

// Registry stores sessions keyed by user ID. Expiry happens both lazily on
// lookup and via a periodic sweep; the timeout is fixed at construction.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewRegistry creates a registry with the given session timeout.
func NewRegistry(timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		log:      log.WithModule("session"),
		metrics:  m,
		now:      time.Now,
	}
}

// Touch creates the user's session if absent or expired, otherwise merges
// the patch into it. Either way lastTouchedAt is reset to now.
func (r *Registry) Touch(userID string, patch Patch) *Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if ok && now.Sub(s.LastTouchedAt) >= r.timeout {
		delete(r.sessions, userID)
		ok = false
	}
	if !ok {
		s = &Session{UserID: userID, CreatedAt: now}
		r.sessions[userID] = s
	}

	if patch.LastMessageText != "" {
		s.LastMessageText = patch.LastMessageText
	}
	s.MessageCount++
	s.LastTouchedAt = now

	r.metrics.SetActiveSessions(len(r.sessions))
	return s
}

// Get returns a copy of the user's session, or nil if absent or expired.
// Expired sessions encountered here are deleted.
func (r *Registry) Get(userID string) *Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	if now.Sub(s.LastTouchedAt) >= r.timeout {
		delete(r.sessions, userID)
		r.metrics.SetActiveSessions(len(r.sessions))
		return nil
	}

	copied := *s
	return &copied
}

// Count returns the number of stored sessions, expired or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SweepExpired deletes every session whose last touch is at least the
// timeout ago. Returns the number removed.
func (r *Registry) SweepExpired() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastTouchedAt) >= r.timeout {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.log.WithField("removed", removed).Debug("swept expired sessions")
	}
	r.metrics.SetActiveSessions(len(r.sessions))
	return removed
}

// RunSweeper sweeps on the given interval until the context is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepExpired()
		}
	}
}
