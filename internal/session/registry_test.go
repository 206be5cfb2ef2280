package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pakawat-dev/support-linebot-go/internal/logger"
)

func newTestRegistry(timeout time.Duration) (*Registry, *time.Time) {
	r := NewRegistry(timeout, logger.NewNop(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestTouch_CreatesThenUpdates(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)

	s := r.Touch("U1", Patch{LastMessageText: "สวัสดี"})
	require.NotNil(t, s)
	assert.Equal(t, 1, s.MessageCount)
	assert.Equal(t, "สวัสดี", s.LastMessageText)

	*now = now.Add(5 * time.Minute)
	s = r.Touch("U1", Patch{LastMessageText: "ราคาเท่าไหร่"})
	assert.Equal(t, 2, s.MessageCount)
	assert.Equal(t, "ราคาเท่าไหร่", s.LastMessageText)
	assert.Equal(t, 1, r.Count())
}

func TestTouch_EmptyPatchKeepsLastMessage(t *testing.T) {
	r, _ := newTestRegistry(30 * time.Minute)

	r.Touch("U1", Patch{LastMessageText: "first"})
	s := r.Touch("U1", Patch{})
	assert.Equal(t, "first", s.LastMessageText)
	assert.Equal(t, 2, s.MessageCount)
}

func TestGet_ExpiresLazily(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)

	r.Touch("U1", Patch{})

	*now = now.Add(29 * time.Minute)
	require.NotNil(t, r.Get("U1"), "session inside timeout must survive")

	*now = now.Add(1 * time.Minute)
	assert.Nil(t, r.Get("U1"), "session at exactly the timeout since last touch must be gone")
	assert.Equal(t, 0, r.Count())
}

func TestGet_ReturnsCopy(t *testing.T) {
	r, _ := newTestRegistry(30 * time.Minute)

	r.Touch("U1", Patch{LastMessageText: "a"})
	s := r.Get("U1")
	s.LastMessageText = "mutated"

	assert.Equal(t, "a", r.Get("U1").LastMessageText)
}

func TestTouch_ExpiredSessionRestartsCount(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)

	r.Touch("U1", Patch{})
	r.Touch("U1", Patch{})

	*now = now.Add(31 * time.Minute)
	s := r.Touch("U1", Patch{})
	assert.Equal(t, 1, s.MessageCount, "expired session must restart fresh")
}

func TestSweepExpired(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)

	r.Touch("U1", Patch{})
	r.Touch("U2", Patch{})

	*now = now.Add(20 * time.Minute)
	r.Touch("U2", Patch{})

	*now = now.Add(15 * time.Minute)
	removed := r.SweepExpired()
	assert.Equal(t, 1, removed)
	assert.Nil(t, r.Get("U1"))
	assert.NotNil(t, r.Get("U2"))
}
