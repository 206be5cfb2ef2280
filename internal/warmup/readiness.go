package warmup

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the initial warmup has completed. The
// service also reports ready once the timeout elapses, so a dead upstream
// at boot degrades to snapshot answers instead of blocking traffic forever.
type ReadinessState struct {
	ready     atomic.Bool
	startTime time.Time
	timeout   time.Duration
}

// ReadinessStatus is the /readyz response body.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState creates a not-ready state with the given timeout.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{startTime: time.Now(), timeout: timeout}
}

// IsReady reports whether traffic should be accepted.
func (s *ReadinessState) IsReady() bool {
	return s.ready.Load() || time.Since(s.startTime) >= s.timeout
}

// MarkReady records warmup completion.
func (s *ReadinessState) MarkReady() {
	s.ready.Store(true)
}

// Status returns the current state for the readiness endpoint.
func (s *ReadinessState) Status() ReadinessStatus {
	status := ReadinessStatus{
		Ready:          s.IsReady(),
		ElapsedSeconds: int(time.Since(s.startTime).Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}
	if !status.Ready {
		status.Reason = "initial data load in progress"
	} else if !s.ready.Load() {
		status.Reason = "timeout reached (load may still be running)"
	}
	return status
}
