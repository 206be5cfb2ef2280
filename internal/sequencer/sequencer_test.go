package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
)

const testBusy = "ขออภัยค่ะ ขณะนี้มีผู้ใช้งานจำนวนมาก กรุณาลองใหม่อีกครั้ง"

func collect(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestEnqueue_StrictFIFOOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	handler := func(_ context.Context, _ string, text string) (string, error) {
		mu.Lock()
		order = append(order, text)
		mu.Unlock()
		return "reply:" + text, nil
	}

	s := New(context.Background(), handler, 100, testBusy, time.Second, logger.NewNop(), nil)

	var results []<-chan Result
	for _, msg := range []string{"A", "B", "C", "D", "E"} {
		results = append(results, s.Enqueue("U1", msg))
	}
	for i, ch := range results {
		r := collect(t, ch)
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("reply:%c", 'A'+byte(i)), r.Text)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, order)
}

func TestEnqueue_ShedsAtCapacity(t *testing.T) {
	gate := make(chan struct{})
	handler := func(_ context.Context, _ string, text string) (string, error) {
		<-gate
		return text, nil
	}

	s := New(context.Background(), handler, 2, testBusy, 5*time.Second, logger.NewNop(), nil)

	// First request is pulled by the worker and blocks on the gate.
	first := s.Enqueue("U1", "in-flight")
	require.Eventually(t, func() bool { return s.QueueDepth() == 0 }, time.Second, time.Millisecond)

	second := s.Enqueue("U1", "queued-1")
	third := s.Enqueue("U1", "queued-2")
	require.Equal(t, 2, s.QueueDepth())

	shed := collect(t, s.Enqueue("U1", "over-capacity"))
	assert.NoError(t, shed.Err, "load shedding is not an error")
	assert.Equal(t, testBusy, shed.Text)

	close(gate)
	assert.Equal(t, "in-flight", collect(t, first).Text)
	assert.Equal(t, "queued-1", collect(t, second).Text)
	assert.Equal(t, "queued-2", collect(t, third).Text)
}

func TestEnqueue_ErrorIsolation(t *testing.T) {
	boom := errors.New("provider down")
	handler := func(_ context.Context, _ string, text string) (string, error) {
		if text == "bad" {
			return "", boom
		}
		return "ok:" + text, nil
	}

	s := New(context.Background(), handler, 10, testBusy, time.Second, logger.NewNop(), nil)

	good1 := s.Enqueue("U1", "one")
	bad := s.Enqueue("U1", "bad")
	good2 := s.Enqueue("U1", "two")

	assert.Equal(t, "ok:one", collect(t, good1).Text)
	assert.ErrorIs(t, collect(t, bad).Err, boom)

	r := collect(t, good2)
	require.NoError(t, r.Err, "a failed request must not halt draining")
	assert.Equal(t, "ok:two", r.Text)
}

func TestEnqueue_SingleInFlightHandler(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	handler := func(_ context.Context, _, text string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return text, nil
	}

	s := New(context.Background(), handler, 100, testBusy, time.Second, logger.NewNop(), nil)

	var chans []<-chan Result
	for i := 0; i < 20; i++ {
		chans = append(chans, s.Enqueue("U1", fmt.Sprintf("m%d", i)))
	}
	for _, ch := range chans {
		collect(t, ch)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight)
}

func TestProcess_HandleDeadline(t *testing.T) {
	handler := func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	s := New(context.Background(), handler, 10, testBusy, 10*time.Millisecond, logger.NewNop(), nil)

	r := collect(t, s.Enqueue("U1", "slow"))
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
}

func TestClose_RejectsNewWork(t *testing.T) {
	handler := func(_ context.Context, _, text string) (string, error) { return text, nil }
	s := New(context.Background(), handler, 10, testBusy, time.Second, logger.NewNop(), nil)

	s.Close()
	r := collect(t, s.Enqueue("U1", "late"))
	assert.Equal(t, testBusy, r.Text)
	assert.ErrorIs(t, r.Err, apperrors.ErrQueueSaturated)
}
