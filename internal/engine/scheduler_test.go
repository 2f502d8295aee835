package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsRegisteredTasks(t *testing.T) {
	s := NewScheduler()

	var ticks atomic.Int64
	ran := make(chan struct{}, 1)
	s.Every("counter", 10*time.Millisecond, func(now time.Time) {
		ticks.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	s.Stop()

	got := ticks.Load()
	assert.GreaterOrEqual(t, got, int64(1))

	// Stopped means stopped: no further passes arrive.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, got, ticks.Load())
}

func TestSchedulerTasksRunIndependently(t *testing.T) {
	s := NewScheduler()

	fast := make(chan struct{}, 1)
	s.Every("blocked", 10*time.Millisecond, func(now time.Time) {
		time.Sleep(time.Second)
	})
	s.Every("fast", 10*time.Millisecond, func(now time.Time) {
		select {
		case fast <- struct{}{}:
		default:
		}
	})

	s.Start()
	defer s.Stop()

	// The fast task keeps ticking while the other one is stuck mid-pass.
	select {
	case <-fast:
	case <-time.After(2 * time.Second):
		t.Fatal("fast task starved by a slow sibling")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Every("noop", time.Hour, func(time.Time) {})

	s.Start()
	s.Start()
	s.Stop()
}
