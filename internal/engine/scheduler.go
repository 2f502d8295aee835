// Package engine drives the simulation's periodic work: a pool of
// independently scheduled tasks, each on its own ticker, plus the in-memory
// event log the subsystems report into.
package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Task is one periodic recompute function. Tasks run concurrently with user
// actions and with each other; ordering between tasks is not defined.
type Task struct {
	Name  string
	Every time.Duration
	Fn    func(now time.Time)
}

// Scheduler runs registered tasks until stopped. Each task gets its own
// goroutine and ticker, so a slow pass in one subsystem never delays another.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []Task
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{stop: make(chan struct{})}
}

// Every registers a task. Must be called before Start.
func (s *Scheduler) Every(name string, every time.Duration, fn func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, Task{Name: name, Every: every, Fn: fn})
}

// Start launches all registered tasks.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.run(t)
	}
	slog.Info("scheduler started", "tasks", len(s.tasks))
}

// Stop halts all tasks and waits for in-flight passes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run(t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			start := time.Now()
			t.Fn(now)
			if elapsed := time.Since(start); elapsed > t.Every {
				slog.Warn("tick overran its interval",
					"task", t.Name,
					"every", t.Every,
					"elapsed", elapsed,
				)
			}
		}
	}
}
