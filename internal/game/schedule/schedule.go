// Package schedule provides a cooperative scheduler for one-shot delays and
// cancelable periodic tasks. Nothing runs on its own goroutine: the embedding
// host drives time forward by calling Advance once per simulation frame.
package schedule

import (
	"sync"
	"time"
)

// Task is a scheduled callback. A Task with a zero interval fires once.
//
// Invariant: a canceled Task never fires again.
type Task struct {
	name     string
	next     time.Time
	interval time.Duration
	fn       func(now time.Time)
	seq      uint64

	mu       sync.Mutex
	canceled bool
}

// Name returns the name the task was registered with.
func (t *Task) Name() string { return t.name }

// Cancel prevents any further firing. Safe to call multiple times and from
// inside the task's own callback.
//
// Postcondition: fn will not be called by any Advance that starts after Cancel returns.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canceled = true
}

// Canceled reports whether Cancel has been called or a one-shot task has fired.
func (t *Task) Canceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Scheduler holds pending tasks ordered by deadline.
// All methods are safe for concurrent use; callbacks run on the goroutine
// calling Advance, without the scheduler lock held.
type Scheduler struct {
	mu    sync.Mutex
	tasks []*Task
	seq   uint64
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// After registers fn to fire once at the first Advance whose now is at or after at.
//
// Precondition: fn must not be nil.
// Postcondition: Returns the registered Task.
func (s *Scheduler) After(name string, at time.Time, fn func(now time.Time)) *Task {
	return s.add(&Task{name: name, next: at, fn: fn})
}

// Every registers fn to fire at first and then every interval thereafter
// until canceled. When Advance skips over several intervals, fn fires once
// per elapsed interval.
//
// Precondition: interval > 0; fn must not be nil. Panics if interval <= 0.
// Postcondition: Returns the registered Task.
func (s *Scheduler) Every(name string, first time.Time, interval time.Duration, fn func(now time.Time)) *Task {
	if interval <= 0 {
		panic("schedule.Every: interval must be > 0")
	}
	return s.add(&Task{name: name, next: first, interval: interval, fn: fn})
}

func (s *Scheduler) add(t *Task) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t.seq = s.seq
	s.tasks = append(s.tasks, t)
	return t
}

// Advance fires every task whose deadline is at or before now, earliest
// deadline first, registration order breaking ties. Tasks registered by a
// callback fire in the same Advance only if their deadline has passed.
//
// Postcondition: no live task has a deadline at or before now.
// Returns the number of callbacks invoked.
func (s *Scheduler) Advance(now time.Time) int {
	fired := 0
	for {
		t := s.popDue(now)
		if t == nil {
			return fired
		}
		t.fn(now)
		fired++
	}
}

// popDue removes canceled tasks and returns the earliest due live task,
// rescheduling it when periodic.
func (s *Scheduler) popDue(now time.Time) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.tasks[:0]
	var due *Task
	for _, t := range s.tasks {
		if t.Canceled() {
			continue
		}
		live = append(live, t)
		if t.next.After(now) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live

	if due == nil {
		return nil
	}
	if due.interval > 0 {
		due.next = due.next.Add(due.interval)
	} else {
		due.Cancel()
	}
	return due
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.Canceled() {
			n++
		}
	}
	return n
}

// CancelAll cancels every registered task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.tasks = nil
}
