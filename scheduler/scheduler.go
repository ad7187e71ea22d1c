// Package scheduler is a cooperative, single-goroutine task scheduler.
//
// Tasks are ordered by expiration time (derived from their priority) and run
// in slices; a running task checks ShouldYield between units of work and may
// hand back a continuation to be resumed in a later slice. A microtask queue
// is drained before and after every slice.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Priority uint8

const (
	NoPriority Priority = iota
	ImmediatePriority
	UserBlockingPriority
	NormalPriority
	LowPriority
	IdlePriority
)

func (p Priority) String() string {
	switch p {
	case ImmediatePriority:
		return "immediate"
	case UserBlockingPriority:
		return "user-blocking"
	case NormalPriority:
		return "normal"
	case LowPriority:
		return "low"
	case IdlePriority:
		return "idle"
	default:
		return "none"
	}
}

// timeout is how long a task may wait before it is considered expired and run
// without yielding.
func (p Priority) timeout() time.Duration {
	switch p {
	case ImmediatePriority:
		return -time.Millisecond
	case UserBlockingPriority:
		return 250 * time.Millisecond
	case LowPriority:
		return 10 * time.Second
	case IdlePriority:
		return time.Duration(1<<62 - 1)
	default:
		return 5 * time.Second
	}
}

// Callback is a unit of scheduled work. Returning a non-nil Callback keeps the
// task alive and resumes it with the returned continuation in a later slice.
type Callback func(didTimeout bool) Callback

type Task struct {
	id         uint64
	priority   Priority
	callback   Callback
	expiration time.Time
	index      int
	canceled   bool
}

func (t *Task) Priority() Priority {
	return t.priority
}

func (t *Task) Canceled() bool {
	return t.canceled
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].expiration.Equal(h[j].expiration) {
		return h[i].id < h[j].id
	}
	return h[i].expiration.Before(h[j].expiration)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

type Scheduler struct {
	now         func() time.Time
	frameBudget time.Duration
	yieldEvery  int
	logger      *slog.Logger
	onError     func(error)

	tasks      taskHeap
	taskSeq    uint64
	microtasks []func()
	sliceStart time.Time
	checks     int
	performing bool

	ingressMu sync.Mutex
	ingress   []func()
	wake      chan struct{}
}

type Option func(*Scheduler)

// WithClock replaces time.Now as the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithFrameBudget sets how long a slice may run before ShouldYield reports true.
func WithFrameBudget(d time.Duration) Option {
	return func(s *Scheduler) {
		s.frameBudget = d
	}
}

// WithYieldEvery makes ShouldYield deterministic: it reports true on every
// n-th call within a slice, regardless of elapsed time.
func WithYieldEvery(n int) Option {
	return func(s *Scheduler) {
		s.yieldEvery = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithOnError receives panics recovered from tasks and microtasks.
func WithOnError(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		now:         time.Now,
		frameBudget: 5 * time.Millisecond,
		microtasks:  make([]func(), 0, 16),
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// ScheduleCallback queues cb at the given priority and returns a handle that
// can be passed to CancelCallback.
func (s *Scheduler) ScheduleCallback(p Priority, cb Callback) *Task {
	s.taskSeq++
	t := &Task{
		id:         s.taskSeq,
		priority:   p,
		callback:   cb,
		expiration: s.now().Add(p.timeout()),
	}
	heap.Push(&s.tasks, t)
	s.signal()
	return t
}

// CancelCallback marks the task canceled; it is dropped lazily when it
// reaches the head of the queue.
func (s *Scheduler) CancelCallback(t *Task) {
	if t == nil {
		return
	}
	t.canceled = true
	t.callback = nil
}

func (s *Scheduler) ShouldYield() bool {
	if s.yieldEvery > 0 {
		s.checks++
		return s.checks%s.yieldEvery == 0
	}
	return s.now().Sub(s.sliceStart) >= s.frameBudget
}

func (s *Scheduler) QueueMicrotask(fn func()) {
	s.microtasks = append(s.microtasks, fn)
	s.signal()
}

// Post hands fn to the loop goroutine. It is the only method safe to call
// from other goroutines.
func (s *Scheduler) Post(fn func()) {
	s.ingressMu.Lock()
	s.ingress = append(s.ingress, fn)
	s.ingressMu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether microtasks or live tasks are waiting.
func (s *Scheduler) Pending() bool {
	if len(s.microtasks) > 0 {
		return true
	}
	for _, t := range s.tasks {
		if !t.canceled && t.callback != nil {
			return true
		}
	}
	return false
}

// RunOnce drains microtasks, runs one slice of tasks and drains microtasks
// again. It reports whether more work is pending.
func (s *Scheduler) RunOnce() bool {
	s.drainIngress()
	s.drainMicrotasks()
	s.flushWork()
	s.drainMicrotasks()
	return s.Pending()
}

// RunUntilIdle calls RunOnce until nothing is pending and returns the number
// of slices executed.
func (s *Scheduler) RunUntilIdle() int {
	slices := 0
	for {
		slices++
		if !s.RunOnce() {
			return slices
		}
	}
}

// Run processes work until ctx is done, sleeping while idle.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if !s.RunOnce() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// FlushMicrotasks drains the microtask queue, including microtasks queued
// while draining, without running any task.
func (s *Scheduler) FlushMicrotasks() {
	s.drainIngress()
	s.drainMicrotasks()
}

func (s *Scheduler) drainIngress() {
	s.ingressMu.Lock()
	fns := s.ingress
	s.ingress = nil
	s.ingressMu.Unlock()
	for _, fn := range fns {
		s.safeExecute("ingress", fn)
	}
}

func (s *Scheduler) drainMicrotasks() {
	for len(s.microtasks) > 0 {
		fn := s.microtasks[0]
		s.microtasks[0] = nil
		s.microtasks = s.microtasks[1:]
		s.safeExecute("microtask", fn)
	}
}

func (s *Scheduler) flushWork() {
	if s.performing {
		return
	}
	s.performing = true
	defer func() { s.performing = false }()

	s.sliceStart = s.now()
	s.checks = 0
	ran := false
	for s.tasks.Len() > 0 {
		t := s.tasks[0]
		if t.canceled || t.callback == nil {
			heap.Pop(&s.tasks)
			continue
		}
		now := s.now()
		if ran && t.expiration.After(now) && s.ShouldYield() {
			return
		}
		ran = true
		cb := t.callback
		t.callback = nil
		didTimeout := !t.expiration.After(now)

		var next Callback
		s.safeExecute("task", func() {
			next = cb(didTimeout)
		})
		if next != nil && !t.canceled {
			t.callback = next
			return
		}
		if t.index >= 0 {
			heap.Remove(&s.tasks, t.index)
		}
	}
}

func (s *Scheduler) safeExecute(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			err = fmt.Errorf("scheduler: %s panicked: %w", kind, err)
			s.logger.Error("recovered panic", "kind", kind, "err", err)
			if s.onError != nil {
				s.onError(err)
			}
		}
	}()
	fn()
}
