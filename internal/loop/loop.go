package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/petermattis/goid"
)

var (
	// ErrLoopTerminated is returned when tasks are submitted to a closed loop.
	ErrLoopTerminated = errors.New("loop: terminated")

	// ErrReentrant is returned when a task tries to drive the loop that is running it.
	ErrReentrant = errors.New("loop: cannot drive the loop from one of its own tasks")

	// ErrBusy is returned when another goroutine is already driving the loop.
	ErrBusy = errors.New("loop: driven by another goroutine")

	// ErrRunaway is returned by Drain when tasks keep scheduling more tasks past the tick limit.
	ErrRunaway = errors.New("loop: tasks kept re-arming past the tick limit")
)

// Loop is a single-goroutine task executor.
// Tasks can be submitted from any goroutine and run one after the other, in submission order,
// on whichever goroutine drives the loop (Run, Tick or Drain).
// A task submitted while the loop is running a turn is picked up by the next turn.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool

	wake chan struct{}
	done chan struct{}

	// goroutine id of the current driver, 0 when idle
	driver atomic.Int64

	running atomic.Bool
	ticks   atomic.Uint64
}

func New() *Loop {
	return &Loop{
		tasks: make([]func(), 0),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Submit queues fn to run after every task already queued.
func (l *Loop) Submit(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return nil
}

// Defer is Submit for callers that have nothing to do with the error.
func (l *Loop) Defer(fn func()) {
	if err := l.Submit(fn); err != nil {
		glog.Warningf("[loop]dropped deferred task: %s\n", err)
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.tasks)
}

// Ticks returns how many turns the loop has run.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// OnLoop reports whether the calling goroutine is the one driving the loop.
func (l *Loop) OnLoop() bool {
	return l.driver.Load() == goid.Get()
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Tick runs one turn: the tasks queued when it was called.
// Tasks queued during the turn are left for the next one.
func (l *Loop) Tick() (int, error) {
	release, err := l.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	return l.tick(), nil
}

// Drain runs turns until no task is left, or fails with ErrRunaway after maxTicks turns.
func (l *Loop) Drain(maxTicks int) (int, error) {
	release, err := l.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	ran := 0
	for turn := 0; l.Pending() > 0; turn++ {
		if turn >= maxTicks {
			return ran, fmt.Errorf("drain after %d turns: %w", turn, ErrRunaway)
		}
		ran += l.tick()
	}

	return ran, nil
}

// Run drives the loop on the calling goroutine until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	release, err := l.acquire()
	if err != nil {
		return err
	}
	defer release()

	l.running.Store(true)
	defer l.running.Store(false)

	for {
		for l.Pending() > 0 {
			l.tick()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Close stops Run and rejects further tasks. Tasks still queued are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	if n := len(l.tasks); n > 0 {
		glog.Warningf("[loop]closed with %d pending tasks\n", n)
	}
	l.tasks = nil
	close(l.done)
}

func (l *Loop) acquire() (func(), error) {
	gid := goid.Get()

	if !l.driver.CompareAndSwap(0, gid) {
		if l.driver.Load() == gid {
			return nil, ErrReentrant
		}
		return nil, ErrBusy
	}

	return func() { l.driver.Store(0) }, nil
}

func (l *Loop) tick() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = make([]func(), 0, len(tasks))
	l.mu.Unlock()

	for _, task := range tasks {
		l.safeExecute(task)
	}

	l.ticks.Add(1)
	return len(tasks)
}

func (l *Loop) safeExecute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[loop]task panicked: %v\n", r)
		}
	}()

	task()
}
