package internal

import (
	"context"
	"slices"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Scheduler struct {
	// incremented once per flush, stamped on reactions as they run
	batch int

	// true between the first enqueue and the flush that drains it
	armed   bool
	running bool

	// nesting of NewBatch calls
	depth int

	pending []*Observable
	settled []func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make([]*Observable, 0),
		settled: make([]func(), 0),
	}
}

func (r *Runtime) enqueue(o *Observable) {
	s := r.scheduler

	s.pending = append(s.pending, o)
	r.metrics.pending.Set(float64(len(s.pending)))

	r.arm()
}

func (r *Runtime) arm() {
	s := r.scheduler
	if s.armed {
		return
	}
	s.armed = true

	r.loop.Defer(func() {
		// a manual Flush may already have drained this one
		if s.armed {
			r.Flush()
		}
	})
}

// OnSettled runs fn once the pending flush and the ones its reactions arm are done,
// or on the next loop turn if nothing is pending.
func (r *Runtime) OnSettled(fn func()) {
	s := r.scheduler
	if s.armed {
		s.settled = append(s.settled, fn)
		return
	}

	r.loop.Defer(fn)
}

// NewBatch runs fn and flushes what it marked dirty right away, instead of on the next loop turn.
// Nested calls flush once, when the outermost returns. Inside a flush the work stays queued for the next one.
func (r *Runtime) NewBatch(fn func()) {
	s := r.scheduler

	s.depth++
	defer func() {
		s.depth--
		if s.depth == 0 && s.armed && !s.running {
			r.Flush()
		}
	}()

	fn()
}

// Flush runs one batch: every reaction depending on a dirty observable runs at most once.
// Work queued by the reactions themselves goes to the next flush.
func (r *Runtime) Flush() {
	s := r.scheduler
	if s.running {
		glog.Warningf("[flush]ignored re-entrant flush in batch %d\n", s.batch)
		return
	}
	s.running = true
	defer func() { s.running = false }()

	s.batch++
	batch := s.batch

	pending, settled := s.pending, s.settled
	s.pending = make([]*Observable, 0)
	s.settled = make([]func(), 0)
	s.armed = false

	r.metrics.flushes.Inc()
	r.metrics.pending.Set(0)

	_, span := r.tracer.Start(context.Background(), "obs.flush", trace.WithAttributes(
		attribute.Int("obs.batch", batch),
		attribute.Int("obs.observables", len(pending)),
	))
	defer span.End()

	// marking one of these again before it settles means the next flush
	for _, o := range pending {
		o.flushing = true
	}

	ran := 0
	for _, o := range pending {
		ran += r.process(o, batch, span)
	}
	span.SetAttributes(attribute.Int("obs.reactions", ran))

	r.tracef("[flush]batch %d: %d observables, %d reactions\n", batch, len(pending), ran)

	// reactions armed another flush, wait for that one
	if s.armed {
		s.settled = append(settled, s.settled...)
		return
	}

	for _, fn := range settled {
		r.safeCall(fn)
	}
}

func (r *Runtime) process(o *Observable, batch int, span trace.Span) int {
	if o.disposed || !o.dirty {
		o.settle()
		return 0
	}

	if pruned := o.prune(); pruned > 0 {
		r.metrics.pruned.Add(float64(pruned))
		r.tracef("[flush]%s pruned %d disposed reactions\n", o.id, pruned)
	}

	ran := 0
	// clonning, callbacks may subscribe or unsubscribe while we iterate
	for _, re := range slices.Clone(o.dependents) {
		if o.disposed {
			break
		}
		if re.disposed || re.lastRun == batch {
			continue
		}
		re.lastRun = batch
		ran++

		r.metrics.runs.Inc()
		if err := r.runIsolated(re, batch); err != nil {
			span.RecordError(err)
			r.reportError(err)
		}
	}

	o.settle()
	return ran
}

func (r *Runtime) runIsolated(re *Reaction, batch int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ReactionError{Reaction: re.id, Batch: batch, Cause: rec}
			r.metrics.failures.Inc()
			glog.Errorf("[flush]%s\n", err)
		}
	}()

	re.Run()
	return nil
}

func (r *Runtime) safeCall(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			glog.Errorf("[flush]settled callback panicked: %v\n", rec)
		}
	}()

	fn()
}
