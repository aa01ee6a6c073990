package obs

import (
	"context"

	"github.com/AnatoleLucet/obs/internal"
	"github.com/AnatoleLucet/obs/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Observable is a mutable entity reactions can depend on.
	// Domain entities embed one and call MarkDirty from their setters.
	Observable = internal.Observable

	// Reaction is a disposable unit of re-execution.
	Reaction = internal.Reaction

	// View is what Reactive needs from a view instance: a way to ask for a re-render.
	View = internal.View

	// Barrier runs fn and returns once every render it requested is done.
	Barrier = internal.Barrier

	// ReactionError is the error a reaction panicking during a flush turns into.
	ReactionError = internal.ReactionError

	Config = config.Config

	Option = internal.Option
)

// WithRegistry registers the runtime metrics on reg.
func WithRegistry(reg *prometheus.Registry) Option { return internal.WithRegistry(reg) }

// WithTracerProvider sets where flush spans go.
func WithTracerProvider(tp trace.TracerProvider) Option { return internal.WithTracerProvider(tp) }

// WithBarrier installs the synchronous render barrier used in test sync mode.
func WithBarrier(b Barrier) Option { return internal.WithBarrier(b) }

// DefaultConfig returns the flags a fresh runtime starts with.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads a TOML config file. An empty path or a missing file gives the defaults.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Configure swaps the flags of the current runtime.
func Configure(cfg Config) { internal.GetRuntime().SetConfig(cfg) }

// Reset replaces the process-wide runtime with a fresh one.
// Everything created before keeps pointing at the old runtime.
func Reset(cfg Config, opts ...Option) {
	internal.SetRuntime(internal.NewRuntime(cfg, opts...))
}

// NewObservable creates an observable bound to the current runtime.
func NewObservable() *Observable {
	return internal.GetRuntime().NewObservable()
}

// Observe registers the reaction currently running as a dependent of o, and returns o.
// Called outside of a reactive scope it only logs a warning.
func Observe(o *Observable) *Observable {
	return internal.GetRuntime().Observe(o)
}

// Reactive wraps render so that every observable it observes re-renders view when it changes.
// The returned dispose func unmounts the view and stops re-renders.
func Reactive[P, R any](view View, render func(P) R) (func(P) R, func()) {
	tracked := internal.GetRuntime().NewTracked(view)

	wrapped := func(props P) R {
		var result R
		tracked.Render(func() { result = render(props) })
		return result
	}

	return wrapped, tracked.Dispose
}

// Subscribe runs cb on every flush o is part of, until Unsubscribe.
// Subscribing the same callback twice creates two independent reactions.
func Subscribe(o *Observable, cb func()) *Reaction {
	re := internal.GetRuntime().NewReaction(cb)
	o.AddDependent(re)
	return re
}

// Unsubscribe removes re from o and disposes it.
func Unsubscribe(o *Observable, re *Reaction) {
	if re == nil {
		return
	}

	o.RemoveDependent(re)
	re.Dispose()
}

// Untrack runs the given function without registering any dependency.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnSettled runs fn once the pending flush is done, or on the next loop turn if nothing is pending.
func OnSettled(fn func()) {
	internal.GetRuntime().OnSettled(fn)
}

// OnError registers a listener for reactions that panicked during a flush.
// The error is a *ReactionError.
func OnError(fn func(error)) {
	internal.GetRuntime().OnError(fn)
}

// SetBarrier installs the view layer's synchronous render barrier.
func SetBarrier(b Barrier) {
	internal.GetRuntime().SetBarrier(b)
}

// Batch returns the number of flushes run so far.
func Batch() int {
	return internal.GetRuntime().Batch()
}

// NewBatch runs fn and flushes the observables it marked dirty before returning,
// instead of on the next loop turn.
func NewBatch(fn func()) {
	internal.GetRuntime().NewBatch(fn)
}

// Flush runs the pending batch now instead of waiting for the loop.
func Flush() {
	internal.GetRuntime().Flush()
}

// Submit queues fn on the loop of the current runtime.
// Code running on other goroutines mutates observables through it.
func Submit(fn func()) error {
	return internal.GetRuntime().Submit(fn)
}

// Close stops the loop of the current runtime.
func Close() {
	internal.GetRuntime().Close()
}

// Tick runs one loop turn on the calling goroutine.
func Tick() error {
	return internal.GetRuntime().Tick()
}

// Drain runs loop turns until every pending flush is done.
func Drain() error {
	return internal.GetRuntime().Drain()
}

// Run drives the loop until ctx is done.
func Run(ctx context.Context) error {
	return internal.GetRuntime().Run(ctx)
}

// Registry returns the registry the current runtime reports its metrics on.
func Registry() *prometheus.Registry {
	return internal.GetRuntime().Registry()
}
