package internal

import (
	"context"
	"sync"

	"github.com/AnatoleLucet/obs/internal/config"
	"github.com/AnatoleLucet/obs/internal/loop"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AnatoleLucet/obs"

// Runtime is the whole mutable state of the reactive engine:
// the scheduler queue, the batch counter, the active reaction and the loop flushes run on.
// It is confined to the goroutine driving its loop.
type Runtime struct {
	config config.Config

	loop      *loop.Loop
	tracker   *Tracker
	scheduler *Scheduler

	registry *prometheus.Registry
	metrics  *Metrics

	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	barrier       Barrier
	errorHandlers []func(error)
}

type Option func(*Runtime)

// WithLoop runs flushes on the given loop instead of a private one.
func WithLoop(l *loop.Loop) Option {
	return func(r *Runtime) { r.loop = l }
}

// WithRegistry registers the runtime metrics on reg.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

// WithTracerProvider sets where flush spans go. Defaults to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runtime) { r.tracerProvider = tp }
}

// WithBarrier installs the view layer's synchronous render barrier used in test sync mode.
func WithBarrier(b Barrier) Option {
	return func(r *Runtime) { r.barrier = b }
}

func NewRuntime(cfg config.Config, opts ...Option) *Runtime {
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = config.DefaultMaxTicks
	}

	r := &Runtime{
		config:    cfg,
		tracker:   NewTracker(),
		scheduler: NewScheduler(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.loop == nil {
		r.loop = loop.New()
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}
	if r.tracerProvider == nil {
		r.tracerProvider = otel.GetTracerProvider()
	}

	r.metrics = NewMetrics(r.registry)
	r.tracer = r.tracerProvider.Tracer(tracerName)

	return r
}

var (
	runtimeMu     sync.Mutex
	globalRuntime *Runtime
)

// GetRuntime returns the process-wide runtime, creating it on first use.
func GetRuntime() *Runtime {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if globalRuntime == nil {
		globalRuntime = NewRuntime(config.Default())
	}

	return globalRuntime
}

// SetRuntime replaces the process-wide runtime and returns the previous one (possibly nil).
func SetRuntime(r *Runtime) *Runtime {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	prev := globalRuntime
	globalRuntime = r
	return prev
}

func (r *Runtime) Config() config.Config {
	return r.config
}

// SetConfig swaps the flags. MaxTicks keeps its previous value when unset.
func (r *Runtime) SetConfig(cfg config.Config) {
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = r.config.MaxTicks
	}
	r.config = cfg
}

func (r *Runtime) SetBarrier(b Barrier) {
	r.barrier = b
}

// OnError registers a listener for reactions that panicked during a flush.
func (r *Runtime) OnError(fn func(error)) {
	r.errorHandlers = append(r.errorHandlers, fn)
}

func (r *Runtime) Loop() *loop.Loop {
	return r.loop
}

func (r *Runtime) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Runtime) Metrics() *Metrics {
	return r.metrics
}

// Batch returns the batch counter: the number of flushes run so far.
func (r *Runtime) Batch() int {
	return r.scheduler.batch
}

// Pending returns the observables waiting for the next flush.
func (r *Runtime) Pending() []*Observable {
	return append([]*Observable(nil), r.scheduler.pending...)
}

// Submit queues fn on the loop. Safe to call from any goroutine.
func (r *Runtime) Submit(fn func()) error {
	return r.loop.Submit(fn)
}

// Close stops the loop. Pending flushes are dropped.
func (r *Runtime) Close() {
	r.loop.Close()
}

// Tick runs one loop turn on the calling goroutine.
func (r *Runtime) Tick() error {
	_, err := r.loop.Tick()
	return err
}

// Drain runs loop turns until every flush, including the ones armed by reactions, is done.
func (r *Runtime) Drain() error {
	_, err := r.loop.Drain(r.config.MaxTicks)
	return err
}

// Run drives the loop until ctx is done or the loop is closed.
func (r *Runtime) Run(ctx context.Context) error {
	return r.loop.Run(ctx)
}

// Untrack runs fn with no active reaction.
func (r *Runtime) Untrack(fn func()) {
	r.tracker.RunUntracked(fn)
}

// Observe registers the active reaction as a dependent of o and returns o.
// Outside of a reactive scope it only warns.
func (r *Runtime) Observe(o *Observable) *Observable {
	if o == nil {
		glog.Warningf("[obs]observe called with a nil observable\n")
		return nil
	}

	active := r.tracker.Active()
	if active == nil {
		glog.Warningf("[obs]%s observed outside of a reactive scope\n", o.id)
		return o
	}

	o.AddDependent(active)
	return o
}

// Track is Observe without the warning, for reads that are allowed outside of a scope.
func (r *Runtime) Track(o *Observable) {
	if active := r.tracker.Active(); active != nil {
		o.AddDependent(active)
	}
}

func (r *Runtime) tracef(format string, args ...any) {
	if r.config.Debug || bool(glog.V(2)) {
		glog.Infof(format, args...)
	}
}

// checkLoop warns, in debug mode, about state touched from outside the goroutine running the loop.
func (r *Runtime) checkLoop(op string) {
	if r.config.Debug && r.loop.Running() && !r.loop.OnLoop() {
		glog.Warningf("[obs]%s called off the loop goroutine\n", op)
	}
}

func (r *Runtime) reportError(err error) {
	for _, handler := range r.errorHandlers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					glog.Errorf("[obs]error handler panicked: %v\n", rec)
				}
			}()

			handler(err)
		}()
	}
}
