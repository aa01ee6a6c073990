package obs

import "github.com/AnatoleLucet/obs/internal"

// Value is a single observable value.
// When T is an interface type holding values that can't be compared (slices, maps, funcs),
// every Write counts as a change.
type Value[T comparable] struct {
	rt         *internal.Runtime
	observable *Observable

	value T
}

// NewValue creates a value bound to the current runtime.
func NewValue[T comparable](initial T) *Value[T] {
	rt := internal.GetRuntime()

	return &Value[T]{
		rt:         rt,
		observable: rt.NewObservable(),
		value:      initial,
	}
}

// Read returns the value, tracking the dependency if within a reactive scope.
func (v *Value[T]) Read() T {
	v.rt.Track(v.observable)
	return v.value
}

// Peek returns the value without tracking.
func (v *Value[T]) Peek() T {
	return v.value
}

// Write sets the value. Dependents are notified only if it changed.
func (v *Value[T]) Write(value T) {
	if v.observable.Disposed() {
		v.observable.MarkDirty() // logs
		return
	}
	if !changed(v.value, value) {
		return
	}

	v.value = value
	v.observable.MarkDirty()
}

func (v *Value[T]) Observable() *Observable {
	return v.observable
}

func (v *Value[T]) Dispose() {
	v.observable.Dispose()
}

func changed[T comparable](prev, next T) (diff bool) {
	defer func() {
		if recover() != nil {
			diff = true
		}
	}()

	return prev != next
}
