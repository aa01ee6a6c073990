package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservable(t *testing.T) {
	t.Run("rejects duplicate dependents", func(t *testing.T) {
		r := newTestRuntime(t)
		o := r.NewObservable()
		re := r.NewReaction(func() {})

		o.AddDependent(re)
		o.AddDependent(re)
		o.AddDependent(nil)

		assert.Equal(t, []*Reaction{re}, o.Dependents())
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		r := newTestRuntime(t)
		o := r.NewObservable()
		a := r.NewReaction(func() {})
		b := r.NewReaction(func() {})

		o.AddDependent(b)
		o.AddDependent(a)

		assert.Equal(t, []*Reaction{b, a}, o.Dependents())
	})

	t.Run("mark dirty enqueues once", func(t *testing.T) {
		r := newTestRuntime(t)
		o := r.NewObservable()

		o.MarkDirty()
		o.MarkDirty()

		assert.True(t, o.Dirty())
		assert.Equal(t, []*Observable{o}, r.Pending())
		assert.Equal(t, 1, r.Loop().Pending())
	})

	t.Run("remove dependent goes through the batch", func(t *testing.T) {
		log := []string{}

		r := newTestRuntime(t)
		o := r.NewObservable()
		keep := r.NewReaction(func() { log = append(log, "keep") })
		gone := r.NewReaction(func() { log = append(log, "gone") })

		o.AddDependent(keep)
		o.AddDependent(gone)
		o.RemoveDependent(gone)

		assert.True(t, o.Dirty())
		assert.Equal(t, []*Reaction{keep}, o.Dependents())

		drain(t, r)
		assert.Equal(t, []string{"keep"}, log)
		assert.False(t, o.Dirty())
	})

	t.Run("removing an unknown dependent does nothing", func(t *testing.T) {
		r := newTestRuntime(t)
		o := r.NewObservable()

		o.RemoveDependent(r.NewReaction(func() {}))

		assert.False(t, o.Dirty())
		assert.Empty(t, r.Pending())
	})

	t.Run("dispose clears dependents and is idempotent", func(t *testing.T) {
		r := newTestRuntime(t)
		o := r.NewObservable()
		o.AddDependent(r.NewReaction(func() {}))

		o.Dispose()
		o.Dispose()

		assert.True(t, o.Disposed())
		assert.Empty(t, o.Dependents())
	})

	t.Run("no-op after dispose", func(t *testing.T) {
		log := []string{}

		r := newTestRuntime(t)
		o := r.NewObservable()
		o.AddDependent(r.NewReaction(func() { log = append(log, "ran") }))

		o.Dispose()

		assert.NotPanics(t, func() {
			o.MarkDirty()
			o.AddDependent(r.NewReaction(func() { log = append(log, "late") }))
			o.RemoveDependent(nil)
		})

		assert.False(t, o.Dirty())
		assert.Empty(t, r.Pending())
		assert.Empty(t, o.Dependents())

		drain(t, r)
		assert.Empty(t, log)
		assert.Equal(t, 0, r.Batch())
	})

	t.Run("dispose while queued skips the observable", func(t *testing.T) {
		log := []string{}

		r := newTestRuntime(t)
		o := r.NewObservable()
		o.AddDependent(r.NewReaction(func() { log = append(log, "ran") }))

		o.MarkDirty()
		o.Dispose()
		drain(t, r)

		assert.Empty(t, log)
		assert.False(t, o.Dirty())
		assert.Equal(t, 1, r.Batch())
	})
}

func TestReaction(t *testing.T) {
	t.Run("starts as never ran", func(t *testing.T) {
		r := newTestRuntime(t)
		re := r.NewReaction(func() {})

		assert.Equal(t, NeverRan, re.LastRun())
		assert.False(t, re.Disposed())
	})

	t.Run("disposed reaction does not run", func(t *testing.T) {
		ran := 0

		r := newTestRuntime(t)
		re := r.NewReaction(func() { ran++ })

		re.Run()
		re.Dispose()
		re.Dispose()
		re.Run()

		assert.Equal(t, 1, ran)
		assert.True(t, re.Disposed())
	})

	t.Run("nil callback is safe", func(t *testing.T) {
		r := newTestRuntime(t)

		assert.NotPanics(t, r.NewReaction(nil).Run)
	})

	t.Run("ids are unique", func(t *testing.T) {
		r := newTestRuntime(t)

		assert.NotEqual(t, r.NewReaction(nil).ID(), r.NewReaction(nil).ID())
		assert.NotEqual(t, r.NewObservable().ID(), r.NewObservable().ID())
	})
}
