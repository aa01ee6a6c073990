package obs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUntrack(t *testing.T) {
	t.Run("does not track reads", func(t *testing.T) {
		setup(t)

		a := NewValue(1)
		b := NewValue(2)
		view := &countingView{}

		render, dispose := Reactive(view, func(struct{}) int {
			return a.Read() + Untrack(b.Read)
		})
		defer dispose()

		assert.Equal(t, 3, render(struct{}{}))
		assert.Len(t, a.Observable().Dependents(), 1)
		assert.Empty(t, b.Observable().Dependents())

		b.Write(10)
		drain(t)
		assert.Equal(t, 0, view.requests)

		a.Write(5)
		drain(t)
		assert.Equal(t, 1, view.requests)
	})

	t.Run("restores tracking after", func(t *testing.T) {
		setup(t)

		a := NewValue(1)
		b := NewValue(2)

		render, dispose := Reactive(&countingView{}, func(struct{}) int {
			Untrack(func() int { return a.Read() })
			return b.Read()
		})
		defer dispose()

		render(struct{}{})
		assert.Empty(t, a.Observable().Dependents())
		assert.Len(t, b.Observable().Dependents(), 1)
	})

	t.Run("observe inside untrack only warns", func(t *testing.T) {
		setup(t)

		o := NewObservable()
		render, dispose := Reactive(&countingView{}, func(struct{}) *Observable {
			return Untrack(func() *Observable { return Observe(o) })
		})
		defer dispose()

		assert.Same(t, o, render(struct{}{}))
		assert.Empty(t, o.Dependents())
	})
}
