package obs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingView struct {
	requests int
}

func (v *countingView) RequestRender() { v.requests++ }

func TestReactive(t *testing.T) {
	t.Run("returns the render result", func(t *testing.T) {
		setup(t)

		render, dispose := Reactive(&countingView{}, func(n int) string {
			return fmt.Sprintf("n=%d", n)
		})
		defer dispose()

		assert.Equal(t, "n=3", render(3))
	})

	t.Run("requests a render on change", func(t *testing.T) {
		setup(t)

		count := NewValue(0)
		view := &countingView{}
		render, dispose := Reactive(view, func(struct{}) int { return count.Read() })
		defer dispose()

		assert.Equal(t, 0, render(struct{}{}))

		count.Write(1)
		count.Write(2)
		drain(t)

		assert.Equal(t, 1, view.requests)
		assert.Equal(t, 2, render(struct{}{}))
	})

	t.Run("stamps its reaction on every render", func(t *testing.T) {
		log := []string{}
		setup(t)

		a := NewValue(0)
		b := NewValue(0)

		view := &printView{}
		render, dispose := Reactive(view, func(struct{}) int { return a.Read() + b.Read() })
		defer dispose()

		view.render = func() {
			log = append(log, fmt.Sprintf("sum %d in batch %d", render(struct{}{}), Batch()))
		}
		view.render()

		a.Write(1)
		b.Write(2)
		drain(t)

		assert.Equal(t, []string{"sum 0 in batch 0", "sum 3 in batch 1"}, log)
	})

	t.Run("dispose stops re-renders", func(t *testing.T) {
		setup(t)

		count := NewValue(0)
		view := &countingView{}
		render, dispose := Reactive(view, func(struct{}) int { return count.Read() })
		render(struct{}{})

		dispose()
		dispose()

		count.Write(1)
		drain(t)

		assert.Equal(t, 0, view.requests)
		assert.Empty(t, count.Observable().Dependents())
	})

	t.Run("restores the outer scope when render panics", func(t *testing.T) {
		setup(t)

		o := NewObservable()
		render, dispose := Reactive(&countingView{}, func(struct{}) int { panic("boom") })
		defer dispose()

		assert.Panics(t, func() { render(struct{}{}) })

		Observe(o)
		assert.Empty(t, o.Dependents())
	})

	t.Run("nested views track separately", func(t *testing.T) {
		setup(t)

		outerValue := NewValue("outer")
		innerValue := NewValue("inner")
		outerView := &countingView{}
		innerView := &countingView{}

		inner, disposeInner := Reactive(innerView, func(struct{}) string { return innerValue.Read() })
		defer disposeInner()
		outer, disposeOuter := Reactive(outerView, func(struct{}) string {
			return outerValue.Read() + "/" + inner(struct{}{})
		})
		defer disposeOuter()

		assert.Equal(t, "outer/inner", outer(struct{}{}))

		innerValue.Write("changed")
		drain(t)

		assert.Equal(t, 0, outerView.requests)
		assert.Equal(t, 1, innerView.requests)
	})

	t.Run("renders through the barrier in test sync mode", func(t *testing.T) {
		log := []string{}
		setup(t)

		cfg := DefaultConfig()
		cfg.TestSync = true
		Configure(cfg)
		SetBarrier(func(fn func()) {
			log = append(log, "barrier")
			fn()
		})

		count := NewValue(0)
		view := &printView{}
		render, dispose := Reactive(view, func(struct{}) int { return count.Read() })
		defer dispose()

		view.render = func() { log = append(log, fmt.Sprintf("render %d", render(struct{}{}))) }
		view.render()

		count.Write(5)
		drain(t)

		assert.Equal(t, []string{"render 0", "barrier", "render 5"}, log)
	})
}
