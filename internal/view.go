package internal

import "github.com/golang/glog"

// View is the part of a view instance the runtime needs: a way to ask for a re-render.
type View interface {
	RequestRender()
}

// Barrier runs fn and returns once every render it requested is done.
type Barrier func(fn func())

// Tracked ties one view instance to the reaction that re-renders it.
type Tracked struct {
	rt   *Runtime
	view View

	// created on first render
	reaction *Reaction

	disposed bool
}

func (r *Runtime) NewTracked(view View) *Tracked {
	return &Tracked{rt: r, view: view}
}

// Reaction returns the view's reaction, nil before the first render.
func (t *Tracked) Reaction() *Reaction {
	return t.reaction
}

// Render runs fn with the view's reaction active, so every Observe inside subscribes the view.
func (t *Tracked) Render(fn func()) {
	if t.disposed {
		glog.Warningf("[obs]render after unmount, dependencies are not tracked\n")
		t.rt.Untrack(fn)
		return
	}

	if t.reaction == nil {
		t.reaction = t.rt.NewReaction(t.invalidate)
	}

	// the render pass counts as this batch's run
	t.reaction.lastRun = t.rt.scheduler.batch

	t.rt.tracker.RunWithReaction(t.reaction, fn)
}

// Dispose unmounts the view. Safe to call more than once.
func (t *Tracked) Dispose() {
	t.disposed = true

	if t.reaction != nil {
		t.reaction.Dispose()
	}
}

func (t *Tracked) invalidate() {
	if t.rt.config.TestSync && t.rt.barrier != nil {
		t.rt.barrier(t.view.RequestRender)
		return
	}

	t.view.RequestRender()
}
