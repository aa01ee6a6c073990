package internal

import (
	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// NeverRan is the batch stamp of a reaction that has not run yet.
const NeverRan = -1

// Reaction is a disposable unit of re-execution.
type Reaction struct {
	id ulid.ULID
	rt *Runtime

	callback func()

	// batch in which the reaction last ran, used to run it at most once per flush
	lastRun int

	disposed bool
}

func (r *Runtime) NewReaction(callback func()) *Reaction {
	re := &Reaction{
		id:       ulid.Make(),
		rt:       r,
		callback: callback,
		lastRun:  NeverRan,
	}

	r.tracef("[obs]reaction %s created\n", re.id)
	return re
}

func (re *Reaction) ID() ulid.ULID {
	return re.id
}

func (re *Reaction) LastRun() int {
	return re.lastRun
}

func (re *Reaction) Disposed() bool {
	return re.disposed
}

// Run invokes the callback. Disposed reactions don't run.
func (re *Reaction) Run() {
	if re.disposed {
		glog.Warningf("[obs]reaction %s run after dispose\n", re.id)
		return
	}

	if re.callback != nil {
		re.callback()
	}
}

// Dispose stops the reaction for good.
// Observables drop it the next time they walk their dependents.
func (re *Reaction) Dispose() {
	if re.disposed {
		return
	}
	re.disposed = true

	re.rt.tracef("[obs]reaction %s disposed\n", re.id)
}
