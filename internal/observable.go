package internal

import (
	"slices"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// Observable is a mutable entity reactions can depend on.
// Domain entities embed one and call MarkDirty from their setters.
type Observable struct {
	id ulid.ULID
	rt *Runtime

	// insertion ordered, unique by identity
	dependents []*Reaction

	dirty    bool
	disposed bool

	// set from the start of the flush that snapshotted it until it settles
	flushing bool
	// marked dirty again while flushing, re-enqueued on settle
	redirty bool
}

func (r *Runtime) NewObservable() *Observable {
	o := &Observable{
		id:         ulid.Make(),
		rt:         r,
		dependents: make([]*Reaction, 0),
	}

	r.tracef("[obs]%s created\n", o.id)
	return o
}

func (o *Observable) ID() ulid.ULID {
	return o.id
}

func (o *Observable) Dirty() bool {
	return o.dirty
}

func (o *Observable) Disposed() bool {
	return o.disposed
}

// Dependents returns a copy of the registered reactions, disposed ones included until pruned.
func (o *Observable) Dependents() []*Reaction {
	return slices.Clone(o.dependents)
}

// MarkDirty queues the observable for the next flush. Marking it twice before the flush is a no-op.
func (o *Observable) MarkDirty() {
	if o.disposed {
		glog.Warningf("[obs]%s marked dirty after dispose\n", o.id)
		return
	}
	o.rt.checkLoop("mark dirty")

	if o.dirty {
		if o.flushing {
			o.redirty = true
		}
		return
	}
	o.dirty = true

	o.rt.tracef("[obs]%s dirty\n", o.id)
	o.rt.enqueue(o)
}

// AddDependent registers re to run when the observable changes.
func (o *Observable) AddDependent(re *Reaction) {
	if o.disposed {
		glog.Warningf("[obs]%s subscribed after dispose\n", o.id)
		return
	}
	if re == nil || re.disposed {
		return
	}

	if slices.Contains(o.dependents, re) {
		return
	}
	o.dependents = append(o.dependents, re)

	o.rt.tracef("[obs]%s +dependent %s\n", o.id, re.id)
}

// RemoveDependent unregisters re. The removal goes through the same batching as any mutation.
func (o *Observable) RemoveDependent(re *Reaction) {
	if o.disposed {
		glog.Warningf("[obs]%s unsubscribed after dispose\n", o.id)
		return
	}

	index := slices.Index(o.dependents, re)
	if index == -1 {
		return
	}
	o.dependents = slices.Delete(o.dependents, index, index+1)

	o.rt.tracef("[obs]%s -dependent %s\n", o.id, re.id)
	o.MarkDirty()
}

// Dispose drops every dependent and turns further mutations into no-ops.
func (o *Observable) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	clear(o.dependents)
	o.dependents = nil

	o.rt.tracef("[obs]%s disposed\n", o.id)
}

// prune compacts disposed reactions out of the dependents, in place.
func (o *Observable) prune() int {
	kept := o.dependents[:0]
	for _, re := range o.dependents {
		if !re.disposed {
			kept = append(kept, re)
		}
	}

	pruned := len(o.dependents) - len(kept)
	clear(o.dependents[len(kept):])
	o.dependents = kept

	return pruned
}

func (o *Observable) settle() {
	o.dirty = false
	o.flushing = false

	redirty := o.redirty && !o.disposed
	o.redirty = false

	if redirty {
		o.MarkDirty()
	}
}
