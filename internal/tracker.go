package internal

type Tracker struct {
	tracking bool

	active *Reaction // for reactive dependency tracking
}

func NewTracker() *Tracker {
	return &Tracker{
		tracking: true,
	}
}

// Active returns the reaction reads should register against, nil when there is none.
func (t *Tracker) Active() *Reaction {
	if !t.tracking {
		return nil
	}

	return t.active
}

func (t *Tracker) RunWithReaction(re *Reaction, fn func()) {
	prevActive := t.active
	prevTracking := t.tracking

	t.active = re
	t.tracking = true

	defer func() {
		t.active = prevActive
		t.tracking = prevTracking
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}
