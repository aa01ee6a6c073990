package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/AnatoleLucet/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type note struct {
	*obs.Observable

	title string
}

func newNote(title string) *note {
	return &note{Observable: obs.NewObservable(), title: title}
}

func (n *note) Title() string {
	obs.Observe(n.Observable)
	return n.title
}

func (n *note) SetTitle(title string) {
	if n.title == title {
		return
	}

	n.title = title
	n.MarkDirty()
}

// listView prints itself every time the runtime asks for a re-render.
type listView struct {
	out    io.Writer
	render func() string
}

func (v *listView) RequestRender() {
	fmt.Fprintln(v.out, v.render())
}

func runDemo(out io.Writer, cfg obs.Config, stats bool, opts ...obs.Option) error {
	obs.Reset(cfg, opts...)
	if cfg.TestSync {
		obs.SetBarrier(func(fn func()) {
			fmt.Fprintln(out, "(sync render)")
			fn()
		})
	}
	obs.OnError(func(err error) {
		fmt.Fprintf(out, "error: %v\n", err)
	})

	notes := []*note{newNote("groceries"), newNote("ideas")}

	view := &listView{out: out}
	render, dispose := obs.Reactive(view, func(notes []*note) string {
		titles := make([]string, 0, len(notes))
		for _, n := range notes {
			titles = append(titles, n.Title())
		}
		return "notes: " + strings.Join(titles, ", ")
	})
	defer dispose()

	view.render = func() string { return render(notes) }
	view.RequestRender()

	// two edits, one re-render
	notes[0].SetTitle("shopping")
	notes[1].SetTitle("plans")
	if err := obs.Drain(); err != nil {
		return err
	}

	saved := obs.Subscribe(notes[1].Observable, func() {
		fmt.Fprintf(out, "saved %q\n", notes[1].title)
	})
	notes[1].SetTitle("roadmap")
	obs.OnSettled(func() {
		fmt.Fprintf(out, "settled after batch %d\n", obs.Batch())
	})
	if err := obs.Drain(); err != nil {
		return err
	}

	obs.Unsubscribe(notes[1].Observable, saved)
	if err := obs.Drain(); err != nil {
		return err
	}

	if !stats {
		return nil
	}
	return printMetrics(out, obs.Registry())
}

func printMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(out, family); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
