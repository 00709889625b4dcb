package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Dispatch runs a fixed list of independent channel steps in order. Unlike a
// saga there is no compensation: a failed step is logged and recorded, and
// the remaining steps still run. A step may read state written by an earlier
// successful step (the store id, for example).
type Dispatch struct {
	steps []Step
	attrs []slog.Attr
}

type Step struct {
	Name string
	Fn   func(context.Context) error
}

type StepOutcome struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
}

// NewDispatch takes log attributes (recipient, form category...) that are
// attached to every failure line.
func NewDispatch(attrs ...slog.Attr) *Dispatch {
	return &Dispatch{attrs: attrs}
}

func (d *Dispatch) Add(name string, fn func(context.Context) error) {
	d.steps = append(d.steps, Step{Name: name, Fn: fn})
}

func (d *Dispatch) Run(ctx context.Context) Outcomes {
	out := make(Outcomes, 0, len(d.steps))
	for _, s := range d.steps {
		err := s.Fn(ctx)
		if err == nil {
			out = append(out, StepOutcome{Name: s.Name, OK: true})
			continue
		}

		attrs := append([]slog.Attr{
			slog.String("step", s.Name),
			slog.String("error", err.Error()),
			slog.Time("at", time.Now().UTC()),
		}, d.attrs...)
		slog.LogAttrs(ctx, slog.LevelError, "channel failed", attrs...)
		out = append(out, StepOutcome{Name: s.Name, Err: err.Error()})
	}
	return out
}

type Outcomes []StepOutcome

func (o Outcomes) OK(name string) bool {
	for _, s := range o {
		if s.Name == name {
			return s.OK
		}
	}
	return false
}

func (o Outcomes) Ran(name string) bool {
	for _, s := range o {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (o Outcomes) AnyOK(names ...string) bool {
	for _, n := range names {
		if o.OK(n) {
			return true
		}
	}
	return false
}

func (o Outcomes) Failed() []string {
	var names []string
	for _, s := range o {
		if !s.OK {
			names = append(names, s.Name)
		}
	}
	return names
}
