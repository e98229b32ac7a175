// Package wizard runs multi-step conversations described as explicit
// transition tables. Each accepted input stores a field and moves the session
// forward; the terminal input hands the collected fields to Finalize and
// resets the session whatever Finalize returns.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/telegram/state"
)

// Terminal as Input.Next finalizes the wizard.
const Terminal = state.StateNone

// ErrInvalidDefinition is returned by New for malformed definitions.
var ErrInvalidDefinition = errors.New("wizard: invalid definition")

// FinalizeFunc performs the single terminal write with a snapshot of the fields.
type FinalizeFunc func(ctx context.Context, req *router.Request, fields *state.Fields) error

// Input is one accepted way to leave a step.
type Input struct {
	// Name identifies the input in route names and logs; defaults to Field.
	Name  string
	Match router.Predicate
	// Field receives the extracted value; empty stores nothing.
	Field string
	// Value extracts the field value; nil means Text. A failed extraction
	// counts as a non-match.
	Value Extractor
	// Set stores additional constant fields, e.g. explicit absences.
	Set  map[string]any
	Next state.State
}

// Step is one named state of a wizard.
type Step struct {
	State  state.State
	Prompt router.Reply
	Inputs []Input
}

// Definition describes a wizard. Steps[0] is the entry step.
type Definition struct {
	Name     string
	Steps    []Step
	Finalize FinalizeFunc
}

type edge struct {
	from  state.State
	input string
}

// Wizard is a validated Definition.
type Wizard struct {
	def   Definition
	index map[state.State]int
	edges map[edge]state.State
}

// New validates def: unique states, known targets, forward-only edges, every
// step reachable from the entry and at least one terminal input.
func New(def Definition) (*Wizard, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidDefinition, def.Name)
	}
	if def.Finalize == nil {
		return nil, fmt.Errorf("%w: %s has no finalizer", ErrInvalidDefinition, def.Name)
	}

	w := &Wizard{
		def:   def,
		index: make(map[state.State]int, len(def.Steps)),
		edges: make(map[edge]state.State),
	}
	for i, st := range def.Steps {
		if st.State == "" || st.State == state.StateNone {
			return nil, fmt.Errorf("%w: %s step %d has no state", ErrInvalidDefinition, def.Name, i)
		}
		if _, dup := w.index[st.State]; dup {
			return nil, fmt.Errorf("%w: %s repeats state %s", ErrInvalidDefinition, def.Name, st.State)
		}
		w.index[st.State] = i
	}

	terminal := false
	for i, st := range def.Steps {
		if len(st.Inputs) == 0 {
			return nil, fmt.Errorf("%w: %s has no inputs", ErrInvalidDefinition, st.State)
		}
		for j, in := range st.Inputs {
			name := inputName(in, j)
			if in.Match == nil {
				return nil, fmt.Errorf("%w: %s/%s has no predicate", ErrInvalidDefinition, st.State, name)
			}
			key := edge{from: st.State, input: name}
			if _, dup := w.edges[key]; dup {
				return nil, fmt.Errorf("%w: %s repeats input %s", ErrInvalidDefinition, st.State, name)
			}
			switch next, known := w.index[in.Next]; {
			case in.Next == Terminal:
				terminal = true
			case in.Next == "":
				return nil, fmt.Errorf("%w: %s/%s has no next state", ErrInvalidDefinition, st.State, name)
			case !known:
				return nil, fmt.Errorf("%w: %s/%s targets unknown state %s", ErrInvalidDefinition, st.State, name, in.Next)
			case next <= i:
				return nil, fmt.Errorf("%w: %s/%s goes back to %s", ErrInvalidDefinition, st.State, name, in.Next)
			}
			w.edges[key] = in.Next
		}
	}
	if !terminal {
		return nil, fmt.Errorf("%w: %s never finalizes", ErrInvalidDefinition, def.Name)
	}

	reached := map[state.State]bool{def.Steps[0].State: true}
	for _, st := range def.Steps {
		if !reached[st.State] {
			return nil, fmt.Errorf("%w: %s is unreachable", ErrInvalidDefinition, st.State)
		}
		for _, in := range st.Inputs {
			reached[in.Next] = true
		}
	}
	return w, nil
}

// MustNew is New that panics, for package-level wizard tables.
func MustNew(def Definition) *Wizard {
	w, err := New(def)
	if err != nil {
		panic(err)
	}
	return w
}

func inputName(in Input, i int) string {
	switch {
	case in.Name != "":
		return in.Name
	case in.Field != "":
		return in.Field
	}
	return fmt.Sprintf("input%d", i)
}

// Name returns the wizard name.
func (w *Wizard) Name() string { return w.def.Name }

// First returns the entry state.
func (w *Wizard) First() state.State { return w.def.Steps[0].State }

// States lists the wizard states in declaration order.
func (w *Wizard) States() []state.State {
	out := make([]state.State, len(w.def.Steps))
	for i, st := range w.def.Steps {
		out[i] = st.State
	}
	return out
}

// Owns reports whether st belongs to this wizard.
func (w *Wizard) Owns(st state.State) bool {
	_, ok := w.index[st]
	return ok
}

// Transition returns the state reached from `from` through the named input.
// Terminal means the input finalizes.
func (w *Wizard) Transition(from state.State, input string) (state.State, bool) {
	next, ok := w.edges[edge{from: from, input: input}]
	return next, ok
}

// Prompt returns the prompt rendered when entering st.
func (w *Wizard) Prompt(st state.State) (router.Reply, bool) {
	i, ok := w.index[st]
	if !ok {
		return router.Reply{}, false
	}
	return w.def.Steps[i].Prompt, true
}

// Start drops whatever the session held, enters the first step and prompts.
func (w *Wizard) Start(ctx context.Context, req *router.Request) error {
	req.Session.Reset()
	req.Session.Enter(w.First())
	logger.LogEvent(ctx, logger.Component(logger.CompWizard), slog.LevelDebug, "wizard.start",
		slog.String("wizard", w.Name()),
		slog.String("next_state", string(w.First())),
	)
	return req.Reply(ctx, w.def.Steps[0].Prompt)
}

// Entry returns a route that starts the wizard.
func (w *Wizard) Entry(name string, scope router.Scope, match router.Predicate) router.Route {
	return router.Route{Name: name, Scope: scope, Match: match, Handler: w.Start}
}

// Routes returns one state-scoped route per (step, input).
func (w *Wizard) Routes() []router.Route {
	var routes []router.Route
	for _, st := range w.def.Steps {
		for j, in := range st.Inputs {
			routes = append(routes, router.Route{
				Name:    w.Name() + "." + inputName(in, j),
				Scope:   router.ScopeState,
				State:   st.State,
				Match:   router.All(in.Match, func(u router.Update) bool { _, ok := in.extract(u); return ok }),
				Handler: w.advance(st.State, inputName(in, j), in),
			})
		}
	}
	return routes
}

func (in Input) extract(u router.Update) (any, bool) {
	if in.Value == nil {
		return Text(u)
	}
	return in.Value(u)
}

func (w *Wizard) advance(from state.State, name string, in Input) router.Handler {
	return func(ctx context.Context, req *router.Request) error {
		val, ok := in.extract(req.Update)
		if !ok {
			return nil
		}
		fields := req.Session.Fields
		if in.Field != "" {
			fields.Set(in.Field, val)
		}
		keys := make([]string, 0, len(in.Set))
		for k := range in.Set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields.Set(k, in.Set[k])
		}
		metrics.WizardStepsTotal.WithLabelValues(w.Name(), string(from)).Inc()

		if in.Next == Terminal {
			return w.finalize(ctx, req)
		}
		req.Session.Enter(in.Next)
		logger.LogEvent(ctx, logger.Component(logger.CompWizard), slog.LevelDebug, "wizard.step",
			slog.String("wizard", w.Name()),
			slog.String("state", string(from)),
			slog.String("input", name),
			slog.String("next_state", string(in.Next)),
		)
		return req.Reply(ctx, w.def.Steps[w.index[in.Next]].Prompt)
	}
}

func (w *Wizard) finalize(ctx context.Context, req *router.Request) error {
	snapshot := req.Session.Fields.Clone()
	defer req.Session.Reset()

	start := time.Now()
	err := w.def.Finalize(ctx, req, snapshot)
	status, level := "ok", slog.LevelInfo
	if err != nil {
		status, level = "fail", slog.LevelError
	}
	metrics.WizardFinalizeTotal.WithLabelValues(w.Name(), status).Inc()

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("wizard", w.Name()),
		slog.Int("count", snapshot.Len()),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.Component(logger.CompWizard), level, "wizard.finalize", attrs...)
	if err != nil {
		return fmt.Errorf("%s: finalize: %w", w.Name(), err)
	}
	return nil
}
