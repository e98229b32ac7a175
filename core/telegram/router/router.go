// Package router turns transport-neutral updates into handler calls. It owns
// an explicit routing table, serializes work per user and persists the
// session after every handled update.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/state"
)

// Scope decides when a route is eligible.
type Scope int

const (
	// ScopeState routes match only while the session is in Route.State.
	ScopeState Scope = iota + 1
	// ScopeIdle routes match only when no wizard is in progress.
	ScopeIdle
	// ScopeGlobal routes match in any state.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeState:
		return "state"
	case ScopeIdle:
		return "idle"
	case ScopeGlobal:
		return "global"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ErrInvalidRoute is returned by Handle for malformed routes.
var ErrInvalidRoute = errors.New("router: invalid route")

// Route is one entry of the routing table.
type Route struct {
	Name  string
	Scope Scope
	// State is required for ScopeState and must be empty otherwise.
	State state.State
	// Match filters on content; nil matches every update.
	Match   Predicate
	Handler Handler
}

func (r Route) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRoute)
	}
	if r.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidRoute, r.Name)
	}
	switch r.Scope {
	case ScopeState:
		if r.State == "" || r.State == state.StateNone {
			return fmt.Errorf("%w: %s needs a wizard state", ErrInvalidRoute, r.Name)
		}
	case ScopeIdle, ScopeGlobal:
		if r.State != "" {
			return fmt.Errorf("%w: %s is %s-scoped but declares state %q", ErrInvalidRoute, r.Name, r.Scope, r.State)
		}
	default:
		return fmt.Errorf("%w: %s has unknown scope %d", ErrInvalidRoute, r.Name, int(r.Scope))
	}
	return nil
}

func (r Route) matches(u Update) bool {
	return r.Match == nil || r.Match(u)
}

// Router dispatches updates. Routes are matched by tier (state, idle, global)
// and, inside a tier, in registration order.
type Router struct {
	store state.Store
	locks *state.Locker

	mu      sync.RWMutex
	byState map[state.State][]Route
	idle    []Route
	global  []Route
}

// Options tunes a Router.
type Options struct {
	// Locker serializes updates per user; nil creates a private one.
	Locker *state.Locker
}

// New builds an empty router backed by store.
func New(store state.Store, opts Options) *Router {
	locks := opts.Locker
	if locks == nil {
		locks = state.NewLocker()
	}
	return &Router{
		store:   store,
		locks:   locks,
		byState: make(map[state.State][]Route),
	}
}

// Handle appends routes to the table. Nothing is added if any route is invalid.
func (r *Router) Handle(routes ...Route) error {
	for _, rt := range routes {
		if err := rt.validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range routes {
		switch rt.Scope {
		case ScopeState:
			r.byState[rt.State] = append(r.byState[rt.State], rt)
		case ScopeIdle:
			r.idle = append(r.idle, rt)
		case ScopeGlobal:
			r.global = append(r.global, rt)
		}
	}
	return nil
}

// Match selects the route for u given the sender's current state.
func (r *Router) Match(u Update, current state.State) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if current == "" {
		current = state.StateNone
	}
	if current != state.StateNone {
		for _, rt := range r.byState[current] {
			if rt.matches(u) {
				return rt, true
			}
		}
	} else {
		for _, rt := range r.idle {
			if rt.matches(u) {
				return rt, true
			}
		}
	}
	for _, rt := range r.global {
		if rt.matches(u) {
			return rt, true
		}
	}
	return Route{}, false
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.idle) + len(r.global)
	for _, rs := range r.byState {
		n += len(rs)
	}
	return n
}

// Dispatch handles one update: it locks the sender, loads the session, runs
// the matching handler and persists the session even when the handler fails.
// Unmatched updates are dropped and reported as matched=false with a nil error.
func (r *Router) Dispatch(ctx context.Context, u Update, out Responder) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(string(u.Kind)).Observe(time.Since(start).Seconds())
	}()

	unlock := r.locks.Lock(u.UserID)
	defer unlock()

	sess, err := r.store.Load(ctx, u.UserID)
	if err != nil {
		logDispatch(ctx, dispatchSummary{update: u, start: start, outcome: "fail", err: err})
		metrics.DispatchTotal.WithLabelValues("none", "fail").Inc()
		return false, fmt.Errorf("load session: %w", err)
	}
	from := sess.State

	route, ok := r.Match(u, from)
	if !ok {
		logDispatch(ctx, dispatchSummary{update: u, start: start, from: from, to: from, outcome: "dropped"})
		metrics.DispatchTotal.WithLabelValues("none", "dropped").Inc()
		return false, nil
	}

	herr := route.Handler(ctx, &Request{Update: u, Session: sess, Out: out})
	perr := r.persist(context.WithoutCancel(ctx), u.UserID, sess)
	err = errors.Join(herr, perr)

	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	logDispatch(ctx, dispatchSummary{
		update: u, start: start, route: route.Name,
		from: from, to: sess.State, outcome: outcome, err: err,
	})
	metrics.DispatchTotal.WithLabelValues(route.Name, outcome).Inc()
	return true, err
}

func (r *Router) persist(ctx context.Context, userID int64, sess *state.Session) error {
	if sess.Idle() {
		if err := r.store.Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	if err := r.store.Save(ctx, userID, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
