// Package confirm implements the double-tap confirmation used by the panel's
// safe mode: the first tap on an action arms it, a second tap on the same
// action within the timeout executes it.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout is how long an armed action waits for its confirming tap.
const DefaultTimeout = 3000 * time.Millisecond

var (
	// ErrClosed is returned for taps on a controller that was torn down.
	ErrClosed = errors.New("confirmation controller closed")

	// ErrEmptyAction is returned when a tap carries no action identifier.
	ErrEmptyAction = errors.New("empty action id")

	// ErrNilCommand is returned when a tap carries no command.
	ErrNilCommand = errors.New("nil command")
)

// Command is the side effect a confirmed tap performs, usually a network call.
type Command func(ctx context.Context) error

// Outcome reports what a tap did.
type Outcome int

const (
	// Pending means the action was armed and awaits a confirming tap.
	Pending Outcome = iota
	// Executed means the command ran (its error, if any, is returned alongside).
	Executed
	// Rejected means the tap was refused before anything happened.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Executed:
		return "executed"
	default:
		return "rejected"
	}
}

// Observer is notified after every change of the pending action. pending is
// empty when the controller went back to idle.
type Observer func(scope, pending string)

// Controller tracks at most one pending action and the timer that expires it.
type Controller struct {
	scope    string
	safeMode func() bool
	clock    Clock
	timeout  time.Duration
	observer Observer

	mu      sync.Mutex
	pending string
	timer   Timer
	gen     uint64
	closed  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.timeout = d
		}
	}
}

// WithObserver registers a callback for pending-state changes.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observer = o }
}

// New creates an idle controller for scope. safeMode is consulted on every
// tap; a nil func means safe mode is always off.
func New(scope string, safeMode func() bool, opts ...Option) *Controller {
	c := &Controller{
		scope:    scope,
		safeMode: safeMode,
		clock:    RealClock{},
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scope returns the scope the controller was created for.
func (c *Controller) Scope() string {
	return c.scope
}

// Timeout returns the confirmation window.
func (c *Controller) Timeout() time.Duration {
	return c.timeout
}

// RegisterTap records a tap on actionID. With safe mode off, or when the tap
// confirms the pending action, cmd runs on the calling goroutine and its
// error is returned. A tap with safe mode off also drops any pending action. Otherwise actionID becomes the pending action, replacing
// any previous one without running it.
func (c *Controller) RegisterTap(ctx context.Context, actionID string, cmd Command) (Outcome, error) {
	if actionID == "" {
		return Rejected, ErrEmptyAction
	}
	if cmd == nil {
		return Rejected, ErrNilCommand
	}

	safe := c.safeMode != nil && c.safeMode()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Rejected, ErrClosed
	}

	if !safe {
		had := c.pending != ""
		c.resetLocked()
		c.mu.Unlock()
		if had {
			c.notify("")
		}
		log.Debug().Str("scope", c.scope).Str("action", actionID).Msg("Safe mode off, executing")
		return Executed, c.run(ctx, actionID, cmd)
	}

	if c.pending == actionID {
		c.resetLocked()
		c.mu.Unlock()
		c.notify("")
		log.Debug().Str("scope", c.scope).Str("action", actionID).Msg("Action confirmed")
		return Executed, c.run(ctx, actionID, cmd)
	}

	previous := c.pending
	c.resetLocked()
	c.pending = actionID
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(gen) })
	c.mu.Unlock()

	if previous != "" {
		log.Debug().Str("scope", c.scope).Str("action", actionID).Str("abandoned", previous).Msg("Pending action replaced")
	} else {
		log.Debug().Str("scope", c.scope).Str("action", actionID).Dur("timeout", c.timeout).Msg("Action armed")
	}
	c.notify(actionID)
	return Pending, nil
}

// IsPending reports whether actionID awaits its confirming tap.
func (c *Controller) IsPending(actionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return actionID != "" && c.pending == actionID
}

// Pending returns the pending action, if any.
func (c *Controller) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending != ""
}

// Clear cancels the timer and drops the pending action.
func (c *Controller) Clear() {
	c.mu.Lock()
	had := c.pending != ""
	c.resetLocked()
	c.mu.Unlock()

	if had {
		c.notify("")
	}
}

// Close clears the controller and refuses further taps.
func (c *Controller) Close() {
	c.Clear()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// resetLocked stops the timer and bumps the generation so a timer that
// already started firing cannot clear a newer pending action.
func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = ""
	c.gen++
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.pending == "" {
		c.mu.Unlock()
		return
	}
	action := c.pending
	c.pending = ""
	c.timer = nil
	c.gen++
	c.mu.Unlock()

	log.Debug().Str("scope", c.scope).Str("action", action).Msg("Pending action expired")
	c.notify("")
}

func (c *Controller) run(ctx context.Context, actionID string, cmd Command) error {
	if err := cmd(ctx); err != nil {
		return fmt.Errorf("action %s: %w", actionID, err)
	}
	return nil
}

func (c *Controller) notify(pending string) {
	if c.observer != nil {
		c.observer(c.scope, pending)
	}
}
