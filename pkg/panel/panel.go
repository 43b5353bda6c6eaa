// Package panel is the headless control panel: it owns the safe-mode flag,
// one confirmation controller per scope, and the live actor list.
package panel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/confirm"
	"github.com/urmzd/shadepanel/pkg/device"
)

// Sender delivers a command to the control service.
type Sender interface {
	Send(ctx context.Context, cmd device.Command) error
}

// Panel routes taps through per-scope confirmation controllers.
type Panel struct {
	sender      Sender
	clock       confirm.Clock
	timeout     time.Duration
	observer    confirm.Observer
	safeDefault *bool
	constrained ConstrainedFunc

	safeMode  atomic.Bool
	connected atomic.Bool
	gate      *confirm.Gate

	mu          sync.Mutex
	controllers map[Scope]*confirm.Controller
	closed      bool

	stateMu sync.Mutex
	actors  []device.ActorStatus
	parked  []device.ActorStatus
	hasPark bool
}

// Option configures a Panel.
type Option func(*Panel)

// WithClock sets the clock used by every controller.
func WithClock(c confirm.Clock) Option {
	return func(p *Panel) { p.clock = c }
}

// WithConfirmTimeout sets the confirmation window.
func WithConfirmTimeout(d time.Duration) Option {
	return func(p *Panel) { p.timeout = d }
}

// WithSafeMode sets the initial safe mode explicitly.
func WithSafeMode(on bool) Option {
	return func(p *Panel) { p.safeDefault = &on }
}

// WithConstrainedInput sets the detector used for the initial safe mode when
// none is given explicitly.
func WithConstrainedInput(fn ConstrainedFunc) Option {
	return func(p *Panel) { p.constrained = fn }
}

// WithObserver is notified whenever a scope's pending action changes.
func WithObserver(o confirm.Observer) Option {
	return func(p *Panel) { p.observer = o }
}

// New creates a panel that sends confirmed commands through sender.
func New(sender Sender, opts ...Option) *Panel {
	p := &Panel{
		sender:      sender,
		clock:       confirm.RealClock{},
		timeout:     confirm.DefaultTimeout,
		gate:        confirm.NewGate(),
		controllers: make(map[Scope]*confirm.Controller),
	}
	for _, opt := range opts {
		opt(p)
	}

	switch {
	case p.safeDefault != nil:
		p.safeMode.Store(*p.safeDefault)
	case p.constrained != nil:
		p.safeMode.Store(p.constrained())
	}

	p.gate.OnIdle(p.applyParked)
	return p
}

// SafeMode reports whether taps need confirmation.
func (p *Panel) SafeMode() bool {
	return p.safeMode.Load()
}

// SetSafeMode changes the flag and drops every pending action.
func (p *Panel) SetSafeMode(on bool) {
	p.safeMode.Store(on)
	p.ClearAll()
	log.Info().Bool("safe_mode", on).Msg("Safe mode changed")
}

// ToggleSafeMode flips the flag and returns the new value.
func (p *Panel) ToggleSafeMode() bool {
	on := !p.safeMode.Load()
	p.SetSafeMode(on)
	return on
}

// Timeout returns the confirmation window.
func (p *Panel) Timeout() time.Duration {
	return p.timeout
}

// Tap registers a tap on actionID in scope. The command is sent when safe
// mode is off or when the tap confirms the scope's pending action.
func (p *Panel) Tap(ctx context.Context, scope Scope, actionID string) (confirm.Outcome, error) {
	cmd, err := ParseAction(scope, actionID)
	if err != nil {
		return confirm.Rejected, err
	}

	ctl, err := p.controller(scope)
	if err != nil {
		return confirm.Rejected, err
	}

	outcome, err := ctl.RegisterTap(ctx, actionID, func(ctx context.Context) error {
		token := p.gate.Acquire(cmd.String())
		defer token.Release()
		return p.sender.Send(ctx, cmd)
	})

	switch {
	case err != nil:
		log.Error().Err(err).Str("scope", scope.String()).Str("action", actionID).Msg("Command failed")
	case outcome == confirm.Executed:
		log.Info().Str("scope", scope.String()).Str("command", cmd.String()).Msg("Command sent")
	}
	return outcome, err
}

// IsPending reports whether actionID awaits confirmation in scope.
func (p *Panel) IsPending(scope Scope, actionID string) bool {
	p.mu.Lock()
	ctl := p.controllers[scope]
	p.mu.Unlock()
	return ctl != nil && ctl.IsPending(actionID)
}

// Pending returns the pending action of scope, if any.
func (p *Panel) Pending(scope Scope) (string, bool) {
	p.mu.Lock()
	ctl := p.controllers[scope]
	p.mu.Unlock()
	if ctl == nil {
		return "", false
	}
	return ctl.Pending()
}

// PendingAll returns the pending action of every scope that has one, keyed
// by the scope's string form.
func (p *Panel) PendingAll() map[string]string {
	p.mu.Lock()
	ctls := make([]*confirm.Controller, 0, len(p.controllers))
	for _, ctl := range p.controllers {
		ctls = append(ctls, ctl)
	}
	p.mu.Unlock()

	out := make(map[string]string)
	for _, ctl := range ctls {
		if id, ok := ctl.Pending(); ok {
			out[ctl.Scope()] = id
		}
	}
	return out
}

// Clear drops the pending action of scope.
func (p *Panel) Clear(scope Scope) {
	p.mu.Lock()
	ctl := p.controllers[scope]
	p.mu.Unlock()
	if ctl != nil {
		ctl.Clear()
	}
}

// Unmount tears down the controller of scope. A later tap mounts a fresh one.
func (p *Panel) Unmount(scope Scope) {
	p.mu.Lock()
	ctl := p.controllers[scope]
	delete(p.controllers, scope)
	p.mu.Unlock()
	if ctl != nil {
		ctl.Close()
	}
}

// Close tears down every controller; later taps fail with confirm.ErrClosed.
func (p *Panel) Close() {
	p.mu.Lock()
	ctls := p.controllers
	p.controllers = make(map[Scope]*confirm.Controller)
	p.closed = true
	p.mu.Unlock()

	for _, ctl := range ctls {
		ctl.Close()
	}
}

// Busy reports whether a command is in flight.
func (p *Panel) Busy() bool {
	return !p.gate.Idle()
}

func (p *Panel) controller(scope Scope) (*confirm.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, confirm.ErrClosed
	}
	if ctl, ok := p.controllers[scope]; ok {
		return ctl, nil
	}

	opts := []confirm.Option{confirm.WithClock(p.clock), confirm.WithTimeout(p.timeout)}
	if p.observer != nil {
		opts = append(opts, confirm.WithObserver(p.observer))
	}
	ctl := confirm.New(scope.String(), p.SafeMode, opts...)
	p.controllers[scope] = ctl
	return ctl, nil
}

// ClearAll drops the pending action of every scope.
func (p *Panel) ClearAll() {
	p.mu.Lock()
	ctls := make([]*confirm.Controller, 0, len(p.controllers))
	for _, ctl := range p.controllers {
		ctls = append(ctls, ctl)
	}
	p.mu.Unlock()

	for _, ctl := range ctls {
		ctl.Clear()
	}
}
