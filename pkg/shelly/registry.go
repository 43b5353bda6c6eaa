package shelly

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
)

// Registry holds the configured actors and implements device.Controller and
// device.EventSubscriber on top of them.
type Registry struct {
	actors   map[string]*ShadingActor // lower-cased name -> actor
	actorsMu sync.RWMutex

	subscribers   []chan device.StateEvent
	subscribersMu sync.Mutex

	timing       Timing
	optimizeTilt atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithTiming overrides DefaultTiming for every actor added afterwards.
func WithTiming(t Timing) Option {
	return func(r *Registry) { r.timing = t }
}

// WithOptimizeTilt controls whether tilt commands are skipped for actors
// already tilted at the requested position.
func WithOptimizeTilt(enabled bool) Option {
	return func(r *Registry) { r.optimizeTilt.Store(enabled) }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		actors: make(map[string]*ShadingActor),
		timing: DefaultTiming,
		ctx:    ctx,
		cancel: cancel,
	}
	r.optimizeTilt.Store(true)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddActor registers an actor for cfg driven through cover.
func (r *Registry) AddActor(cfg ActorConfig, cover Cover) *ShadingActor {
	actor := NewShadingActor(cfg, cover)
	actor.timing = r.timing
	actor.optimizeTilt = r.optimizeTilt.Load
	actor.onChange = r.publish

	r.actorsMu.Lock()
	r.actors[strings.ToLower(cfg.Name)] = actor
	r.actorsMu.Unlock()

	log.Info().Str("actor", cfg.Name).Str("address", cfg.Address).Str("group", cfg.GroupID).Msg("Actor registered")
	return actor
}

// Actor returns the actor with the given name (case-insensitive), or nil.
func (r *Registry) Actor(name string) *ShadingActor {
	r.actorsMu.RLock()
	defer r.actorsMu.RUnlock()
	return r.actors[strings.ToLower(name)]
}

// ActorBySerial returns the actor with the given serial, or nil.
func (r *Registry) ActorBySerial(sn string) *ShadingActor {
	r.actorsMu.RLock()
	defer r.actorsMu.RUnlock()
	for _, actor := range r.actors {
		if actor.Serial() == sn {
			return actor
		}
	}
	return nil
}

// Actors returns all actors ordered by name.
func (r *Registry) Actors() []*ShadingActor {
	r.actorsMu.RLock()
	actors := make([]*ShadingActor, 0, len(r.actors))
	for _, actor := range r.actors {
		actors = append(actors, actor)
	}
	r.actorsMu.RUnlock()

	sort.Slice(actors, func(i, j int) bool { return actors[i].Name() < actors[j].Name() })
	return actors
}

// ActorsInGroup returns the actors whose group ID equals groupID.
func (r *Registry) ActorsInGroup(groupID string) []*ShadingActor {
	var result []*ShadingActor
	for _, actor := range r.Actors() {
		if actor.GroupID() == groupID {
			result = append(result, actor)
		}
	}
	return result
}

// SetOptimizeTilt toggles the already-tilted shortcut at runtime.
func (r *Registry) SetOptimizeTilt(enabled bool) {
	r.optimizeTilt.Store(enabled)
}

// ListActors implements device.Controller.
func (r *Registry) ListActors(ctx context.Context) ([]device.ActorStatus, error) {
	actors := r.Actors()
	result := make([]device.ActorStatus, 0, len(actors))
	for _, actor := range actors {
		result = append(result, actor.Status())
	}
	device.SortActors(result)
	return result, nil
}

// GetActor implements device.Controller.
func (r *Registry) GetActor(ctx context.Context, name string) (*device.ActorStatus, error) {
	actor := r.Actor(name)
	if actor == nil {
		return nil, device.ErrNotFound
	}
	status := actor.Status()
	return &status, nil
}

// Apply implements device.Controller. Each addressed actor runs the command
// on its own goroutine; the registry refreshes the actor afterwards so state
// subscribers see the result.
func (r *Registry) Apply(ctx context.Context, cmd device.Command) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	var targets []*ShadingActor
	switch cmd.Scope {
	case device.ScopeActor:
		if actor := r.Actor(cmd.Target); actor != nil {
			targets = append(targets, actor)
		}
	case device.ScopeGroup:
		targets = r.ActorsInGroup(cmd.Target)
	case device.ScopeAll:
		targets = r.Actors()
	}

	if len(targets) == 0 {
		return 0, fmt.Errorf("%w: no actors for %s %q", device.ErrNotFound, cmd.Scope, cmd.Target)
	}

	for _, actor := range targets {
		r.wg.Add(1)
		go r.run(actor, cmd)
	}

	log.Info().Str("command", cmd.String()).Int("count", len(targets)).Msg("Command dispatched")
	return len(targets), nil
}

func (r *Registry) run(actor *ShadingActor, cmd device.Command) {
	defer r.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("actor", actor.Name()).Interface("panic", p).Msg("Panic in command processing")
		}
	}()

	err := actor.Apply(r.ctx, cmd.Kind, cmd.Value)
	switch {
	case errors.Is(err, device.ErrUnsupported):
		log.Info().Str("actor", actor.Name()).Str("action", string(cmd.Kind)).Msg("Ignoring unsupported command")
	case err != nil:
		log.Error().Err(err).Str("actor", actor.Name()).Msg("Command failed")
	}

	if _, err := actor.Refresh(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("actor", actor.Name()).Msg("Failed to refresh actor after command")
	}
}

// Wait blocks until every dispatched command finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// IsConnected implements device.Controller: true once any actor is configured.
func (r *Registry) IsConnected() bool {
	r.actorsMu.RLock()
	defer r.actorsMu.RUnlock()
	return len(r.actors) > 0
}

// Close cancels running commands and closes all subscriptions.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()

	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}

// Refresh polls every actor once. Failures are logged and the first one is returned.
func (r *Registry) Refresh(ctx context.Context) error {
	var first error
	for _, actor := range r.Actors() {
		if _, err := actor.Refresh(ctx); err != nil {
			log.Warn().Err(err).Str("actor", actor.Name()).Msg("Failed to refresh actor")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Poll refreshes all actors every interval until ctx is done.
func (r *Registry) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Subscribe implements device.EventSubscriber.
func (r *Registry) Subscribe() chan device.StateEvent {
	ch := make(chan device.StateEvent, 100)
	r.subscribersMu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.subscribersMu.Unlock()
	return ch
}

// Unsubscribe implements device.EventSubscriber.
func (r *Registry) Unsubscribe(ch chan device.StateEvent) {
	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()
	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// publish fans an event out to subscribers without blocking.
func (r *Registry) publish(event device.StateEvent) {
	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			log.Warn().Str("actor", event.ActorName).Int("position", event.Position).Msg("State channel is full, dropping event")
		}
	}
}
