package panel

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
)

// Reconcile replaces the actor list with snapshot. While a command is in
// flight the snapshot is parked instead and false is returned; the latest
// parked snapshot is applied once the last command returns.
func (p *Panel) Reconcile(snapshot []device.ActorStatus) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if !p.gate.Idle() {
		p.parked = cloneActors(snapshot)
		p.hasPark = true
		return false
	}
	p.actors = cloneActors(snapshot)
	p.parked, p.hasPark = nil, false
	return true
}

func (p *Panel) applyParked() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if !p.hasPark || !p.gate.Idle() {
		return
	}
	p.actors = p.parked
	p.parked, p.hasPark = nil, false
	log.Debug().Int("actors", len(p.actors)).Msg("Applied parked snapshot")
}

// Actors returns the current actor list ordered by rank, then name.
func (p *Panel) Actors() []device.ActorStatus {
	p.stateMu.Lock()
	actors := cloneActors(p.actors)
	p.stateMu.Unlock()

	device.SortActors(actors)
	return actors
}

// Groups returns the groups derived from the current actor list.
func (p *Panel) Groups() []device.GroupInfo {
	return device.Groups(p.Actors())
}

// AveragePosition returns the rounded mean position of a group.
func (p *Panel) AveragePosition(groupID string) (int, bool) {
	for _, g := range p.Groups() {
		if g.GroupID == groupID {
			return g.AveragePosition(), true
		}
	}
	return 0, false
}

// Connected reports whether the live-state feed is up.
func (p *Panel) Connected() bool {
	return p.connected.Load()
}

// SetConnected records the state of the live-state feed.
func (p *Panel) SetConnected(up bool) {
	if p.connected.Swap(up) != up {
		log.Info().Bool("connected", up).Msg("Live state feed changed")
	}
}

// Run reconciles every snapshot from feed until ctx ends or feed closes.
func (p *Panel) Run(ctx context.Context, feed <-chan []device.ActorStatus) error {
	defer p.SetConnected(false)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-feed:
			if !ok {
				return nil
			}
			p.SetConnected(true)
			p.Reconcile(snapshot)
		}
	}
}

func cloneActors(actors []device.ActorStatus) []device.ActorStatus {
	if actors == nil {
		return []device.ActorStatus{}
	}
	out := make([]device.ActorStatus, len(actors))
	copy(out, actors)
	return out
}
