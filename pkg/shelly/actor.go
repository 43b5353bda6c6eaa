package shelly

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
)

// ActorConfig describes one configured actuator.
type ActorConfig struct {
	Name           string
	DisplayName    string
	Address        string
	Serial         string
	DeviceType     device.DeviceType
	TiltPercentage int
	Rank           int
	GroupID        string
}

// Timing controls how long tilt sequences wait on the motor.
type Timing struct {
	PollEvery   time.Duration // Status polling while waiting for a position
	MoveTimeout time.Duration // Give up waiting for a position after this long
	Settle      time.Duration // Pause between reaching a position and moving the slats
}

// DefaultTiming matches the motor documentation: at least 500ms between up and down.
var DefaultTiming = Timing{
	PollEvery:   500 * time.Millisecond,
	MoveTimeout: 60 * time.Second,
	Settle:      500 * time.Millisecond,
}

// ShadingActor drives one cover and caches its last known state.
type ShadingActor struct {
	cfg          ActorConfig
	cover        Cover
	timing       Timing
	optimizeTilt func() bool
	onChange     func(device.StateEvent)

	mu           sync.Mutex
	position     int
	tiltPosition int
	tilted       bool
}

// NewShadingActor creates an actor for cfg using cover as transport.
func NewShadingActor(cfg ActorConfig, cover Cover) *ShadingActor {
	if cfg.DeviceType == "" {
		cfg.DeviceType = device.DeviceTypeBlinds
	}
	return &ShadingActor{
		cfg:          cfg,
		cover:        cover,
		timing:       DefaultTiming,
		optimizeTilt: func() bool { return true },
	}
}

// Name returns the configured actor name.
func (s *ShadingActor) Name() string {
	return s.cfg.Name
}

// DisplayName returns the display name, falling back to the name.
func (s *ShadingActor) DisplayName() string {
	if s.cfg.DisplayName != "" {
		return s.cfg.DisplayName
	}
	return s.cfg.Name
}

// GroupID returns the actor's group, or "".
func (s *ShadingActor) GroupID() string {
	return s.cfg.GroupID
}

// Serial returns the device serial.
func (s *ShadingActor) Serial() string {
	return s.cfg.Serial
}

func (s *ShadingActor) String() string {
	return fmt.Sprintf("ShadingActor{name: %s; address: %s; type: %s}", s.cfg.Name, s.cfg.Address, s.cfg.DeviceType)
}

// IsRollerShutter reports whether the actor ignores tilt and slat commands.
func (s *ShadingActor) IsRollerShutter() bool {
	return s.cfg.DeviceType == device.DeviceTypeRollerShutter
}

// Status returns a wire snapshot of the actor.
func (s *ShadingActor) Status() device.ActorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return device.ActorStatus{
		Name:         s.cfg.Name,
		DisplayName:  s.DisplayName(),
		IP:           s.cfg.Address,
		Serial:       s.cfg.Serial,
		Position:     s.position,
		Tilted:       s.tilted,
		TiltPosition: s.tiltPosition,
		DeviceType:   string(s.cfg.DeviceType),
		Rank:         s.cfg.Rank,
		GroupID:      s.cfg.GroupID,
	}
}

// Apply runs one command to completion. Tilt and slat commands on roller
// shutters return device.ErrUnsupported without moving anything.
func (s *ShadingActor) Apply(ctx context.Context, kind device.Kind, value int) error {
	if err := device.ValidatePosition(value); err != nil {
		return err
	}

	log.Info().Str("actor", s.cfg.Name).Str("action", string(kind)).Int("position", value).Str("device_type", string(s.cfg.DeviceType)).Msg("Applying command")

	var err error
	switch kind {
	case device.KindPosition:
		err = s.cover.GoToPosition(ctx, value)
	case device.KindTilt:
		if s.IsRollerShutter() {
			return fmt.Errorf("%w: tilt on roller shutter %s", device.ErrUnsupported, s.cfg.Name)
		}
		err = s.tilt(ctx, value)
	case device.KindSlat:
		if s.IsRollerShutter() {
			return fmt.Errorf("%w: slat on roller shutter %s", device.ErrUnsupported, s.cfg.Name)
		}
		err = s.slatOnly(ctx, value)
	default:
		return fmt.Errorf("%w: %s", device.ErrUnsupported, kind)
	}

	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, s.cfg.Name, err)
	}
	log.Debug().Str("actor", s.cfg.Name).Str("action", string(kind)).Msg("Command application finished")
	return nil
}

// tilt closes to position, waits for the motor, then turns the slats to the
// configured tilt percentage.
func (s *ShadingActor) tilt(ctx context.Context, position int) error {
	s.mu.Lock()
	already := s.tilted && s.tiltPosition == position
	s.mu.Unlock()

	if already && s.optimizeTilt() {
		log.Info().Str("actor", s.cfg.Name).Int("position", position).Msg("Ignoring tilt command, already tilted correctly")
		return nil
	}

	if err := s.cover.GoToPosition(ctx, position); err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	if err := s.WaitForPosition(ctx, position); err != nil {
		return err
	}

	if err := sleep(ctx, s.timing.Settle); err != nil {
		return err
	}

	if err := s.cover.GoToSlatPosition(ctx, s.cfg.TiltPercentage); err != nil {
		return fmt.Errorf("set tilt position: %w", err)
	}

	s.mu.Lock()
	s.tilted = true
	s.tiltPosition = position
	s.mu.Unlock()

	log.Info().Str("actor", s.cfg.Name).Int("position", position).Int("tilt_percentage", s.cfg.TiltPercentage).Msg("Tilt command completed")
	return nil
}

// slatOnly changes the slat angle and leaves the tilt flag alone. Non-zero
// targets reset the slats to 0 first.
func (s *ShadingActor) slatOnly(ctx context.Context, slat int) error {
	if slat != 0 {
		if err := s.cover.GoToSlatPosition(ctx, 0); err != nil {
			return fmt.Errorf("reset slats: %w", err)
		}
	}
	if err := s.cover.GoToSlatPosition(ctx, slat); err != nil {
		return fmt.Errorf("set slats: %w", err)
	}

	s.mu.Lock()
	s.tiltPosition = slat
	s.mu.Unlock()
	return nil
}

// WaitForPosition polls the cover until it reports position or the move
// timeout elapses.
func (s *ShadingActor) WaitForPosition(ctx context.Context, position int) error {
	if err := device.ValidatePosition(position); err != nil {
		return err
	}

	deadline := time.Now().Add(s.timing.MoveTimeout)
	for {
		current, err := s.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("get position: %w", err)
		}
		if current == position {
			log.Debug().Str("actor", s.cfg.Name).Int("position", position).Msg("Position reached")
			return nil
		}

		log.Debug().Str("actor", s.cfg.Name).Int("target", position).Int("current", current).Msg("Waiting for position")
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: waiting for %s to reach %d", device.ErrTimeout, s.cfg.Name, position)
		}

		if err := sleep(ctx, s.timing.PollEvery); err != nil {
			return err
		}
	}
}

// Refresh reads the cover status, updates the cached state and emits a
// state event when the position or slats changed. It returns the position.
func (s *ShadingActor) Refresh(ctx context.Context) (int, error) {
	status, err := s.cover.Status(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	changed := s.position != status.CurrentPos || s.tiltPosition != status.SlatPos
	s.position = status.CurrentPos
	s.tiltPosition = status.SlatPos
	s.tilted = status.SlatPos != 0
	onChange := s.onChange
	s.mu.Unlock()

	if changed && onChange != nil {
		onChange(device.StateEvent{
			ActorName:    s.cfg.Name,
			Position:     status.CurrentPos,
			SlatPosition: status.SlatPos,
			Timestamp:    time.Now(),
		})
	}
	return status.CurrentPos, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
