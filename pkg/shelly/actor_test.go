package shelly

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/urmzd/shadepanel/pkg/device"
)

var fastTiming = Timing{
	PollEvery:   time.Millisecond,
	MoveTimeout: 50 * time.Millisecond,
	Settle:      time.Millisecond,
}

// stuckCover accepts commands but never moves.
type stuckCover struct {
	mu    sync.Mutex
	moves int
}

func (s *stuckCover) GoToPosition(ctx context.Context, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves++
	return nil
}

func (s *stuckCover) GoToSlatPosition(ctx context.Context, slat int) error {
	return nil
}

func (s *stuckCover) Status(ctx context.Context) (*Status, error) {
	return &Status{CurrentPos: 100}, nil
}

func newTestActor(deviceType device.DeviceType) (*ShadingActor, *SimCover) {
	cover := NewSimCover(100)
	actor := NewShadingActor(ActorConfig{
		Name:           "kitchen",
		Address:        SimAddress,
		DeviceType:     deviceType,
		TiltPercentage: 40,
		GroupID:        "south",
	}, cover)
	actor.timing = fastTiming
	return actor, cover
}

func TestApply_Position(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)

	if err := actor.Apply(context.Background(), device.KindPosition, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := actor.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := actor.Status().Position; got != 30 {
		t.Errorf("expected position 30, got %d", got)
	}
	if !reflect.DeepEqual(cover.Calls(), []string{"pos"}) {
		t.Errorf("unexpected calls %v", cover.Calls())
	}
}

func TestApply_InvalidPosition(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)

	err := actor.Apply(context.Background(), device.KindPosition, 150)
	if !errors.Is(err, device.ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if len(cover.Calls()) != 0 {
		t.Error("invalid command reached the cover")
	}
}

func TestApply_Tilt(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)

	if err := actor.Apply(context.Background(), device.KindTilt, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(cover.Calls(), []string{"pos", "slat"}) {
		t.Errorf("expected position then slat, got %v", cover.Calls())
	}
	status := actor.Status()
	if !status.Tilted || status.TiltPosition != 0 {
		t.Errorf("expected tilted at 0, got %+v", status)
	}
	st, _ := cover.Status(context.Background())
	if st.SlatPos != 40 {
		t.Errorf("expected slats at tilt percentage 40, got %d", st.SlatPos)
	}
}

func TestApply_TiltOptimized(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)
	ctx := context.Background()

	if err := actor.Apply(ctx, device.KindTilt, 0); err != nil {
		t.Fatal(err)
	}
	if err := actor.Apply(ctx, device.KindTilt, 0); err != nil {
		t.Fatal(err)
	}
	if n := len(cover.Calls()); n != 2 {
		t.Errorf("second tilt should be skipped, got %d calls", n)
	}

	actor.optimizeTilt = func() bool { return false }
	if err := actor.Apply(ctx, device.KindTilt, 0); err != nil {
		t.Fatal(err)
	}
	if n := len(cover.Calls()); n != 4 {
		t.Errorf("tilt should run with optimisation off, got %d calls", n)
	}
}

func TestApply_TiltTimeout(t *testing.T) {
	cover := &stuckCover{}
	actor := NewShadingActor(ActorConfig{Name: "stuck", DeviceType: device.DeviceTypeBlinds}, cover)
	actor.timing = fastTiming

	err := actor.Apply(context.Background(), device.KindTilt, 0)
	if !errors.Is(err, device.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if actor.Status().Tilted {
		t.Error("actor must not be marked tilted after a timeout")
	}
}

func TestApply_SlatOnly(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)
	ctx := context.Background()

	if err := actor.Apply(ctx, device.KindSlat, 70); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cover.Calls(), []string{"slat", "slat"}) {
		t.Errorf("expected reset then slat, got %v", cover.Calls())
	}
	if actor.Status().TiltPosition != 70 {
		t.Errorf("expected slat 70, got %d", actor.Status().TiltPosition)
	}

	if err := actor.Apply(ctx, device.KindSlat, 0); err != nil {
		t.Fatal(err)
	}
	if n := len(cover.Calls()); n != 3 {
		t.Errorf("slat 0 should not reset first, got %d calls", n)
	}
}

func TestApply_RollerShutterIgnoresTilt(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeRollerShutter)
	ctx := context.Background()

	for _, kind := range []device.Kind{device.KindTilt, device.KindSlat} {
		err := actor.Apply(ctx, kind, 50)
		if !errors.Is(err, device.ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", kind, err)
		}
	}
	if len(cover.Calls()) != 0 {
		t.Errorf("roller shutter moved: %v", cover.Calls())
	}
}

func TestRefresh_EmitsOnChange(t *testing.T) {
	actor, cover := newTestActor(device.DeviceTypeBlinds)
	var events []device.StateEvent
	actor.onChange = func(e device.StateEvent) { events = append(events, e) }
	ctx := context.Background()

	_, _ = actor.Refresh(ctx)
	_, _ = actor.Refresh(ctx)
	_ = cover.GoToPosition(ctx, 10)
	_, _ = actor.Refresh(ctx)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].ActorName != "kitchen" || events[1].Position != 10 {
		t.Errorf("unexpected event %+v", events[1])
	}
}

func TestDisplayNameFallback(t *testing.T) {
	actor := NewShadingActor(ActorConfig{Name: "office"}, NewSimCover(0))
	if actor.DisplayName() != "office" {
		t.Errorf("expected name fallback, got %q", actor.DisplayName())
	}
	if actor.Status().DeviceType != string(device.DeviceTypeBlinds) {
		t.Errorf("expected blinds default, got %q", actor.Status().DeviceType)
	}
}
