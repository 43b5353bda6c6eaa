package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/urmzd/shadepanel/pkg/confirm"
	"github.com/urmzd/shadepanel/pkg/device"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []device.Command
	err   error
	block chan struct{}
	began chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, cmd device.Command) error {
	if s.began != nil {
		s.began <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, cmd)
	return s.err
}

func (s *recordingSender) commands() []device.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]device.Command(nil), s.sent...)
}

func newTestPanel(safe bool) (*Panel, *recordingSender, *confirm.FakeClock) {
	sender := &recordingSender{}
	clock := confirm.NewFakeClock(time.Unix(0, 0))
	return New(sender, WithClock(clock), WithSafeMode(safe)), sender, clock
}

func TestCloseAllConfirmedOnce(t *testing.T) {
	p, sender, clock := newTestPanel(true)
	ctx := context.Background()

	outcome, err := p.Tap(ctx, Global(), ActionCloseAll)
	if err != nil || outcome != confirm.Pending {
		t.Fatalf("first tap = %v, %v", outcome, err)
	}
	if !p.IsPending(Global(), ActionCloseAll) {
		t.Fatal("close-all should be pending")
	}

	clock.Advance(2 * time.Second)
	outcome, err = p.Tap(ctx, Global(), ActionCloseAll)
	if err != nil || outcome != confirm.Executed {
		t.Fatalf("second tap = %v, %v", outcome, err)
	}

	want := device.Command{Scope: device.ScopeAll, Target: device.TargetAll, Kind: device.KindPosition, Value: 0}
	got := sender.commands()
	if len(got) != 1 || got[0] != want {
		t.Fatalf("sent %+v, want [%+v]", got, want)
	}
	if p.IsPending(Global(), ActionCloseAll) {
		t.Error("close-all still pending after confirmation")
	}
}

func TestGroupTapExpires(t *testing.T) {
	p, sender, clock := newTestPanel(true)
	ctx := context.Background()
	g := Group("G")

	if _, err := p.Tap(ctx, g, "pos-20"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(3100 * time.Millisecond)
	if p.IsPending(g, "pos-20") {
		t.Fatal("pos-20 should have expired")
	}

	outcome, err := p.Tap(ctx, g, "pos-20")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != confirm.Pending {
		t.Errorf("tap after expiry = %v, want pending", outcome)
	}
	if n := len(sender.commands()); n != 0 {
		t.Errorf("sent %d commands, want 0", n)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	p, sender, _ := newTestPanel(true)
	ctx := context.Background()

	_, _ = p.Tap(ctx, Group("ground"), "pos-50")
	_, _ = p.Tap(ctx, Actor("kitchen"), "pos-50")

	if !p.IsPending(Group("ground"), "pos-50") || !p.IsPending(Actor("kitchen"), "pos-50") {
		t.Fatal("both scopes should hold their own pending action")
	}

	outcome, err := p.Tap(ctx, Actor("kitchen"), "pos-50")
	if err != nil || outcome != confirm.Executed {
		t.Fatalf("confirm = %v, %v", outcome, err)
	}
	if !p.IsPending(Group("ground"), "pos-50") {
		t.Error("group pending action should survive actor confirmation")
	}

	got := sender.commands()
	want := device.Command{Scope: device.ScopeActor, Target: "kitchen", Kind: device.KindPosition, Value: 50}
	if len(got) != 1 || got[0] != want {
		t.Errorf("sent %+v", got)
	}

	pending := p.PendingAll()
	if len(pending) != 1 || pending["group:ground"] != "pos-50" {
		t.Errorf("PendingAll = %v", pending)
	}
}

func TestDifferentActionReplacesPending(t *testing.T) {
	p, sender, _ := newTestPanel(true)
	ctx := context.Background()

	_, _ = p.Tap(ctx, Global(), ActionCloseAll)
	_, _ = p.Tap(ctx, Global(), ActionOpenAll)

	if p.IsPending(Global(), ActionCloseAll) {
		t.Error("close-all should be discarded")
	}
	if id, ok := p.Pending(Global()); !ok || id != ActionOpenAll {
		t.Errorf("Pending = %q, %v", id, ok)
	}
	if len(sender.commands()) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestSafeModeOffSendsImmediately(t *testing.T) {
	p, sender, _ := newTestPanel(false)

	outcome, err := p.Tap(context.Background(), Actor("office"), "slat-30")
	if err != nil || outcome != confirm.Executed {
		t.Fatalf("tap = %v, %v", outcome, err)
	}
	if len(sender.commands()) != 1 {
		t.Errorf("sent %d commands, want 1", len(sender.commands()))
	}
	if p.IsPending(Actor("office"), "slat-30") {
		t.Error("nothing should be pending with safe mode off")
	}
}

func TestToggleSafeModeClearsPending(t *testing.T) {
	p, sender, clock := newTestPanel(true)
	ctx := context.Background()

	_, _ = p.Tap(ctx, Group("G"), "tilt-on")
	if on := p.ToggleSafeMode(); on {
		t.Fatal("toggle should turn safe mode off")
	}
	if p.IsPending(Group("G"), "tilt-on") {
		t.Error("toggle should clear pending actions")
	}
	if clock.Pending() != 0 {
		t.Errorf("%d timers left running", clock.Pending())
	}
	if len(sender.commands()) != 0 {
		t.Error("nothing should be sent by a toggle")
	}
}

func TestSendErrorIsReturned(t *testing.T) {
	p, sender, _ := newTestPanel(false)
	boom := errors.New("unreachable")
	sender.err = boom

	_, err := p.Tap(context.Background(), Global(), ActionOpenAll)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if p.Busy() {
		t.Error("gate should be idle after a failed command")
	}
}

func TestUnknownActionRejected(t *testing.T) {
	p, sender, _ := newTestPanel(true)

	outcome, err := p.Tap(context.Background(), Actor("x"), "dance")
	if !errors.Is(err, ErrUnknownAction) || outcome != confirm.Rejected {
		t.Errorf("tap = %v, %v", outcome, err)
	}
	if len(p.PendingAll()) != 0 || len(sender.commands()) != 0 {
		t.Error("rejected tap must not arm or send")
	}
}

func TestUnmountAndClose(t *testing.T) {
	p, _, clock := newTestPanel(true)
	ctx := context.Background()

	_, _ = p.Tap(ctx, Actor("a"), "pos-10")
	p.Unmount(Actor("a"))
	if p.IsPending(Actor("a"), "pos-10") || clock.Pending() != 0 {
		t.Error("unmount should drop the pending action and its timer")
	}

	if outcome, _ := p.Tap(ctx, Actor("a"), "pos-10"); outcome != confirm.Pending {
		t.Error("tap after unmount should mount a fresh controller")
	}

	p.Close()
	if clock.Pending() != 0 {
		t.Error("close should stop every timer")
	}
	if _, err := p.Tap(ctx, Global(), ActionCloseAll); !errors.Is(err, confirm.ErrClosed) {
		t.Errorf("tap after close err = %v", err)
	}
}

func TestInitialSafeMode(t *testing.T) {
	sender := &recordingSender{}

	if New(sender).SafeMode() {
		t.Error("default should be off without a detector")
	}
	if !New(sender, WithConstrainedInput(func() bool { return true })).SafeMode() {
		t.Error("constrained input should enable safe mode")
	}
	p := New(sender, WithSafeMode(false), WithConstrainedInput(func() bool { return true }))
	if p.SafeMode() {
		t.Error("explicit option should win over the detector")
	}
}

func TestObserverSeesPendingChanges(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	clock := confirm.NewFakeClock(time.Unix(0, 0))
	p := New(&recordingSender{}, WithClock(clock), WithSafeMode(true),
		WithObserver(func(scope, pending string) {
			mu.Lock()
			seen = append(seen, scope+"="+pending)
			mu.Unlock()
		}))

	_, _ = p.Tap(context.Background(), Group("G"), "pos-20")
	clock.Advance(confirm.DefaultTimeout)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"group:G=pos-20", "group:G="}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("observer saw %v, want %v", seen, want)
	}
}
