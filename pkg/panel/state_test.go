package panel

import (
	"context"
	"testing"

	"github.com/urmzd/shadepanel/pkg/device"
)

func snapshot(positions ...int) []device.ActorStatus {
	names := []string{"a", "b", "c", "d"}
	out := make([]device.ActorStatus, len(positions))
	for i, pos := range positions {
		out[i] = device.ActorStatus{Name: names[i], Position: pos, DeviceType: "blinds", GroupID: "G"}
	}
	return out
}

func TestReconcileReplacesState(t *testing.T) {
	p, _, _ := newTestPanel(false)

	if !p.Reconcile(snapshot(10, 20)) {
		t.Fatal("reconcile should apply while idle")
	}
	if got := p.Actors(); len(got) != 2 || got[1].Position != 20 {
		t.Fatalf("actors = %+v", got)
	}

	p.Reconcile(snapshot(90))
	if got := p.Actors(); len(got) != 1 || got[0].Position != 90 {
		t.Errorf("snapshot should replace the list wholesale, got %+v", got)
	}
}

func TestReconcileSuppressedWhileSending(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{}), began: make(chan struct{}, 1)}
	p := New(sender, WithSafeMode(false))
	p.Reconcile(snapshot(0))

	done := make(chan error, 1)
	go func() {
		_, err := p.Tap(context.Background(), Global(), ActionOpenAll)
		done <- err
	}()
	<-sender.began

	if !p.Busy() {
		t.Fatal("panel should be busy while sending")
	}
	if p.Reconcile(snapshot(50)) {
		t.Error("reconcile should be suppressed while sending")
	}
	p.Reconcile(snapshot(100))
	if got := p.Actors(); got[0].Position != 0 {
		t.Errorf("state changed while suppressed: %+v", got)
	}

	close(sender.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := p.Actors(); got[0].Position != 100 {
		t.Errorf("latest parked snapshot not applied, got %+v", got)
	}
}

func TestGroupsAndAverage(t *testing.T) {
	p, _, _ := newTestPanel(false)
	p.Reconcile(append(snapshot(10, 21), device.ActorStatus{Name: "loose", Position: 5}))

	groups := p.Groups()
	if len(groups) != 1 || groups[0].ActorCount != 2 || groups[0].Name != "G" {
		t.Fatalf("groups = %+v", groups)
	}
	avg, ok := p.AveragePosition("G")
	if !ok || avg != 16 {
		t.Errorf("average = %d, %v; want 16", avg, ok)
	}
	if _, ok := p.AveragePosition("missing"); ok {
		t.Error("unknown group should not report an average")
	}
}

func TestEmptyStateIsNotNil(t *testing.T) {
	p, _, _ := newTestPanel(false)
	if p.Actors() == nil || p.Groups() == nil {
		t.Error("empty state should yield empty slices")
	}
}

func TestRunTracksConnection(t *testing.T) {
	p, _, _ := newTestPanel(false)
	feed := make(chan []device.ActorStatus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, feed) }()

	feed <- snapshot(42)
	feed <- snapshot(42) // returns once the first snapshot is fully handled
	if !p.Connected() {
		t.Fatal("panel should be connected after the first snapshot")
	}
	if got := p.Actors(); len(got) != 1 || got[0].Position != 42 {
		t.Errorf("actors = %+v", got)
	}

	close(feed)
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
	if p.Connected() {
		t.Error("panel should be disconnected once the feed closes")
	}
}
