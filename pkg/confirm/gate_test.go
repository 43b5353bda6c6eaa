package confirm

import "testing"

func TestGate_AcquireRelease(t *testing.T) {
	g := NewGate()
	if !g.Idle() {
		t.Fatal("new gate should be idle")
	}

	first := g.Acquire("close-all")
	second := g.Acquire("pos-20")
	if g.Idle() || g.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", g.InFlight())
	}

	first.Release()
	if g.Idle() {
		t.Error("gate idle while a token is still held")
	}

	second.Release()
	if !g.Idle() {
		t.Error("gate should be idle after all releases")
	}
}

func TestGate_ReleaseIdempotent(t *testing.T) {
	g := NewGate()
	idle := 0
	g.OnIdle(func() { idle++ })

	tok := g.Acquire("open-all")
	other := g.Acquire("open-all")
	tok.Release()
	tok.Release()
	if g.InFlight() != 1 {
		t.Fatalf("double release dropped another token: %d in flight", g.InFlight())
	}
	if idle != 0 {
		t.Error("OnIdle ran while a token was held")
	}

	other.Release()
	if idle != 1 {
		t.Errorf("expected one idle callback, got %d", idle)
	}
	if other.Label() != "open-all" {
		t.Errorf("unexpected label %q", other.Label())
	}
}
