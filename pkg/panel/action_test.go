package panel

import (
	"errors"
	"testing"

	"github.com/urmzd/shadepanel/pkg/device"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		scope  Scope
		action string
		want   device.Command
	}{
		{"close all", Global(), "close-all", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindPosition, Value: 0}},
		{"open all", Global(), "open-all", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindPosition, Value: 100}},
		{"tilt all closed", Global(), "tilt-all-closed", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindTilt, Value: 0}},
		{"tilt all half", Global(), "tilt-all-half", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindTilt, Value: 50}},
		{"global position", Global(), "pos-all-70", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindPosition, Value: 70}},
		{"global slat", Global(), "slat-all-25", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindSlat, Value: 25}},
		{"group position", Group("ground"), "pos-20", device.Command{Scope: device.ScopeGroup, Target: "ground", Kind: device.KindPosition, Value: 20}},
		{"group tilt on", Group("ground"), "tilt-on", device.Command{Scope: device.ScopeGroup, Target: "ground", Kind: device.KindTilt, Value: 0}},
		{"actor tilt", Actor("kitchen"), "tilt-40", device.Command{Scope: device.ScopeActor, Target: "kitchen", Kind: device.KindTilt, Value: 40}},
		{"actor slat", Actor("kitchen"), "slat-100", device.Command{Scope: device.ScopeActor, Target: "kitchen", Kind: device.KindSlat, Value: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.scope, tt.action)
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseActionRejects(t *testing.T) {
	tests := []struct {
		name   string
		scope  Scope
		action string
		want   error
	}{
		{"unknown", Global(), "explode", ErrUnknownAction},
		{"group id in global scope", Global(), "pos-20", ErrUnknownAction},
		{"global id in group scope", Group("G"), "close-all", ErrUnknownAction},
		{"bulk prefix in actor scope", Actor("a"), "pos-all-20", ErrUnknownAction},
		{"not a number", Actor("a"), "pos-abc", ErrUnknownAction},
		{"leading zero", Actor("a"), "pos-020", ErrUnknownAction},
		{"out of range", Group("G"), "pos-150", device.ErrInvalidPosition},
		{"negative", Global(), "slat-all--5", device.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAction(tt.scope, tt.action); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("group", "upstairs")
	if err != nil || s != Group("upstairs") {
		t.Errorf("got %v, %v", s, err)
	}
	if s, _ := ParseScope("global", "ignored"); s != Global() {
		t.Errorf("global scope = %v", s)
	}
	if _, err := ParseScope("actor", ""); !errors.Is(err, device.ErrValidation) {
		t.Errorf("err = %v", err)
	}
	if _, err := ParseScope("room", "x"); !errors.Is(err, device.ErrUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestMobileUserAgent(t *testing.T) {
	mobile := []string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8)",
		"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X)",
		"Opera/9.80 (J2ME/MIDP; Opera Mini/9.80)",
	}
	for _, ua := range mobile {
		if !MobileUserAgent(ua) {
			t.Errorf("MobileUserAgent(%q) = false", ua)
		}
	}

	desktop := []string{
		"Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/128.0",
		"",
	}
	for _, ua := range desktop {
		if MobileUserAgent(ua) {
			t.Errorf("MobileUserAgent(%q) = true", ua)
		}
	}
}
