package device

import (
	"errors"
	"testing"
)

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"actor position", Command{Scope: ScopeActor, Target: "kitchen", Kind: KindPosition, Value: 40}, nil},
		{"all tilt", Command{Scope: ScopeAll, Kind: KindTilt, Value: 0}, nil},
		{"group slat", Command{Scope: ScopeGroup, Target: "south", Kind: KindSlat, Value: 100}, nil},
		{"position too high", Command{Scope: ScopeAll, Kind: KindPosition, Value: 101}, ErrInvalidPosition},
		{"position negative", Command{Scope: ScopeAll, Kind: KindPosition, Value: -1}, ErrInvalidPosition},
		{"missing target", Command{Scope: ScopeGroup, Kind: KindPosition, Value: 10}, ErrValidation},
		{"unknown kind", Command{Scope: ScopeAll, Kind: "spin", Value: 10}, ErrUnsupported},
		{"unknown scope", Command{Scope: "room", Target: "x", Kind: KindSlat, Value: 10}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected valid command, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGroups(t *testing.T) {
	actors := []ActorStatus{
		{Name: "b", GroupID: "south", Position: 100, Rank: 2, DeviceType: "blinds"},
		{Name: "a", GroupID: "south", Position: 25, Rank: 1, DeviceType: "rollershutter", Tilted: true},
		{Name: "c", GroupID: "north", Position: 0},
		{Name: "loose"},
	}

	groups := Groups(actors)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].GroupID != "north" || groups[1].GroupID != "south" {
		t.Errorf("unexpected order: %s, %s", groups[0].GroupID, groups[1].GroupID)
	}

	south := groups[1]
	if south.Name != "south" || south.ActorCount != 2 {
		t.Errorf("unexpected south group: %+v", south)
	}
	if south.Actors[0].Name != "a" {
		t.Errorf("expected actors sorted by rank, got %s first", south.Actors[0].Name)
	}
	if avg := south.AveragePosition(); avg != 63 {
		t.Errorf("expected average 63, got %d", avg)
	}
	if !south.HasBlinds() || !south.AnyTilted() {
		t.Error("south group should have blinds and a tilted actor")
	}
	if groups[0].HasBlinds() {
		t.Error("north group has no blinds")
	}
}

func TestGroupsEmpty(t *testing.T) {
	groups := Groups(nil)
	if groups == nil || len(groups) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", groups)
	}
	if (GroupInfo{}).AveragePosition() != 0 {
		t.Error("empty group average should be 0")
	}
}
