package device

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DeviceType distinguishes shading hardware.
type DeviceType string

// Device type constants
const (
	DeviceTypeBlinds        DeviceType = "blinds"        // Venetian blinds with tiltable slats
	DeviceTypeRollerShutter DeviceType = "rollershutter" // Roller shutters, position only
)

// Kind is the movement a command requests.
type Kind string

// Command kinds
const (
	KindPosition Kind = "position" // Move to an absolute position
	KindTilt     Kind = "tilt"     // Move to a position, then tilt the slats
	KindSlat     Kind = "slat"     // Change slat angle only
)

// Scope selects which actors a command addresses.
type Scope string

// Command scopes
const (
	ScopeActor Scope = "actor"
	ScopeGroup Scope = "group"
	ScopeAll   Scope = "all"
)

// TargetAll is the target name used by bulk commands.
const TargetAll = "all"

// Command is a single movement request.
type Command struct {
	Scope  Scope  `json:"scope"`
	Target string `json:"target"` // Actor name, group ID, or "all"
	Kind   Kind   `json:"kind"`
	Value  int    `json:"value"` // 0 (closed) to 100 (open)
}

// Validate checks the command shape.
func (c Command) Validate() error {
	switch c.Kind {
	case KindPosition, KindTilt, KindSlat:
	default:
		return fmt.Errorf("%w: kind %q", ErrUnsupported, c.Kind)
	}
	switch c.Scope {
	case ScopeAll:
	case ScopeActor, ScopeGroup:
		if c.Target == "" {
			return fmt.Errorf("%w: %s command without target", ErrValidation, c.Scope)
		}
	default:
		return fmt.Errorf("%w: scope %q", ErrUnsupported, c.Scope)
	}
	return ValidatePosition(c.Value)
}

func (c Command) String() string {
	target := c.Target
	if c.Scope == ScopeAll {
		target = TargetAll
	}
	return fmt.Sprintf("%s %s:%s=%d", c.Kind, c.Scope, target, c.Value)
}

// ValidatePosition checks that a position is within 0–100.
func ValidatePosition(position int) error {
	if position < 0 || position > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	return nil
}

// ActorStatus is the wire snapshot of one actor.
type ActorStatus struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	IP           string `json:"ip"`
	Serial       string `json:"serial"`
	Position     int    `json:"position"`
	Tilted       bool   `json:"tilted"`
	TiltPosition int    `json:"tiltPosition"`
	DeviceType   string `json:"deviceType"`
	Rank         int    `json:"rank"`
	GroupID      string `json:"groupId,omitempty"`
}

// IsBlinds reports whether the actor supports tilt and slat commands.
func (a ActorStatus) IsBlinds() bool {
	return a.DeviceType == string(DeviceTypeBlinds)
}

// GroupInfo aggregates the actors sharing a group ID.
type GroupInfo struct {
	GroupID    string        `json:"groupId"`
	Name       string        `json:"name"`
	ActorCount int           `json:"actorCount"`
	Actors     []ActorStatus `json:"actors"`
}

// AveragePosition is the rounded mean position of the group's actors.
func (g GroupInfo) AveragePosition() int {
	if len(g.Actors) == 0 {
		return 0
	}
	sum := 0
	for _, a := range g.Actors {
		sum += a.Position
	}
	return int(math.Round(float64(sum) / float64(len(g.Actors))))
}

// HasBlinds reports whether any actor in the group can tilt.
func (g GroupInfo) HasBlinds() bool {
	for _, a := range g.Actors {
		if a.IsBlinds() {
			return true
		}
	}
	return false
}

// AnyTilted reports whether any actor in the group is tilted.
func (g GroupInfo) AnyTilted() bool {
	for _, a := range g.Actors {
		if a.Tilted {
			return true
		}
	}
	return false
}

// SortActors orders actors by rank, then name.
func SortActors(actors []ActorStatus) {
	sort.SliceStable(actors, func(i, j int) bool {
		if actors[i].Rank != actors[j].Rank {
			return actors[i].Rank < actors[j].Rank
		}
		return actors[i].Name < actors[j].Name
	})
}

// Groups derives groups from a snapshot. Actors without a group are skipped;
// the group name is its ID. Groups are ordered by ID.
func Groups(actors []ActorStatus) []GroupInfo {
	index := make(map[string]int)
	groups := []GroupInfo{}
	for _, a := range actors {
		if a.GroupID == "" {
			continue
		}
		i, ok := index[a.GroupID]
		if !ok {
			i = len(groups)
			index[a.GroupID] = i
			groups = append(groups, GroupInfo{GroupID: a.GroupID, Name: a.GroupID})
		}
		groups[i].Actors = append(groups[i].Actors, a)
		groups[i].ActorCount++
	}
	for i := range groups {
		SortActors(groups[i].Actors)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })
	return groups
}

// StateEvent is emitted when an actor reports a new position.
type StateEvent struct {
	ActorName    string    `json:"actor"`
	Position     int       `json:"position"`
	SlatPosition int       `json:"slatPosition"`
	Timestamp    time.Time `json:"timestamp"`
}
