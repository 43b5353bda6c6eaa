package panel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urmzd/shadepanel/pkg/device"
)

// ErrUnknownAction is returned for action ids outside the catalogue.
var ErrUnknownAction = errors.New("unknown action")

// Scope identifies the panel region a confirmation controller belongs to.
type Scope struct {
	Kind device.Scope
	ID   string // group id or actor name; empty for the global scope
}

// Global is the scope of the whole-house controls.
func Global() Scope {
	return Scope{Kind: device.ScopeAll}
}

// Group is the scope of one group card.
func Group(id string) Scope {
	return Scope{Kind: device.ScopeGroup, ID: id}
}

// Actor is the scope of one actor card.
func Actor(name string) Scope {
	return Scope{Kind: device.ScopeActor, ID: name}
}

func (s Scope) String() string {
	if s.Kind == device.ScopeAll {
		return "global"
	}
	return string(s.Kind) + ":" + s.ID
}

// ParseScope builds a scope from its kind ("global", "all", "group", "actor") and id.
func ParseScope(kind, id string) (Scope, error) {
	switch strings.ToLower(kind) {
	case "global", "all", "":
		return Global(), nil
	case "group":
		if id == "" {
			return Scope{}, fmt.Errorf("%w: group scope needs an id", device.ErrValidation)
		}
		return Group(id), nil
	case "actor":
		if id == "" {
			return Scope{}, fmt.Errorf("%w: actor scope needs a name", device.ErrValidation)
		}
		return Actor(id), nil
	default:
		return Scope{}, fmt.Errorf("%w: scope %q", device.ErrUnsupported, kind)
	}
}

// Global action ids with fixed targets.
const (
	ActionCloseAll      = "close-all"
	ActionOpenAll       = "open-all"
	ActionTiltAllClosed = "tilt-all-closed"
	ActionTiltAllHalf   = "tilt-all-half"
	ActionTiltOn        = "tilt-on"
)

// Actions lists the action ids accepted in scope. N stands for an integer
// from 0 to 100.
func Actions(scope Scope) []string {
	if scope.Kind == device.ScopeAll {
		return []string{ActionCloseAll, ActionOpenAll, ActionTiltAllClosed, ActionTiltAllHalf, "pos-all-N", "slat-all-N"}
	}
	return []string{"pos-N", ActionTiltOn, "tilt-N", "slat-N"}
}

// ParseAction maps an action id tapped in scope to the command it sends.
//
// Global: close-all, open-all, tilt-all-closed, tilt-all-half, pos-all-N, slat-all-N.
// Group and actor: pos-N, tilt-on, tilt-N, slat-N. N is an integer from 0 to 100.
func ParseAction(scope Scope, actionID string) (device.Command, error) {
	if scope.Kind == device.ScopeAll {
		return parseGlobal(actionID)
	}

	cmd := device.Command{Scope: scope.Kind, Target: scope.ID}
	switch {
	case actionID == ActionTiltOn:
		cmd.Kind, cmd.Value = device.KindTilt, 0
	case strings.HasPrefix(actionID, "pos-"):
		cmd.Kind = device.KindPosition
		return withValue(cmd, actionID, "pos-")
	case strings.HasPrefix(actionID, "tilt-"):
		cmd.Kind = device.KindTilt
		return withValue(cmd, actionID, "tilt-")
	case strings.HasPrefix(actionID, "slat-"):
		cmd.Kind = device.KindSlat
		return withValue(cmd, actionID, "slat-")
	default:
		return device.Command{}, fmt.Errorf("%w: %q in %s", ErrUnknownAction, actionID, scope)
	}
	return cmd, cmd.Validate()
}

func parseGlobal(actionID string) (device.Command, error) {
	cmd := device.Command{Scope: device.ScopeAll, Target: device.TargetAll}
	switch {
	case actionID == ActionCloseAll:
		cmd.Kind, cmd.Value = device.KindPosition, 0
	case actionID == ActionOpenAll:
		cmd.Kind, cmd.Value = device.KindPosition, 100
	case actionID == ActionTiltAllClosed:
		cmd.Kind, cmd.Value = device.KindTilt, 0
	case actionID == ActionTiltAllHalf:
		cmd.Kind, cmd.Value = device.KindTilt, 50
	case strings.HasPrefix(actionID, "pos-all-"):
		cmd.Kind = device.KindPosition
		return withValue(cmd, actionID, "pos-all-")
	case strings.HasPrefix(actionID, "slat-all-"):
		cmd.Kind = device.KindSlat
		return withValue(cmd, actionID, "slat-all-")
	default:
		return device.Command{}, fmt.Errorf("%w: %q in global scope", ErrUnknownAction, actionID)
	}
	return cmd, nil
}

func withValue(cmd device.Command, actionID, prefix string) (device.Command, error) {
	raw := strings.TrimPrefix(actionID, prefix)
	v, err := strconv.Atoi(raw)
	if err != nil || raw != strconv.Itoa(v) {
		return device.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}
	cmd.Value = v
	if err := cmd.Validate(); err != nil {
		return device.Command{}, err
	}
	return cmd, nil
}
