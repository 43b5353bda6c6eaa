// Package mqtt accepts shading commands published on MQTT topics:
//
//	<topic>/<actor>/set
//	<topic>/group:<id>/set
//
// with payloads {"action": "set|tilt|slat", "position": 0-100}.
package mqtt

import (
	"fmt"
	"strings"

	"github.com/urmzd/shadepanel/pkg/device"
	"github.com/urmzd/shadepanel/pkg/device/schema"
)

const (
	setSuffix   = "/set"
	groupPrefix = "group:"
)

var actionKinds = map[string]device.Kind{
	"set":  device.KindPosition,
	"tilt": device.KindTilt,
	"slat": device.KindSlat,
}

// ParseTopic extracts the addressed actor or group from a command topic.
func ParseTopic(prefix, topic string) (device.Scope, string, error) {
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if !ok {
		return "", "", fmt.Errorf("%w: topic %q outside %q", device.ErrValidation, topic, prefix)
	}
	target, ok := strings.CutSuffix(rest, setSuffix)
	if !ok || target == "" || strings.Contains(target, "/") {
		return "", "", fmt.Errorf("%w: not a command topic: %q", device.ErrValidation, topic)
	}

	if id, ok := strings.CutPrefix(target, groupPrefix); ok {
		if id == "" {
			return "", "", fmt.Errorf("%w: group command without id: %q", device.ErrValidation, topic)
		}
		return device.ScopeGroup, id, nil
	}
	return device.ScopeActor, target, nil
}

// ParseCommand decodes a command message for the actor or group on topic.
func ParseCommand(v *schema.Validator, prefix, topic string, payload []byte) (device.Command, error) {
	scope, target, err := ParseTopic(prefix, topic)
	if err != nil {
		return device.Command{}, err
	}

	body, err := v.DecodeValid(schema.LowLevelCommand, payload)
	if err != nil {
		return device.Command{}, fmt.Errorf("%w: %v", device.ErrValidation, err)
	}
	action, _ := body["action"].(string)
	position, _ := schema.Int(body, "position")

	return device.Command{
		Scope:  scope,
		Target: target,
		Kind:   actionKinds[action],
		Value:  position,
	}, nil
}
