package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// PositionRequest is the schema for {"position": n} bodies accepted by the
// position, tilt and slat endpoints.
var PositionRequest = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"position": {"type": "integer", "minimum": 0, "maximum": 100}
	},
	"required": ["position"],
	"additionalProperties": false
}`)

// LowLevelCommand is the schema for {"action": "set|tilt|slat", "position": n}
// messages received on MQTT command topics.
var LowLevelCommand = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"action": {"enum": ["set", "tilt", "slat"]},
		"position": {"type": "integer", "minimum": 0, "maximum": 100}
	},
	"required": ["action", "position"],
	"additionalProperties": false
}`)

// Settings is the schema for panel preference updates.
var Settings = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"safeMode": {"type": ["boolean", "null"]},
		"confirmTimeoutMs": {"type": "integer", "minimum": 250, "maximum": 60000},
		"optimizeTilt": {"type": "boolean"},
		"pollIntervalMs": {"type": "integer", "minimum": 500, "maximum": 600000}
	},
	"additionalProperties": false
}`)

// Validator validates JSON payloads against JSON Schema documents.
// It caches compiled schemas keyed by their raw bytes.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator creates a new Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// Validate validates payload against the given JSON Schema document.
// Returns nil if valid, or an error describing the validation failures.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	if len(schemaDoc) == 0 || string(schemaDoc) == "{}" || string(schemaDoc) == "null" {
		return nil // No schema = no validation
	}

	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	return compiled.Validate(payload)
}

// DecodeValid parses raw JSON into a generic value, validates it and returns it.
// Numbers are decoded with json.Number semantics so integers stay integers.
func (v *Validator) DecodeValid(schemaDoc json.RawMessage, raw []byte) (map[string]any, error) {
	payload, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object")
	}
	if err := v.Validate(schemaDoc, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (v *Validator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)

	v.mu.RLock()
	if s, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	var schemaMap any
	if err := json.Unmarshal(schemaDoc, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaMap); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// Int reads an integral field from a decoded payload.
func Int(payload map[string]any, key string) (int, bool) {
	switch n := payload[key].(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
