package schema

import (
	"encoding/json"
	"testing"
)

func TestValidate_ValidPosition(t *testing.T) {
	v := NewValidator()

	err := v.Validate(PositionRequest, map[string]any{
		"position": float64(40),
	})
	if err != nil {
		t.Errorf("expected valid payload, got: %v", err)
	}
}

func TestValidate_OutOfRange(t *testing.T) {
	v := NewValidator()

	for _, pos := range []float64{-1, 101, 250} {
		err := v.Validate(PositionRequest, map[string]any{"position": pos})
		if err == nil {
			t.Errorf("expected validation error for position %v", pos)
		}
	}
}

func TestValidate_MissingPosition(t *testing.T) {
	v := NewValidator()

	err := v.Validate(PositionRequest, map[string]any{})
	if err == nil {
		t.Error("expected validation error for missing position")
	}
}

func TestValidate_UnknownProperty(t *testing.T) {
	v := NewValidator()

	err := v.Validate(PositionRequest, map[string]any{
		"position": float64(10),
		"speed":    "fast",
	})
	if err == nil {
		t.Error("expected validation error for unknown property")
	}
}

func TestValidate_WrongType(t *testing.T) {
	v := NewValidator()

	err := v.Validate(PositionRequest, map[string]any{
		"position": "half",
	})
	if err == nil {
		t.Error("expected validation error for wrong type")
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	v := NewValidator()

	// Empty schema means no validation
	err := v.Validate(json.RawMessage(`{}`), map[string]any{
		"anything": "goes",
	})
	if err != nil {
		t.Errorf("empty schema should skip validation, got: %v", err)
	}
}

func TestValidate_NilSchema(t *testing.T) {
	v := NewValidator()

	err := v.Validate(nil, map[string]any{
		"anything": "goes",
	})
	if err != nil {
		t.Errorf("nil schema should skip validation, got: %v", err)
	}
}

func TestValidate_Settings(t *testing.T) {
	v := NewValidator()

	valid := map[string]any{"safeMode": nil, "confirmTimeoutMs": float64(3000)}
	if err := v.Validate(Settings, valid); err != nil {
		t.Errorf("expected valid settings, got: %v", err)
	}

	invalid := map[string]any{"confirmTimeoutMs": float64(10)}
	if err := v.Validate(Settings, invalid); err == nil {
		t.Error("expected validation error for a too short timeout")
	}
}

func TestValidate_CachesSchema(t *testing.T) {
	v := NewValidator()

	// First call compiles
	err := v.Validate(PositionRequest, map[string]any{"position": float64(0)})
	if err != nil {
		t.Fatal(err)
	}

	// Second call should use cache
	err = v.Validate(PositionRequest, map[string]any{"position": float64(100)})
	if err != nil {
		t.Fatal(err)
	}

	v.mu.RLock()
	cacheSize := len(v.cache)
	v.mu.RUnlock()
	if cacheSize != 1 {
		t.Errorf("expected 1 cached schema, got %d", cacheSize)
	}
}

func TestDecodeValid(t *testing.T) {
	v := NewValidator()

	payload, err := v.DecodeValid(PositionRequest, []byte(`{"position": 70}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos, ok := Int(payload, "position")
	if !ok || pos != 70 {
		t.Errorf("expected position 70, got %d (ok=%v)", pos, ok)
	}

	if _, err := v.DecodeValid(PositionRequest, []byte(`{"position": 20.5}`)); err == nil {
		t.Error("expected fractional position to be rejected")
	}
	if _, err := v.DecodeValid(PositionRequest, []byte(`[1,2]`)); err == nil {
		t.Error("expected non-object body to be rejected")
	}
	if _, err := v.DecodeValid(PositionRequest, []byte(`{`)); err == nil {
		t.Error("expected malformed JSON to be rejected")
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"json number", json.Number("42"), 42, true},
		{"float whole", float64(7), 7, true},
		{"float fraction", 7.5, 0, false},
		{"int", 3, 3, true},
		{"string", "3", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int(map[string]any{"n": tt.value}, "n")
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestDecodeValid_LowLevelCommand(t *testing.T) {
	v := NewValidator()

	payload, err := v.DecodeValid(LowLevelCommand, []byte(`{"action":"tilt","position":30}`))
	if err != nil {
		t.Fatalf("expected valid command, got: %v", err)
	}
	if n, ok := Int(payload, "position"); !ok || n != 30 {
		t.Errorf("expected position 30, got %d (ok=%v)", n, ok)
	}

	for _, raw := range []string{
		`{"action":"open","position":30}`,
		`{"action":"set"}`,
		`{"action":"set","position":101}`,
		`{"action":"set","position":10,"speed":2}`,
	} {
		if _, err := v.DecodeValid(LowLevelCommand, []byte(raw)); err == nil {
			t.Errorf("expected %s to be rejected", raw)
		}
	}
}
