package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is one full telemetry document. It is replaced wholesale on every
// update and never mutated in place.
type Snapshot map[string]any

// Decode parses raw JSON into a Snapshot and returns it together with its
// canonical serialized frame.
//
// If the document has no truthy timestamp field (absent, null, 0, false or
// empty string), the given wall-clock time is injected as epoch seconds
// before serializing.
func Decode(raw []byte, now time.Time) (Snapshot, []byte, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, nil, fmt.Errorf("telemetry: decode: %w", err)
	}
	// A JSON null unmarshals without error but leaves the map nil.
	if snap == nil {
		return nil, nil, fmt.Errorf("telemetry: decode: document is not a JSON object")
	}

	if !truthy(snap["timestamp"]) {
		snap["timestamp"] = now.Unix()
	}

	frame, err := json.Marshal(snap)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: encode: %w", err)
	}
	return snap, frame, nil
}

// truthy reports whether a decoded JSON value counts as a usable timestamp.
// Empty containers are falsy, matching the export mod's conventions.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// Vehicles returns the vehicles sequence, or nil if absent.
func (s Snapshot) Vehicles() []any { return s.list("vehicles") }

// Lines returns the lines sequence, or nil if absent.
func (s Snapshot) Lines() []any { return s.list("lines") }

// Stations returns the stations sequence, or nil if absent.
func (s Snapshot) Stations() []any { return s.list("stations") }

func (s Snapshot) list(key string) []any {
	v, _ := s[key].([]any)
	return v
}

// Stats returns the stats map, or nil if absent.
func (s Snapshot) Stats() map[string]any {
	v, _ := s["stats"].(map[string]any)
	return v
}

// GameTime returns the in-game time field untyped; the server never
// interprets it.
func (s Snapshot) GameTime() any { return s["game_time"] }

// Timestamp returns the document timestamp field untyped.
func (s Snapshot) Timestamp() any { return s["timestamp"] }

// Clone returns a deep copy of the snapshot. Mutating the copy does not
// affect the original.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return Snapshot(cloneMap(s))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		// Scalars decoded from JSON are immutable.
		return v
	}
}
