package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SplitKeyPath splits a dotted key path into its non-empty segments.
func SplitKeyPath(path string) []string {
	var segments []string
	for _, part := range strings.Split(path, ".") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}

// ApplyKeyPath returns a copy of the settings with the value at the dotted
// key path replaced. Intermediate maps are created as needed. The updated
// settings are re-validated before being returned.
func ApplyKeyPath(settings *Settings, keyPath []string, value any) (*Settings, error) {
	if len(keyPath) == 0 {
		return nil, errors.New("key path cannot be empty")
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	target := data
	for _, part := range keyPath[:len(keyPath)-1] {
		node, ok := target[part].(map[string]any)
		if !ok {
			if existing, present := target[part]; present && existing != nil {
				if _, isMap := existing.(map[string]any); !isMap {
					return nil, fmt.Errorf("cannot set nested key on non-mapping value at %q", part)
				}
			}
			node = map[string]any{}
			target[part] = node
		}
		target = node
	}
	target[keyPath[len(keyPath)-1]] = value

	merged, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode updated settings: %w", err)
	}
	updated := &Settings{}
	if err := json.Unmarshal(merged, updated); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", strings.Join(keyPath, "."), err)
	}

	if err := updated.Normalize(); err != nil {
		return nil, err
	}
	return updated, nil
}

// ParseTypedValue parses a raw string into the requested type.
// Supported types: str, int, float, bool, json.
func ParseTypedValue(raw, valueType string) (any, error) {
	switch valueType {
	case "str", "":
		return raw, nil
	case "int":
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("cannot parse integer value from %q", raw)
		}
		return v, nil
	case "float":
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse float value from %q", raw)
		}
		return v, nil
	case "bool":
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return nil, fmt.Errorf("cannot parse boolean value from %q", raw)
	case "json":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("cannot parse JSON value from %q: %w", raw, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %s", valueType)
	}
}
