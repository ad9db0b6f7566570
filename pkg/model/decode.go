package model

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON or YAML document into an observable tree. JSON is
// attempted first; YAML is the fallback.
func Parse(data []byte, source string) (any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("model: document %s is empty", source)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err == nil {
		return FromValue(raw), nil
	}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		return FromValue(raw), nil
	}
	return nil, fmt.Errorf("model: parse %s: invalid JSON or YAML", source)
}

// LoadFS reads and parses a model document from fsys.
func LoadFS(fsys fs.FS, path string) (any, error) {
	if fsys == nil {
		return nil, fmt.Errorf("model: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// FromValue converts plain maps and slices into Map and List recursively.
// Values that already are Map or List are returned as is.
func FromValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := &Map{values: make(map[string]any, len(value))}
		for key, item := range value {
			out.values[key] = FromValue(item)
		}
		return out
	case map[any]any:
		out := &Map{values: make(map[string]any, len(value))}
		for key, item := range value {
			out.values[fmt.Sprint(key)] = FromValue(item)
		}
		return out
	case []any:
		out := &List{items: make([]any, len(value))}
		for idx, item := range value {
			out.items[idx] = FromValue(item)
		}
		return out
	default:
		return v
	}
}

// Plain converts a Map/List tree back into plain Go maps and slices, suitable
// for encoding.
func Plain(v any) any {
	switch value := v.(type) {
	case *Map:
		if value == nil {
			return nil
		}
		out := make(map[string]any, len(value.values))
		for key, item := range value.values {
			out[key] = Plain(item)
		}
		return out
	case *List:
		if value == nil {
			return nil
		}
		out := make([]any, len(value.items))
		for idx, item := range value.items {
			out[idx] = Plain(item)
		}
		return out
	default:
		return v
	}
}
