package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// PathSep separates path segments.
const PathSep = "."

// Join appends segment to base. Empty and "." segments leave base unchanged.
func Join(base string, segment any) string {
	seg := strings.TrimSpace(fmt.Sprint(segment))
	if segment == nil || seg == "" || seg == PathSep {
		return base
	}
	seg = strings.Trim(seg, PathSep)
	if base == "" {
		return seg
	}
	return base + PathSep + seg
}

// Split breaks a path into its non-empty segments.
func Split(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw := strings.Split(path, PathSep)
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Resolve walks path from root. The second result is false when any segment
// does not resolve.
func Resolve(root any, path string) (any, bool) {
	current := root
	for _, seg := range Split(path) {
		next, ok := child(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Trace returns the values visited while resolving path, starting with root
// and stopping before the leaf. Observing these containers is enough to learn
// about any change that could alter the resolved value.
func Trace(root any, path string) []any {
	segs := Split(path)
	out := make([]any, 0, len(segs))
	current := root
	for _, seg := range segs {
		if current == nil {
			break
		}
		out = append(out, current)
		next, ok := child(current, seg)
		if !ok {
			break
		}
		current = next
	}
	return out
}

// Set assigns value at path. The parent container must exist.
func Set(root any, path string, value any) error {
	parent, key, err := parentOf(root, path)
	if err != nil {
		return err
	}
	switch container := parent.(type) {
	case *Map:
		container.Set(key, value)
		return nil
	case *List:
		idx, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("model: set %q: list index %q: %w", path, key, err)
		}
		return container.Set(idx, value)
	case map[string]any:
		container[key] = value
		return nil
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(container) {
			return fmt.Errorf("model: set %q: invalid index %q", path, key)
		}
		container[idx] = value
		return nil
	default:
		return fmt.Errorf("model: set %q: %T is not writable", path, parent)
	}
}

// Delete removes the key at path from its parent object.
func Delete(root any, path string) error {
	parent, key, err := parentOf(root, path)
	if err != nil {
		return err
	}
	switch container := parent.(type) {
	case *Map:
		container.Delete(key)
		return nil
	case *List:
		idx, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("model: delete %q: list index %q: %w", path, key, err)
		}
		container.RemoveAt(idx, 1)
		return nil
	case map[string]any:
		delete(container, key)
		return nil
	default:
		return fmt.Errorf("model: delete %q: %T is not writable", path, parent)
	}
}

// Length reports the element count of list-like values. nil has length 0.
func Length(v any) (int, bool) {
	switch value := v.(type) {
	case nil:
		return 0, true
	case *List:
		return value.Len(), true
	case []any:
		return len(value), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// Same reports whether a and b are the same value: identity for comparable
// values (so two distinct lists are never the same), deep equality otherwise.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func parentOf(root any, path string) (any, string, error) {
	segs := Split(path)
	if len(segs) == 0 {
		return nil, "", fmt.Errorf("model: empty path")
	}
	parentPath := strings.Join(segs[:len(segs)-1], PathSep)
	parent, ok := Resolve(root, parentPath)
	if !ok || parent == nil {
		return nil, "", fmt.Errorf("model: parent of %q not found", path)
	}
	return parent, segs[len(segs)-1], nil
}

func child(v any, seg string) (any, bool) {
	switch value := v.(type) {
	case nil:
		return nil, false
	case *Map:
		return value.Get(seg)
	case *List:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, false
		}
		return value.At(idx)
	case map[string]any:
		out, ok := value[seg]
		return out, ok
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(value) {
			return nil, false
		}
		return value[idx], true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	case reflect.Struct:
		field := rv.FieldByName(seg)
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}
