package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation kinds understood by Script.
const (
	OpSet    = "set"
	OpDelete = "delete"
	OpSplice = "splice"
	OpAppend = "append"
)

// Operation is one scripted model edit.
type Operation struct {
	Op     string `json:"op" yaml:"op"`
	Path   string `json:"path" yaml:"path"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
	Index  int    `json:"index,omitempty" yaml:"index,omitempty"`
	Remove int    `json:"remove,omitempty" yaml:"remove,omitempty"`
	Add    []any  `json:"add,omitempty" yaml:"add,omitempty"`
}

// Script is an ordered list of operations.
type Script []Operation

// ParseScript decodes a JSON or YAML list of operations.
func ParseScript(data []byte, source string) (Script, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var script Script
	if err := json.Unmarshal(data, &script); err == nil {
		return script, nil
	}
	if err := yaml.Unmarshal(data, &script); err == nil {
		return script, nil
	}
	return nil, fmt.Errorf("model: parse script %s: invalid JSON or YAML", source)
}

// Apply runs every operation against root, stopping at the first failure.
func (s Script) Apply(root any) error {
	for idx, op := range s {
		if err := op.Apply(root); err != nil {
			return fmt.Errorf("model: script step %d: %w", idx, err)
		}
	}
	return nil
}

// Apply runs a single operation.
func (o Operation) Apply(root any) error {
	switch strings.ToLower(strings.TrimSpace(o.Op)) {
	case OpSet:
		return Set(root, o.Path, FromValue(o.Value))
	case OpDelete:
		return Delete(root, o.Path)
	case OpSplice, OpAppend:
		target, ok := Resolve(root, o.Path)
		if !ok {
			return fmt.Errorf("%s %q: path not found", o.Op, o.Path)
		}
		list, ok := target.(*List)
		if !ok {
			return fmt.Errorf("%s %q: %T is not a list", o.Op, o.Path, target)
		}
		added := make([]any, len(o.Add))
		for idx, item := range o.Add {
			added[idx] = FromValue(item)
		}
		if strings.EqualFold(o.Op, OpAppend) {
			list.Append(added...)
			return nil
		}
		list.Splice(o.Index, o.Remove, added...)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", o.Op)
	}
}
