package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplbind/pkg/model"
)

func TestRegistry_Builtins(t *testing.T) {
	reg := NewRegistry()
	want := []string{"absent", "currency", "identity", "number", "present", "sanitize", "toggle"}
	if diff := cmp.Diff(want, reg.List()); diff != "" {
		t.Fatalf("builtins mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RegisterRejectsDuplicatesAndBlanks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("currency", func(string) Transform { return Identity{} }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := reg.Register("  ", func(string) Transform { return Identity{} }); err == nil {
		t.Fatalf("expected blank name to fail")
	}
	if err := reg.Register("upper", nil); err == nil {
		t.Fatalf("expected nil factory to fail")
	}
}

func TestRegistry_HasMatchesGet(t *testing.T) {
	reg := NewRegistry()
	if !reg.Has(" currency ") {
		t.Fatalf("expected padded name to resolve like Get")
	}
	if reg.Has("  ") {
		t.Fatalf("blank name must not be registered")
	}

	var missing *Registry
	if missing.Has("currency") {
		t.Fatalf("nil registry has no transforms")
	}
	if got := missing.List(); len(got) != 0 {
		t.Fatalf("expected empty list from nil registry, got %v", got)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry().Get("nope", "")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
	tr, err := NewRegistry().Get("", "")
	if err != nil {
		t.Fatalf("empty name: %v", err)
	}
	if _, ok := tr.(Identity); !ok {
		t.Fatalf("expected identity for empty name, got %T", tr)
	}
}

func TestTransforms_ToTarget(t *testing.T) {
	reg := NewRegistry()
	cases := []struct {
		name   string
		arg    string
		source any
		expect any
	}{
		{name: "currency", source: 3, expect: "$3.00"},
		{name: "currency", source: "1.5", expect: "$1.50"},
		{name: "currency", source: "abc", expect: "NaN"},
		{name: "toggle", arg: "checked", source: true, expect: "checked"},
		{name: "toggle", source: 1, expect: "done"},
		{name: "toggle", source: false, expect: ""},
		{name: "absent", source: model.NewList(), expect: true},
		{name: "absent", source: model.NewList(1), expect: false},
		{name: "absent", source: "", expect: true},
		{name: "present", source: "x", expect: true},
		{name: "present", source: nil, expect: false},
		{name: "sanitize", source: "<b>bold</b>", expect: "bold"},
		{name: "identity", source: 7, expect: 7},
	}

	for _, tc := range cases {
		t.Run(tc.name+"/"+tc.arg, func(t *testing.T) {
			tr, err := reg.Get(tc.name, tc.arg)
			if err != nil {
				t.Fatalf("get %s: %v", tc.name, err)
			}
			if got := tr.ToTarget(tc.source, "done"); got != tc.expect {
				t.Fatalf("ToTarget(%v) = %#v, want %#v", tc.source, got, tc.expect)
			}
		})
	}
}

func TestTransforms_ToSource(t *testing.T) {
	if got := (Currency{}).ToSource("$2.25", ""); got != 2.25 {
		t.Fatalf("currency to source = %v", got)
	}
	if got := (Currency{}).ToSource("two", "").(float64); !math.IsNaN(got) {
		t.Fatalf("expected NaN for unparsable currency, got %v", got)
	}
	if got := (Number{}).ToSource("42", ""); got != float64(42) {
		t.Fatalf("number to source = %v", got)
	}
	if got := (Toggle{Value: "on"}).ToSource("on", "x"); got != true {
		t.Fatalf("toggle to source = %v", got)
	}
}
