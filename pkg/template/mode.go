package template

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
)

// Attribute names understood on template elements and their content.
const (
	AttrInstantiate = "instantiate"
	AttrIterate     = "iterate"
	AttrRef         = "ref"
	AttrModelScope  = "modelscope"
)

// ModeKind selects how many instances a template produces.
type ModeKind int

const (
	// ModeNone produces a single instance bound to the template's own scope.
	ModeNone ModeKind = iota
	// ModeInstantiate produces one instance while the path resolves to a value.
	ModeInstantiate
	// ModeIterate produces one instance per element of the array at the path.
	ModeIterate
)

func (k ModeKind) String() string {
	switch k {
	case ModeInstantiate:
		return AttrInstantiate
	case ModeIterate:
		return AttrIterate
	default:
		return "none"
	}
}

// Mode is the template mode together with its model path.
type Mode struct {
	Kind ModeKind
	Path string
}

// None returns the absent mode.
func None() Mode { return Mode{Kind: ModeNone} }

// Instantiate returns a conditional mode bound to path.
func Instantiate(path string) Mode { return Mode{Kind: ModeInstantiate, Path: path} }

// Iterate returns a repeating mode bound to path.
func Iterate(path string) Mode { return Mode{Kind: ModeIterate, Path: path} }

func (m Mode) String() string {
	if m.Kind == ModeNone {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", m.Kind, m.Path)
}

// modeOf reads the mode from element attributes; iterate wins over
// instantiate when both are present.
func modeOf(el *html.Node) Mode {
	if path, ok := content.Attr(el, AttrIterate); ok {
		return Iterate(path)
	}
	if path, ok := content.Attr(el, AttrInstantiate); ok {
		return Instantiate(path)
	}
	return None()
}

func applyMode(el *html.Node, mode Mode) {
	content.RemoveAttr(el, AttrIterate)
	content.RemoveAttr(el, AttrInstantiate)
	switch mode.Kind {
	case ModeIterate:
		content.SetAttr(el, AttrIterate, mode.Path)
	case ModeInstantiate:
		content.SetAttr(el, AttrInstantiate, mode.Path)
	}
}
