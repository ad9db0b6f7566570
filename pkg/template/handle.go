package template

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
)

// Handle is the decorated view of one template element.
type Handle struct {
	engine   *Engine
	element  *html.Node
	snapshot *Snapshot
	iterator *Iterator

	decorated bool
}

// Decorated reports whether the template went through Engine.Decorate.
func (h *Handle) Decorated() bool { return h.decorated }

// Element returns the template element.
func (h *Handle) Element() *html.Node { return h.element }

// Mode reads the template mode from the element attributes.
func (h *Handle) Mode() Mode { return modeOf(h.element) }

// SetMode rewrites the mode attributes. When the mode changed and the
// template is attached, the iterator is (re)started.
func (h *Handle) SetMode(mode Mode) error {
	if h.Mode() == mode {
		return nil
	}
	applyMode(h.element, mode)
	return h.maybeStart()
}

// Reference returns the template named by the `ref` attribute, if any.
func (h *Handle) Reference() (*html.Node, bool) {
	id, ok := content.Attr(h.element, AttrRef)
	if !ok || id == "" {
		return nil, false
	}
	target := content.ElementByID(h.engine.doc, id)
	return target, target != nil
}

// SetReference points the template at the template with the given id. The
// reference is only consulted while the snapshot has not been resolved.
func (h *Handle) SetReference(id string) error {
	if current, _ := content.Attr(h.element, AttrRef); current == id {
		return nil
	}
	if id == "" {
		content.RemoveAttr(h.element, AttrRef)
	} else {
		content.SetAttr(h.element, AttrRef, id)
	}
	return h.maybeStart()
}

// Snapshot resolves the template archetype, following `ref` lazily.
func (h *Handle) Snapshot() (*Snapshot, error) {
	return h.resolveSnapshot(make(map[*Handle]bool))
}

// Iterator returns the template's live iterator, creating an unstarted one
// on first use or after the previous one was destroyed.
func (h *Handle) Iterator() *Iterator {
	if h.iterator == nil {
		h.iterator = newIterator(h)
	}
	return h.iterator
}

func (h *Handle) maybeStart() error {
	if !h.engine.attached(h.element) {
		return nil
	}
	return h.Iterator().Start()
}
