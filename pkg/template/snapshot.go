package template

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
)

// Snapshot is the extracted archetype of a template: its content moved into
// a detached container together with the binding description of that
// content. Templates that reference another template through `ref` share the
// referenced Snapshot.
type Snapshot struct {
	content     *html.Node
	description *Description
}

// Content returns the detached container holding the archetype nodes.
func (s *Snapshot) Content() *html.Node { return s.content }

// Description returns the binding description, nil when the content has no
// bindings or nested templates.
func (s *Snapshot) Description() *Description { return s.description }

// Nodes returns the archetype's top-level nodes.
func (s *Snapshot) Nodes() []*html.Node { return content.Children(s.content) }

// resolveSnapshot returns the handle's snapshot, following `ref` attributes
// lazily and extracting the template's own content otherwise.
func (h *Handle) resolveSnapshot(visiting map[*Handle]bool) (*Snapshot, error) {
	if h.snapshot != nil {
		return h.snapshot, nil
	}
	if id, ok := content.Attr(h.element, AttrRef); ok && id != "" {
		if visiting[h] {
			return nil, fmt.Errorf("template: ref %q: %w", id, ErrReferenceCycle)
		}
		visiting[h] = true

		target := content.ElementByID(h.engine.doc, id)
		if target == h.element {
			return nil, fmt.Errorf("template: ref %q: %w", id, ErrReferenceCycle)
		}
		if !content.IsTemplate(target) {
			return nil, fmt.Errorf("template: ref %q: %w", id, ErrUnresolvedReference)
		}
		snap, err := h.engine.handle(target).resolveSnapshot(visiting)
		if err != nil {
			return nil, err
		}
		h.snapshot = snap
		return snap, nil
	}
	return h.engine.extract(h)
}

// extract moves the template's children into a fresh Snapshot. Nested
// templates found in the moved content are decorated and, unless they point
// elsewhere through `ref`, extracted as well.
func (e *Engine) extract(h *Handle) (*Snapshot, error) {
	container := &html.Node{Type: html.DocumentNode}
	var moved []*html.Node
	for h.element.FirstChild != nil {
		child := h.element.FirstChild
		h.element.RemoveChild(child)
		container.AppendChild(child)
		moved = append(moved, child)
	}

	snap := &Snapshot{content: container, description: BuildContentDescription(moved)}
	h.snapshot = snap

	for _, node := range moved {
		for _, nested := range content.TopLevelTemplates(node) {
			nh := e.handle(nested)
			if nh.snapshot != nil {
				continue
			}
			if ref, ok := content.Attr(nested, AttrRef); ok && ref != "" {
				continue
			}
			if _, err := e.extract(nh); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Debug("template content extracted",
		describeNode(h.element),
		zap.Int("bindings", snap.description.BindingCount()),
		zap.Int("templates", snap.description.TemplateCount()),
	)
	return snap, nil
}

// instantiate deep-copies the archetype. Every nested template in the copy
// gets a handle that borrows the snapshot of the template it was cloned from.
func (e *Engine) instantiate(snap *Snapshot) []*html.Node {
	var out []*html.Node
	for child := snap.content.FirstChild; child != nil; child = child.NextSibling {
		clone := content.Clone(child, func(original, clone *html.Node) {
			if !content.IsTemplate(original) {
				return
			}
			adopted := &Handle{engine: e, element: clone}
			if from, ok := e.handles[original]; ok {
				adopted.snapshot = from.snapshot
			}
			e.handles[clone] = adopted
		})
		out = append(out, clone)
	}
	return out
}
