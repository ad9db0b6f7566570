package template

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/binding"
	"github.com/goliatone/go-tplbind/pkg/content"
)

// Property names with special handling.
const (
	PropertyTextContent = "textContent"
	PropertyModelScope  = "modelScope"
)

// PropertyBinding names a property and the raw expression bound to it.
type PropertyBinding struct {
	Property   string
	Expression string
}

type descNode struct {
	position   int
	bindings   []PropertyBinding
	modelScope string
	hasScope   bool
	template   bool
	children   []int
}

// Description records which positions of a content fragment carry bindings,
// nested templates or model scopes. Nodes live in a flat arena and reference
// their children by index; the zero index is the root. A Description is
// immutable once built and may be shared across every instance of a template.
type Description struct {
	nodes []descNode
}

// DescriptionNode is a read-only view of one node of a Description.
type DescriptionNode struct {
	d   *Description
	idx int
}

// BuildDescription describes node and its subtree. It returns nil when
// nothing under node is bound, scoped or a template.
func BuildDescription(node *html.Node) *Description {
	if node == nil {
		return nil
	}
	b := &describer{}
	if _, ok := b.describe(node, 0); !ok {
		return nil
	}
	return &Description{nodes: b.nodes}
}

// BuildContentDescription describes a sequence of sibling nodes, such as the
// content of a template. The root is synthetic; its children are keyed by the
// position of each node in the sequence.
func BuildContentDescription(nodes []*html.Node) *Description {
	b := &describer{nodes: []descNode{{position: -1}}}
	var children []int
	for pos, node := range nodes {
		if idx, ok := b.describe(node, pos); ok {
			children = append(children, idx)
		}
	}
	if len(children) == 0 {
		return nil
	}
	b.nodes[0].children = children
	return &Description{nodes: b.nodes}
}

type describer struct {
	nodes []descNode
}

func (b *describer) describe(node *html.Node, position int) (int, bool) {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, descNode{position: position})

	entry := descNode{position: position, template: content.IsTemplate(node)}
	switch node.Type {
	case html.ElementNode:
		for _, attr := range node.Attr {
			name := content.AttrName(attr)
			switch {
			case binding.HasPlaceholder(attr.Val):
				entry.bindings = append(entry.bindings, PropertyBinding{
					Property:   propertyName(name),
					Expression: attr.Val,
				})
			case name == AttrModelScope:
				entry.modelScope = attr.Val
				entry.hasScope = true
			}
		}
	case html.TextNode:
		if binding.HasPlaceholder(node.Data) {
			entry.bindings = append(entry.bindings, PropertyBinding{
				Property:   PropertyTextContent,
				Expression: node.Data,
			})
		}
	}

	// template content belongs to the nested template's own snapshot
	if !entry.template {
		pos := 0
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if childIdx, ok := b.describe(child, pos); ok {
				entry.children = append(entry.children, childIdx)
			}
			pos++
		}
	}

	if len(entry.bindings) == 0 && len(entry.children) == 0 && !entry.template {
		b.nodes = b.nodes[:idx]
		return -1, false
	}
	sort.SliceStable(entry.bindings, func(i, j int) bool {
		return entry.bindings[i].Property < entry.bindings[j].Property
	})
	b.nodes[idx] = entry
	return idx, true
}

func propertyName(attr string) string {
	if attr == AttrModelScope {
		return PropertyModelScope
	}
	return attr
}

// Root returns the root node view.
func (d *Description) Root() DescriptionNode {
	return DescriptionNode{d: d, idx: 0}
}

// Len reports the number of described nodes, root included.
func (d *Description) Len() int {
	if d == nil {
		return 0
	}
	return len(d.nodes)
}

// BindingCount totals the property bindings across the description.
func (d *Description) BindingCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, node := range d.nodes {
		total += len(node.bindings)
	}
	return total
}

// TemplateCount totals the nested template markers.
func (d *Description) TemplateCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, node := range d.nodes {
		if node.template {
			total++
		}
	}
	return total
}

func (n DescriptionNode) node() descNode { return n.d.nodes[n.idx] }

// Position is the node's index among its siblings, -1 for a synthetic root.
func (n DescriptionNode) Position() int { return n.node().position }

// Bindings returns the node's property bindings sorted by property name.
func (n DescriptionNode) Bindings() []PropertyBinding {
	return append([]PropertyBinding(nil), n.node().bindings...)
}

// ModelScope returns the static scope override declared on the node.
func (n DescriptionNode) ModelScope() (string, bool) {
	node := n.node()
	return node.modelScope, node.hasScope
}

// IsTemplate reports whether the node is a nested template.
func (n DescriptionNode) IsTemplate() bool { return n.node().template }

// Children returns the described children in position order.
func (n DescriptionNode) Children() []DescriptionNode {
	node := n.node()
	out := make([]DescriptionNode, 0, len(node.children))
	for _, idx := range node.children {
		out = append(out, DescriptionNode{d: n.d, idx: idx})
	}
	return out
}

// Child returns the described child at position.
func (n DescriptionNode) Child(position int) (DescriptionNode, bool) {
	for _, child := range n.Children() {
		if child.Position() == position {
			return child, true
		}
	}
	return DescriptionNode{}, false
}
