package template

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/binding"
	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
)

type bindingState int

const (
	bindingDeferred bindingState = iota
	bindingLive
)

// propertyBinding is a binding that starts out attached to a phantom node and
// is promoted onto a real node when the instance is materialized.
type propertyBinding struct {
	property string
	handle   binding.Handle
	state    bindingState
	phantom  *phantomNode
	node     *html.Node
}

// phantomNode stands in for a content node that does not exist yet. It
// resolves scopes exactly as the real node will once materialized.
type phantomNode struct {
	parent           binding.Target
	modelScope       string
	hasModelScope    bool
	templateScope    string
	hasTemplateScope bool
	bindings         []*propertyBinding
	children         []phantomChild
}

type phantomChild struct {
	position int
	node     *phantomNode
}

// Scope implements binding.Target.
func (p *phantomNode) Scope() string {
	if p.hasTemplateScope {
		return model.Join(p.templateScope, p.modelScope)
	}
	base := ""
	if p.parent != nil {
		base = p.parent.Scope()
	}
	return model.Join(base, p.modelScope)
}

// phantomTree mirrors the described top-level nodes of one instance.
type phantomTree struct {
	roots []phantomChild
}

func (e *Engine) newPhantomTree(desc *Description, parent *html.Node, scope string) *phantomTree {
	tree := &phantomTree{}
	if desc == nil {
		return tree
	}
	parentTarget := nodeTarget{engine: e, node: parent}
	for _, child := range desc.Root().Children() {
		tree.roots = append(tree.roots, phantomChild{
			position: child.Position(),
			node:     e.newPhantom(child, parentTarget, scope, true),
		})
	}
	return tree
}

func (e *Engine) newPhantom(desc DescriptionNode, parent binding.Target, scope string, top bool) *phantomNode {
	p := &phantomNode{parent: parent}
	if top {
		p.templateScope = scope
		p.hasTemplateScope = true
	}
	if s, ok := desc.ModelScope(); ok {
		p.modelScope = s
		p.hasModelScope = true
	}
	for _, pb := range desc.Bindings() {
		if bound := e.bindDeferred(p, pb); bound != nil {
			p.bindings = append(p.bindings, bound)
		}
	}
	for _, child := range desc.Children() {
		p.children = append(p.children, phantomChild{
			position: child.Position(),
			node:     e.newPhantom(child, p, "", false),
		})
	}
	return p
}

func (e *Engine) bindDeferred(p *phantomNode, pb PropertyBinding) *propertyBinding {
	bound := &propertyBinding{property: pb.Property, state: bindingDeferred, phantom: p}
	handle, err := e.binder.Bind(p, pb.Property, pb.Expression, e.propertyChange(bound), true)
	if err != nil {
		e.logger.Warn("template binding skipped",
			zap.String("property", pb.Property),
			zap.String("expression", pb.Expression),
			zap.Error(err),
		)
		return nil
	}
	bound.handle = handle
	return bound
}

func (e *Engine) propertyChange(pb *propertyBinding) binding.ChangeFunc {
	return func(value, _ any) {
		if pb.state != bindingLive {
			return
		}
		e.applyProperty(pb.node, pb.property, value)
	}
}

// setScope moves every top-level phantom to scope.
func (t *phantomTree) setScope(scope string) {
	for _, root := range t.roots {
		root.node.templateScope = scope
		root.node.hasTemplateScope = true
	}
}

func (t *phantomTree) root(position int) *phantomNode {
	for _, root := range t.roots {
		if root.position == position {
			return root.node
		}
	}
	return nil
}

// release unbinds everything still attached to the tree.
func (t *phantomTree) release() {
	for _, root := range t.roots {
		root.node.release()
	}
	t.roots = nil
}

func (p *phantomNode) release() {
	for _, pb := range p.bindings {
		if pb.state == bindingDeferred {
			pb.handle.Unbind()
		}
	}
	p.bindings = nil
	for _, child := range p.children {
		child.node.release()
	}
	p.children = nil
}

// transfer promotes the phantom's bindings onto node and recurses into the
// described children by position. The template scope is set before any
// binding is promoted so that promoted bindings resolve against it.
func (e *Engine) transfer(node *html.Node, p *phantomNode) {
	if p == nil {
		return
	}
	if node == nil {
		p.release()
		return
	}
	if p.hasTemplateScope {
		e.setTemplateScope(node, p.templateScope)
	}
	for _, pb := range p.bindings {
		e.promote(pb, node)
	}
	p.bindings = nil
	for _, child := range p.children {
		e.transfer(content.ChildAt(node, child.position), child.node)
	}
	p.children = nil
}

func (e *Engine) promote(pb *propertyBinding, node *html.Node) {
	var target binding.Target = nodeTarget{engine: e, node: node}
	if pb.property == PropertyModelScope {
		target = outerTarget{engine: e, node: node}
	}
	pb.handle.Rebind(target)
	pb.phantom = nil
	pb.node = node
	pb.state = bindingLive
	e.state(node).bindings[pb.property] = pb
	pb.handle.Resume()
}

// applyProperty writes a bound value to a real node.
func (e *Engine) applyProperty(node *html.Node, property string, value any) {
	switch property {
	case PropertyTextContent:
		content.SetText(node, binding.Format(value))
	case PropertyModelScope:
		content.SetAttr(node, AttrModelScope, binding.Format(value))
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			e.refresh(child)
		}
	default:
		switch v := value.(type) {
		case nil:
			content.RemoveAttr(node, property)
		case bool:
			if v {
				content.SetAttr(node, property, "")
			} else {
				content.RemoveAttr(node, property)
			}
		default:
			content.SetAttr(node, property, binding.Format(value))
		}
	}
}
