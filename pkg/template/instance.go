package template

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
)

// Instance is one materialization of a template. Until it is synchronized it
// only exists as a phantom tree of deferred bindings.
type Instance struct {
	id       string
	iterator *Iterator
	scope    string

	previous, next *Instance

	nodes   []*html.Node
	phantom *phantomTree

	domCreated       bool
	scopeDirty       bool
	markedForRemoval bool
}

func (it *Iterator) newInstance(scope string) *Instance {
	inst := &Instance{
		id:       uuid.NewString(),
		iterator: it,
		scope:    scope,
	}
	var desc *Description
	if it.handle.snapshot != nil {
		desc = it.handle.snapshot.description
	}
	inst.phantom = it.engine.newPhantomTree(desc, it.template.Parent, scope)
	return inst
}

// ID is a unique identifier, fresh for every instance ever created.
func (inst *Instance) ID() string { return inst.id }

// Scope is the model path the instance's top-level nodes resolve against.
func (inst *Instance) Scope() string { return inst.scope }

// Next returns the following live instance.
func (inst *Instance) Next() *Instance { return inst.next }

// Previous returns the preceding live instance.
func (inst *Instance) Previous() *Instance { return inst.previous }

// Nodes returns the top-level content nodes, empty until materialized.
func (inst *Instance) Nodes() []*html.Node {
	return append([]*html.Node(nil), inst.nodes...)
}

// Materialized reports whether the instance's nodes were created.
func (inst *Instance) Materialized() bool { return inst.domCreated }

// ScopeDirty reports a scope change that has not been applied yet.
func (inst *Instance) ScopeDirty() bool { return inst.scopeDirty }

// MarkedForRemoval reports whether the instance was removed from its
// iterator and waits for teardown.
func (inst *Instance) MarkedForRemoval() bool { return inst.markedForRemoval }

// LastManagedNode is the last content node belonging to this instance,
// following into a trailing nested template's instances. Instances without
// nodes defer to their predecessor, or to the template.
func (inst *Instance) LastManagedNode() *html.Node {
	if len(inst.nodes) == 0 {
		if inst.previous != nil {
			return inst.previous.LastManagedNode()
		}
		return inst.iterator.template
	}
	last := inst.nodes[len(inst.nodes)-1]
	if h, ok := inst.iterator.engine.handles[last]; ok && h.iterator != nil {
		return h.iterator.LastManagedNode()
	}
	return last
}

func (inst *Instance) setScope(scope string) {
	inst.scope = scope
	inst.scopeDirty = true
	if inst.phantom != nil {
		inst.phantom.setScope(scope)
	}
}

func (inst *Instance) sync() error {
	if inst.markedForRemoval {
		inst.teardown()
		return nil
	}
	if !inst.domCreated {
		return inst.materialize()
	}
	if inst.scopeDirty {
		inst.updateScope()
	}
	return nil
}

// materialize clones the archetype after the previous instance, assigns the
// template scope, moves phantom bindings onto the clones and starts nested
// templates.
func (inst *Instance) materialize() error {
	it := inst.iterator
	e := it.engine
	parent := it.template.Parent
	if parent == nil {
		return fmt.Errorf("template: materialize %s: %w", describe(it.template), ErrDetachedTemplate)
	}
	snap, err := it.handle.Snapshot()
	if err != nil {
		return fmt.Errorf("template: materialize %s: %w", describe(it.template), err)
	}

	after := it.template
	if inst.previous != nil {
		after = inst.previous.LastManagedNode()
	}
	ref := after.NextSibling

	for pos, node := range e.instantiate(snap) {
		parent.InsertBefore(node, ref)
		e.setTemplateScope(node, inst.scope)
		e.transfer(node, inst.phantom.root(pos))
		inst.nodes = append(inst.nodes, node)
	}
	inst.phantom.release()
	inst.phantom = nil
	inst.domCreated = true
	inst.scopeDirty = false

	for _, node := range inst.nodes {
		for _, nested := range content.TopLevelTemplates(node) {
			if err := e.handle(nested).Iterator().Start(); err != nil {
				e.logger.Error("nested template start failed",
					describeNode(nested),
					zap.String("instance", inst.id),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// updateScope applies a pending scope change to materialized nodes.
func (inst *Instance) updateScope() {
	e := inst.iterator.engine
	for _, node := range inst.nodes {
		e.setTemplateScope(node, inst.scope)
	}
	for _, node := range inst.nodes {
		e.refresh(node)
	}
	inst.scopeDirty = false
}

// teardown destroys nested iterators, removes bindings and detaches the
// instance's nodes.
func (inst *Instance) teardown() {
	e := inst.iterator.engine
	if inst.phantom != nil {
		inst.phantom.release()
		inst.phantom = nil
	}
	for _, node := range inst.nodes {
		e.release(node)
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
	inst.nodes = nil
}
