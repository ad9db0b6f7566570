package template

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/binding"
	"github.com/goliatone/go-tplbind/pkg/model"
)

// IteratorState is the lifecycle state of an Iterator.
type IteratorState int

const (
	StateUninitialized IteratorState = iota
	StateWatchingScalar
	StateWatchingList
	StateDestroyed
)

func (s IteratorState) String() string {
	switch s {
	case StateWatchingScalar:
		return "watching-scalar"
	case StateWatchingList:
		return "watching-list"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Iterator keeps the instances of one template in step with the model value
// at the template's base path.
type Iterator struct {
	engine   *Engine
	handle   *Handle
	template *html.Node
	state    IteratorState

	first, last    *Instance
	pendingRemoval []*Instance

	source    binding.Handle
	valueSub  model.Subscription
	builtPath string
}

func newIterator(h *Handle) *Iterator {
	return &Iterator{engine: h.engine, handle: h, template: h.element}
}

// Template returns the template element.
func (it *Iterator) Template() *html.Node { return it.template }

// State reports the lifecycle state.
func (it *Iterator) State() IteratorState { return it.state }

// First returns the head of the instance list.
func (it *Iterator) First() *Instance { return it.first }

// Last returns the tail of the instance list.
func (it *Iterator) Last() *Instance { return it.last }

// Instances returns the live instances in order.
func (it *Iterator) Instances() []*Instance {
	var out []*Instance
	for inst := it.first; inst != nil; inst = inst.next {
		out = append(out, inst)
	}
	return out
}

// Len counts the live instances.
func (it *Iterator) Len() int {
	n := 0
	for inst := it.first; inst != nil; inst = inst.next {
		n++
	}
	return n
}

// Pending reports how many removed instances still await synchronization.
func (it *Iterator) Pending() int { return len(it.pendingRemoval) }

// Start subscribes to the model at the template's base path and builds the
// initial instances. Starting a started iterator rebuilds it.
func (it *Iterator) Start() error {
	if it.state == StateDestroyed {
		return ErrDestroyed
	}
	if !it.engine.attached(it.template) {
		return fmt.Errorf("template: start %s: %w", describe(it.template), ErrDetachedTemplate)
	}
	if _, err := it.handle.Snapshot(); err != nil {
		return fmt.Errorf("template: start %s: %w", describe(it.template), err)
	}

	it.stopWatching()
	mode := it.handle.Mode()
	source, err := it.engine.binder.Watch(nodeTarget{engine: it.engine, node: it.template}, mode.Path, it.handleNewModel)
	if err != nil {
		return fmt.Errorf("template: start %s: %w", describe(it.template), err)
	}
	it.source = source
	if mode.Kind == ModeIterate {
		it.state = StateWatchingList
	} else {
		it.state = StateWatchingScalar
	}

	it.engine.logger.Debug("template iterator started",
		describeNode(it.template),
		zap.Stringer("mode", mode),
	)
	it.modelChanged(source.Value(), nil, true)
	return nil
}

// Destroy stops watching the model and removes every instance. It is safe to
// call more than once.
func (it *Iterator) Destroy() {
	if it.state == StateDestroyed {
		return
	}
	it.stopWatching()
	it.state = StateDestroyed
	it.clear()
	if it.handle.iterator == it {
		it.handle.iterator = nil
	}
	it.engine.logger.Debug("template iterator destroyed", describeNode(it.template))
}

// LastManagedNode is the last content node this iterator is responsible
// for: the last node of the last instance, or the template itself.
func (it *Iterator) LastManagedNode() *html.Node {
	if it.last == nil {
		return it.template
	}
	return it.last.LastManagedNode()
}

func (it *Iterator) stopWatching() {
	if it.source != nil {
		it.source.Unbind()
		it.source = nil
	}
	if it.valueSub != nil {
		it.valueSub.Close()
		it.valueSub = nil
	}
}

func (it *Iterator) handleNewModel(value, old any) {
	it.modelChanged(value, old, false)
}

func (it *Iterator) modelChanged(value, old any, initial bool) {
	if it.valueSub != nil {
		it.valueSub.Close()
		it.valueSub = nil
	}

	switch it.handle.Mode().Kind {
	case ModeIterate:
		count, _ := model.Length(value)
		it.rebuild(count)
	case ModeInstantiate:
		if initial || (old == nil) != (value == nil) {
			it.rebuild(presence(value))
		}
	default:
		it.rebuild(presence(value))
	}

	if value != nil {
		if sub, ok := it.observe(value); ok {
			it.valueSub = sub
		}
	}
}

// observe subscribes to the iterated value ahead of ordinary bindings when the
// observer supports it, so instance scopes are renumbered before bindings
// under them re-evaluate.
func (it *Iterator) observe(value any) (model.Subscription, bool) {
	if structural, ok := it.engine.observer.(model.StructureObserver); ok {
		return structural.ObserveStructure(value, it.handleMutation)
	}
	return it.engine.observer.Observe(value, it.handleMutation)
}

func presence(value any) int {
	if value == nil {
		return 0
	}
	return 1
}

// rebuild discards every instance and creates count fresh ones.
func (it *Iterator) rebuild(count int) {
	it.clear()
	full := it.fullPath()
	for i := 0; i < count; i++ {
		it.addInstance(it.newInstance(it.instancePath(full, i)), nil)
	}
	it.builtPath = full
	it.synchronize()
}

func (it *Iterator) handleMutation(m model.Mutation) {
	if m.Kind != model.MutationSplice || it.handle.Mode().Kind != ModeIterate {
		return
	}
	it.splice(m.Index, len(m.Removed), len(m.Added))
}

// splice applies an array splice as list edits: removed instances are
// queued, new ones are inserted before the first survivor and, when the
// array length changed, every later instance is renumbered.
func (it *Iterator) splice(index, removed, added int) {
	start := index
	inst := it.instanceAt(index)
	for i := 0; i < removed && inst != nil; i++ {
		gone := inst
		inst = inst.next
		it.removeInstance(gone)
	}

	full := it.fullPath()
	for i := 0; i < added; i++ {
		it.addInstance(it.newInstance(model.Join(full, index)), inst)
		index++
	}
	if added != removed {
		for ; inst != nil; inst = inst.next {
			inst.setScope(model.Join(full, index))
			index++
		}
	}
	it.builtPath = full

	it.engine.logger.Debug("template splice applied",
		describeNode(it.template),
		zap.Int("index", start),
		zap.Int("removed", removed),
		zap.Int("added", added),
	)
	it.synchronize()
}

// scopeChanged re-evaluates the base path after an enclosing scope moved.
func (it *Iterator) scopeChanged() {
	if it.source == nil {
		return
	}
	it.source.Refresh()

	full := it.fullPath()
	if full == it.builtPath {
		return
	}
	i := 0
	for inst := it.first; inst != nil; inst = inst.next {
		inst.setScope(it.instancePath(full, i))
		i++
	}
	it.builtPath = full
	it.synchronize()
}

func (it *Iterator) fullPath() string {
	return model.Join(it.engine.Scope(it.template), it.handle.Mode().Path)
}

func (it *Iterator) instancePath(full string, i int) string {
	if it.handle.Mode().Kind == ModeIterate {
		return model.Join(full, i)
	}
	return full
}

func (it *Iterator) instanceAt(index int) *Instance {
	inst := it.first
	for i := 0; i < index && inst != nil; i++ {
		inst = inst.next
	}
	return inst
}

// addInstance links inst before the given instance, or at the tail when
// before is nil.
func (it *Iterator) addInstance(inst *Instance, before *Instance) {
	if before == nil {
		inst.previous = it.last
		if it.last != nil {
			it.last.next = inst
		} else {
			it.first = inst
		}
		it.last = inst
		return
	}
	inst.next = before
	inst.previous = before.previous
	if before.previous != nil {
		before.previous.next = inst
	} else {
		it.first = inst
	}
	before.previous = inst
}

// removeInstance unlinks inst and queues its content for removal.
func (it *Iterator) removeInstance(inst *Instance) {
	if inst.previous != nil {
		inst.previous.next = inst.next
	} else {
		it.first = inst.next
	}
	if inst.next != nil {
		inst.next.previous = inst.previous
	} else {
		it.last = inst.previous
	}
	inst.previous, inst.next = nil, nil
	inst.markedForRemoval = true
	it.pendingRemoval = append(it.pendingRemoval, inst)
}

func (it *Iterator) clear() {
	for inst := it.first; inst != nil; {
		next := inst.next
		it.removeInstance(inst)
		inst = next
	}
	it.synchronize()
}

// synchronize materializes and rescopes live instances head to tail, then
// tears down the removal queue.
func (it *Iterator) synchronize() {
	for inst := it.first; inst != nil; inst = inst.next {
		if err := inst.sync(); err != nil {
			it.engine.logger.Error("template instance sync failed",
				describeNode(it.template),
				zap.String("instance", inst.id),
				zap.Error(err),
			)
		}
	}
	pending := it.pendingRemoval
	it.pendingRemoval = nil
	for _, inst := range pending {
		inst.teardown()
	}
}
