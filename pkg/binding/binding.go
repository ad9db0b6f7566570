package binding

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-tplbind/pkg/model"
	"github.com/goliatone/go-tplbind/pkg/transform"
)

// Binding is the Handle implementation returned by Binder.
type Binding struct {
	binder     *Binder
	target     Target
	property   string
	expr       Expression
	transforms []transform.Transform
	onChange   ChangeFunc
	deferred   bool
	closed     bool
	value      any
	subs       []model.Subscription
}

var _ Handle = (*Binding)(nil)

// Property returns the bound property name.
func (bd *Binding) Property() string { return bd.property }

// Expression returns the raw expression text.
func (bd *Binding) Expression() string { return bd.expr.Raw }

// Value returns the last evaluated value.
func (bd *Binding) Value() any { return bd.value }

// Deferred reports whether pushes are suspended.
func (bd *Binding) Deferred() bool { return bd.deferred }

// Rebind points the binding at a new target. Values are not pushed; call
// Resume or Refresh to re-evaluate against the new target.
func (bd *Binding) Rebind(target Target) {
	if bd.closed || target == nil {
		return
	}
	bd.target = target
}

// Resume switches a deferred binding to synchronous mode and pushes its
// current value straight away.
func (bd *Binding) Resume() {
	if bd.closed {
		return
	}
	bd.deferred = false
	bd.update(true)
}

// Refresh re-resolves the expression, pushing only when the value changed.
func (bd *Binding) Refresh() {
	if bd.closed {
		return
	}
	bd.update(false)
}

// Set writes value back to the model through the placeholder's transform.
func (bd *Binding) Set(value any) error {
	if bd.closed {
		return ErrUnbound
	}
	ph, ok := bd.expr.Single()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotWritable, bd.expr.Raw)
	}
	full := model.Join(bd.target.Scope(), ph.Path)
	converted := bd.transforms[0].ToSource(value, full)
	if err := model.Set(bd.binder.root, full, converted); err != nil {
		bd.binder.logger.Warn("binding write failed",
			zap.String("path", full),
			zap.String("property", bd.property),
			zap.Error(err))
		return err
	}
	return nil
}

// Unbind stops observation and drops the change callback.
func (bd *Binding) Unbind() {
	if bd.closed {
		return
	}
	bd.closed = true
	bd.closeSubs()
	bd.onChange = nil
}

func (bd *Binding) handleMutation(model.Mutation) {
	if bd.closed {
		return
	}
	bd.update(false)
}

// update re-subscribes along the current paths and re-evaluates. force pushes
// even when the value is unchanged.
func (bd *Binding) update(force bool) {
	old := bd.value
	bd.subscribe()
	bd.value = bd.evaluate()
	if bd.deferred || bd.onChange == nil {
		return
	}
	if force || !model.Same(old, bd.value) {
		bd.onChange(bd.value, old)
	}
}

func (bd *Binding) evaluate() any {
	root := bd.binder.root
	scope := bd.target.Scope()

	if ph, ok := bd.expr.Single(); ok {
		full := model.Join(scope, ph.Path)
		value, _ := model.Resolve(root, full)
		return bd.transforms[0].ToTarget(value, full)
	}

	var sb strings.Builder
	slot := 0
	for _, p := range bd.expr.parts {
		if p.placeholder == nil {
			sb.WriteString(p.literal)
			continue
		}
		full := model.Join(scope, p.placeholder.Path)
		value, _ := model.Resolve(root, full)
		sb.WriteString(Format(bd.transforms[slot].ToTarget(value, full)))
		slot++
	}
	return sb.String()
}

func (bd *Binding) subscribe() {
	bd.closeSubs()
	root := bd.binder.root
	scope := bd.target.Scope()
	seen := make(map[any]struct{})

	for _, ph := range bd.expr.Placeholders() {
		full := model.Join(scope, ph.Path)
		containers := model.Trace(root, full)
		if leaf, ok := model.Resolve(root, full); ok && leaf != nil {
			containers = append(containers, leaf)
		}
		for _, container := range containers {
			if _, ok := container.(model.Observable); !ok {
				continue
			}
			if !reflect.TypeOf(container).Comparable() {
				continue
			}
			if _, dup := seen[container]; dup {
				continue
			}
			seen[container] = struct{}{}
			if sub, ok := bd.binder.observer.Observe(container, bd.handleMutation); ok {
				bd.subs = append(bd.subs, sub)
			}
		}
	}
}

func (bd *Binding) closeSubs() {
	for _, sub := range bd.subs {
		sub.Close()
	}
	bd.subs = nil
}

// Format renders a value as presentation text; nil becomes the empty string.
func Format(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(v)
	}
}
