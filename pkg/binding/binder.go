package binding

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-tplbind/pkg/model"
	"github.com/goliatone/go-tplbind/pkg/transform"
)

var (
	// ErrNotWritable is returned by Set on bindings that mix literals or several
	// placeholders, since there is no single model path to write to.
	ErrNotWritable = errors.New("binding: expression is not writable")
	// ErrUnbound is returned when using a binding after Unbind.
	ErrUnbound = errors.New("binding: binding was unbound")
)

// Target is anything a binding can be attached to. Scope reports the model
// path the target's placeholders resolve against.
type Target interface {
	Scope() string
}

// ChangeFunc receives the new value and the previous one.
type ChangeFunc func(value, old any)

// Handle is the live binding returned by a Binder.
type Handle interface {
	Property() string
	Expression() string
	Value() any
	Deferred() bool
	Rebind(target Target)
	Resume()
	Refresh()
	Set(value any) error
	Unbind()
}

// Option customises a Binder.
type Option func(*Binder)

// WithObserver swaps the model observation strategy.
func WithObserver(observer model.Observer) Option {
	return func(b *Binder) {
		if observer != nil {
			b.observer = observer
		}
	}
}

// WithTransforms injects the transform registry placeholders look up.
func WithTransforms(registry *transform.Registry) Option {
	return func(b *Binder) {
		if registry != nil {
			b.transforms = registry
		}
	}
}

// WithLogger sets the binder logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Binder resolves placeholder expressions against a model root and keeps
// bindings current as the model mutates.
type Binder struct {
	root       any
	observer   model.Observer
	transforms *transform.Registry
	logger     *zap.Logger
}

// New constructs a Binder over root. Missing collaborators default to
// model.DefaultObserver, the built-in transform registry and a no-op logger.
func New(root any, options ...Option) *Binder {
	b := &Binder{root: root}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	if b.observer == nil {
		b.observer = model.DefaultObserver{}
	}
	if b.transforms == nil {
		b.transforms = transform.NewRegistry()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Root returns the model root.
func (b *Binder) Root() any {
	return b.root
}

// Bind attaches expr to target's property. A deferred binding resolves and
// tracks its value but stays silent until Resume; otherwise the current value
// is pushed to onChange immediately.
func (b *Binder) Bind(target Target, property, expr string, onChange ChangeFunc, deferred bool) (Handle, error) {
	if target == nil {
		return nil, fmt.Errorf("binding: target is required")
	}
	parsed, err := ParseExpression(expr)
	if err != nil {
		return nil, err
	}
	placeholders := parsed.Placeholders()
	if len(placeholders) == 0 {
		return nil, fmt.Errorf("binding: %q has no placeholder", expr)
	}

	bd, err := b.newBinding(target, property, parsed, onChange, deferred)
	if err != nil {
		return nil, err
	}
	bd.update(!deferred)
	return bd, nil
}

// Watch follows the raw value at path relative to target's scope. Unlike Bind
// it never pushes on creation; callers seed their state from Value().
func (b *Binder) Watch(target Target, path string, onChange ChangeFunc) (Handle, error) {
	if target == nil {
		return nil, fmt.Errorf("binding: target is required")
	}
	parsed := Expression{
		Raw:   "{{ " + path + " }}",
		parts: []part{{placeholder: &Placeholder{Path: path}}},
	}
	bd, err := b.newBinding(target, "", parsed, nil, false)
	if err != nil {
		return nil, err
	}
	bd.update(false)
	bd.onChange = onChange
	return bd, nil
}

func (b *Binder) newBinding(target Target, property string, expr Expression, onChange ChangeFunc, deferred bool) (*Binding, error) {
	placeholders := expr.Placeholders()
	transforms := make([]transform.Transform, len(placeholders))
	for idx, ph := range placeholders {
		tr, err := b.transforms.Get(ph.Transform, ph.Arg)
		if err != nil {
			return nil, fmt.Errorf("binding: %q: %w", expr.Raw, err)
		}
		transforms[idx] = tr
	}
	return &Binding{
		binder:     b,
		target:     target,
		property:   property,
		expr:       expr,
		transforms: transforms,
		onChange:   onChange,
		deferred:   deferred,
	}, nil
}
