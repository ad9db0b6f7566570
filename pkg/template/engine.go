package template

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/binding"
	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
	"github.com/goliatone/go-tplbind/pkg/transform"
)

// Binder creates property bindings and path watches. *binding.Binder
// satisfies it.
type Binder interface {
	Bind(target binding.Target, property, expr string, onChange binding.ChangeFunc, deferred bool) (binding.Handle, error)
	Watch(target binding.Target, path string, onChange binding.ChangeFunc) (binding.Handle, error)
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver swaps how model values are observed.
func WithObserver(observer model.Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// WithTransforms sets the transform registry used by the default binder.
func WithTransforms(registry *transform.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.transforms = registry
		}
	}
}

// WithBinder replaces the default binder. When set, WithObserver only
// affects how iterators observe arrays.
func WithBinder(b Binder) Option {
	return func(e *Engine) {
		if b != nil {
			e.binder = b
		}
	}
}

type nodeState struct {
	templateScope    string
	hasTemplateScope bool
	bindings         map[string]*propertyBinding
}

// Engine owns a document together with every piece of state the template
// machinery associates with its nodes.
type Engine struct {
	doc        *html.Node
	root       any
	binder     Binder
	observer   model.Observer
	transforms *transform.Registry
	logger     *zap.Logger

	handles map[*html.Node]*Handle
	states  map[*html.Node]*nodeState
}

// New creates an engine for doc whose bindings resolve against root.
func New(doc *html.Node, root any, options ...Option) *Engine {
	e := &Engine{
		doc:      doc,
		root:     root,
		observer: model.DefaultObserver{},
		logger:   zap.NewNop(),
		handles:  make(map[*html.Node]*Handle),
		states:   make(map[*html.Node]*nodeState),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.transforms == nil {
		e.transforms = transform.NewRegistry()
	}
	if e.binder == nil {
		e.binder = binding.New(root,
			binding.WithObserver(e.observer),
			binding.WithTransforms(e.transforms),
			binding.WithLogger(e.logger),
		)
	}
	return e
}

// Document returns the managed document.
func (e *Engine) Document() *html.Node { return e.doc }

// Root returns the model root.
func (e *Engine) Root() any { return e.root }

// Decorate registers el as a template and starts its iterator when el is
// attached to the document. Decorating an element twice is a no-op.
func (e *Engine) Decorate(el *html.Node) (*Handle, error) {
	if !content.IsTemplate(el) {
		return nil, ErrNotTemplate
	}
	h := e.handle(el)
	if h.decorated {
		return h, nil
	}
	h.decorated = true
	if e.attached(el) {
		if err := h.Iterator().Start(); err != nil {
			return h, err
		}
	}
	return h, nil
}

// DecorateAll decorates every top-level template of the document.
func (e *Engine) DecorateAll() error {
	var errs []error
	for _, el := range content.TopLevelTemplates(e.doc) {
		if _, err := e.Decorate(el); err != nil {
			errs = append(errs, fmt.Errorf("template: decorate %s: %w", describe(el), err))
		}
	}
	return errors.Join(errs...)
}

// Handle returns the handle registered for el.
func (e *Engine) Handle(el *html.Node) (*Handle, bool) {
	h, ok := e.handles[el]
	return h, ok
}

// Iterator returns the iterator of template el, creating it without
// starting it.
func (e *Engine) Iterator(el *html.Node) (*Iterator, error) {
	if !content.IsTemplate(el) {
		return nil, ErrNotTemplate
	}
	return e.handle(el).Iterator(), nil
}

// Scope returns the model path node's bindings resolve against: the nearest
// template scope (or the root) joined with every `modelscope` on the way.
func (e *Engine) Scope(node *html.Node) string {
	if node == nil {
		return ""
	}
	own := ""
	if node.Type == html.ElementNode {
		own, _ = content.Attr(node, AttrModelScope)
	}
	if st, ok := e.states[node]; ok && st.hasTemplateScope {
		return model.Join(st.templateScope, own)
	}
	return model.Join(e.Scope(node.Parent), own)
}

// outerScope is the scope of node without its own `modelscope`, which is
// what a bound `modelscope` resolves against.
func (e *Engine) outerScope(node *html.Node) string {
	if st, ok := e.states[node]; ok && st.hasTemplateScope {
		return st.templateScope
	}
	return e.Scope(node.Parent)
}

// TemplateScope returns the template scope assigned to node, if any.
func (e *Engine) TemplateScope(node *html.Node) (string, bool) {
	st, ok := e.states[node]
	if !ok || !st.hasTemplateScope {
		return "", false
	}
	return st.templateScope, true
}

// Bindings lists the properties with a live binding on node.
func (e *Engine) Bindings(node *html.Node) []string {
	st, ok := e.states[node]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(st.bindings))
	for property := range st.bindings {
		out = append(out, property)
	}
	sort.Strings(out)
	return out
}

// SetProperty writes value back to the model through the binding of
// property on node.
func (e *Engine) SetProperty(node *html.Node, property string, value any) error {
	st, ok := e.states[node]
	if !ok {
		return fmt.Errorf("template: set %s: %w", property, ErrUnboundProperty)
	}
	pb, ok := st.bindings[property]
	if !ok {
		return fmt.Errorf("template: set %s: %w", property, ErrUnboundProperty)
	}
	if err := pb.handle.Set(value); err != nil {
		return fmt.Errorf("template: set %s: %w", property, err)
	}
	return nil
}

// Close destroys every iterator of the document's top-level templates.
func (e *Engine) Close() {
	templates := content.TopLevelTemplates(e.doc)
	for i := len(templates) - 1; i >= 0; i-- {
		if h, ok := e.handles[templates[i]]; ok && h.iterator != nil {
			h.iterator.Destroy()
		}
	}
}

func (e *Engine) attached(node *html.Node) bool {
	return content.Contains(e.doc, node)
}

func (e *Engine) handle(el *html.Node) *Handle {
	if h, ok := e.handles[el]; ok {
		return h
	}
	h := &Handle{engine: e, element: el}
	e.handles[el] = h
	return h
}

func (e *Engine) state(node *html.Node) *nodeState {
	st, ok := e.states[node]
	if !ok {
		st = &nodeState{bindings: make(map[string]*propertyBinding)}
		e.states[node] = st
	}
	return st
}

func (e *Engine) setTemplateScope(node *html.Node, scope string) {
	st := e.state(node)
	st.templateScope = scope
	st.hasTemplateScope = true
}

// refresh re-evaluates the live bindings in node's subtree and tells nested
// iterators that their enclosing scope may have moved.
func (e *Engine) refresh(node *html.Node) {
	if st, ok := e.states[node]; ok {
		for _, property := range sortedProperties(st.bindings) {
			st.bindings[property].handle.Refresh()
		}
	}
	if h, ok := e.handles[node]; ok && h.iterator != nil {
		h.iterator.scopeChanged()
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.refresh(child)
	}
}

// release unbinds and forgets every binding and template handle in node's
// subtree. Nested iterators are destroyed deepest first.
func (e *Engine) release(node *html.Node) {
	templates := content.AllTemplates(node)
	for i := len(templates) - 1; i >= 0; i-- {
		if h, ok := e.handles[templates[i]]; ok {
			if h.iterator != nil {
				h.iterator.Destroy()
			}
			delete(e.handles, templates[i])
		}
	}
	e.unbind(node)
}

func (e *Engine) unbind(node *html.Node) {
	if st, ok := e.states[node]; ok {
		for _, property := range sortedProperties(st.bindings) {
			st.bindings[property].handle.Unbind()
		}
		delete(e.states, node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.unbind(child)
	}
}

func sortedProperties(bindings map[string]*propertyBinding) []string {
	out := make([]string, 0, len(bindings))
	for property := range bindings {
		out = append(out, property)
	}
	sort.Strings(out)
	return out
}

// nodeTarget adapts a content node to binding.Target.
type nodeTarget struct {
	engine *Engine
	node   *html.Node
}

func (t nodeTarget) Scope() string { return t.engine.Scope(t.node) }

type outerTarget struct {
	engine *Engine
	node   *html.Node
}

func (t outerTarget) Scope() string { return t.engine.outerScope(t.node) }

func describe(node *html.Node) string {
	if node == nil {
		return "<nil>"
	}
	if id, ok := content.Attr(node, "id"); ok && id != "" {
		return fmt.Sprintf("<%s#%s>", node.Data, id)
	}
	return fmt.Sprintf("<%s>", node.Data)
}

func describeNode(node *html.Node) zap.Field {
	return zap.String("template", describe(node))
}
