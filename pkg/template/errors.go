package template

import "errors"

var (
	// ErrDetachedTemplate is returned when starting an iterator for a template
	// that is not attached to the engine's document.
	ErrDetachedTemplate = errors.New("template: template is not attached to the document")
	// ErrNotTemplate is returned when decorating a node that is not a template
	// element.
	ErrNotTemplate = errors.New("template: node is not a template element")
	// ErrUnresolvedReference is returned when a `ref` attribute does not name
	// a template in the document.
	ErrUnresolvedReference = errors.New("template: unresolved template reference")
	// ErrReferenceCycle is returned when `ref` attributes loop back.
	ErrReferenceCycle = errors.New("template: template reference cycle")
	// ErrDestroyed is returned when using an iterator after Destroy.
	ErrDestroyed = errors.New("template: iterator was destroyed")
	// ErrUnboundProperty is returned by SetProperty for properties without a
	// live binding.
	ErrUnboundProperty = errors.New("template: property is not bound")
)
