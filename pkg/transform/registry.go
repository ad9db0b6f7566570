package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknown is returned when a transform name is not registered.
var ErrUnknown = errors.New("transform: unknown transform")

// Transform coerces values between the model and presentation sides of a
// binding. sourceName is the model path the binding resolved.
type Transform interface {
	ToTarget(source any, sourceName string) any
	ToSource(target any, sourceName string) any
}

// Factory builds a Transform; arg carries the optional `name:arg` suffix.
type Factory func(arg string) Transform

// Registry stores transform factories by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry holding the built-in transforms.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[string]Factory)}
	reg.registerBuiltins()
	return reg
}

// Register adds a factory. Duplicate and empty names return an error.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("transform: factory is required")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("transform: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[trimmed]; exists {
		return fmt.Errorf("transform: %q already registered", trimmed)
	}
	r.factories[trimmed] = factory
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get instantiates the named transform. An empty name yields Identity.
func (r *Registry) Get(name, arg string) (Transform, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Identity{}, nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknown, trimmed)
	}

	r.mu.RLock()
	factory, ok := r.factories[trimmed]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, trimmed)
	}
	return factory(arg), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	trimmed := strings.TrimSpace(name)
	if r == nil || trimmed == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[trimmed]
	return ok
}

// List returns the sorted registered names.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) registerBuiltins() {
	r.MustRegister(NameIdentity, func(string) Transform { return Identity{} })
	r.MustRegister(NameToggle, func(arg string) Transform { return Toggle{Value: arg} })
	r.MustRegister(NameCurrency, func(string) Transform { return Currency{} })
	r.MustRegister(NameNumber, func(string) Transform { return Number{} })
	r.MustRegister(NameAbsent, func(string) Transform { return Absent{} })
	r.MustRegister(NamePresent, func(string) Transform { return Present{} })
	r.MustRegister(NameSanitize, func(string) Transform { return Sanitize{} })
}
