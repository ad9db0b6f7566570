// Package binding implements the property-binding collaborator: placeholder
// expressions such as `Hello {{ user.name }}` are resolved against a model
// root relative to the scope of their target, and re-evaluated whenever an
// observable container along the resolved path mutates.
//
// Bindings start either synchronous (values are pushed to the change callback
// as soon as they change) or deferred (values are tracked silently until
// Resume). Deferred bindings let callers create bindings against placeholder
// targets before the real target exists, then Rebind and Resume once it does.
package binding
