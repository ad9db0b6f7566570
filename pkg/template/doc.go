// Package template is the template instantiation and incremental
// synchronization engine.
//
// A template element's content is extracted once into a Snapshot: a detached
// archetype plus an immutable Description of which node positions carry
// placeholder bindings. Each TemplateIterator turns the model value at its
// base path into an ordered, doubly linked list of Instances (zero or one for
// `instantiate`, one per array element for `iterate`). Instances bind against
// a phantom tree first and move those bindings onto real nodes when they are
// materialized. Array splices become list edits that are applied to the
// content tree in a single synchronization pass.
//
// State that the engine associates with nodes (template handles, template
// scopes and live bindings) lives in side tables owned by the Engine, keyed by
// node identity.
package template
