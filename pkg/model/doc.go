// Package model provides the observable data model templates are bound to.
// Map and List deliver Mutation records synchronously to their observers
// within the turn that changed them; there is no buffering or goroutine
// hand-off. Paths are dot-separated (`items.0.name`) and are resolved against
// Map, List and plain Go maps/slices alike. Documents decode from JSON or YAML
// into Map/List trees so they can be observed.
package model
