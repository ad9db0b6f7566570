// Package transform holds the value-transform registry used by placeholder
// bindings. A placeholder such as `{{ price | currency }}` or
// `{{ done | toggle:checked }}` names a registered factory; the factory
// receives the text after the colon and returns a Transform that converts
// model values for presentation (ToTarget) and back (ToSource).
package transform
