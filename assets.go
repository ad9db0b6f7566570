package tplbind

import (
	"embed"
	"io/fs"
)

// DefaultLayoutName is the embedded page layout used by the CLI when
// `-layout default` is given.
const DefaultLayoutName = "page.html"

//go:embed layouts/*.html
var embeddedLayouts embed.FS

// LayoutsFS exposes the built-in pongo2 page layouts.
func LayoutsFS() fs.FS {
	sub, err := fs.Sub(embeddedLayouts, "layouts")
	if err != nil {
		return embeddedLayouts
	}
	return sub
}

// DefaultLayout returns the source of the built-in page layout.
func DefaultLayout() string {
	data, err := fs.ReadFile(LayoutsFS(), DefaultLayoutName)
	if err != nil {
		return "{{ content|safe }}"
	}
	return string(data)
}
