package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tplbind"
)

// DefaultLayout names the embedded layout on the command line.
const DefaultLayout = "default"

// Layout wraps rendered body markup in a page template. The body is exposed
// as `content`; layouts must mark it `|safe` to avoid escaping.
type Layout struct {
	tpl *pongo2.Template
}

// ParseLayout compiles a pongo2 layout from source.
func ParseLayout(source string) (*Layout, error) {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("cli: parse layout: %w", err)
	}
	return &Layout{tpl: tpl}, nil
}

// LoadLayout reads and compiles a layout file. The name "default" selects
// the built-in page layout.
func LoadLayout(path string) (*Layout, error) {
	if path == DefaultLayout {
		return ParseLayout(tplbind.DefaultLayout())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read layout: %w", err)
	}
	return ParseLayout(string(data))
}

// Wrap renders the layout around body. model is exposed as `model` so layouts
// can read page-level values such as a title.
func (l *Layout) Wrap(body string, model any) (string, error) {
	if l == nil {
		return body, nil
	}
	var buf bytes.Buffer
	ctx := pongo2.Context{
		"content": body,
		"model":   model,
	}
	if err := l.tpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("cli: execute layout: %w", err)
	}
	return buf.String(), nil
}
