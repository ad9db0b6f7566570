// Package tplbind renders HTML documents whose <template> elements are bound
// to an observable model and keeps the rendered instances in sync as the
// model changes.
package tplbind

import (
	"fmt"
	"io/fs"

	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
	"github.com/goliatone/go-tplbind/pkg/template"
)

// Engine aliases template.Engine for callers that only import the root
// package.
type Engine = template.Engine

// Option aliases template.Option.
type Option = template.Option

// WithLogger, WithObserver and WithTransforms re-export the engine options.
var (
	WithLogger     = template.WithLogger
	WithObserver   = template.WithObserver
	WithTransforms = template.WithTransforms
)

// New creates an engine for doc, decorates every template in it and starts
// the attached ones. root is converted with model.FromValue so plain maps
// and slices become observable.
func New(doc *html.Node, root any, options ...Option) (*Engine, error) {
	if doc == nil {
		return nil, fmt.Errorf("tplbind: document is required")
	}
	engine := template.New(doc, model.FromValue(root), options...)
	if err := engine.DecorateAll(); err != nil {
		engine.Close()
		return nil, fmt.Errorf("tplbind: decorate: %w", err)
	}
	return engine, nil
}

// Render parses markup, binds it to data and returns the rendered body. It is
// the simplest entry point for one-shot rendering.
func Render(markup string, data any, options ...Option) (string, error) {
	doc, err := content.ParseString(markup)
	if err != nil {
		return "", fmt.Errorf("tplbind: parse: %w", err)
	}
	engine, err := New(doc, data, options...)
	if err != nil {
		return "", err
	}
	defer engine.Close()

	return content.RenderChildren(content.Body(doc))
}

// RenderFS loads a template document and a JSON or YAML model from fsys and
// renders them like Render.
func RenderFS(fsys fs.FS, templatePath, modelPath string, options ...Option) (string, error) {
	if fsys == nil {
		return "", fmt.Errorf("tplbind: filesystem is required")
	}
	markup, err := fs.ReadFile(fsys, templatePath)
	if err != nil {
		return "", fmt.Errorf("tplbind: read template %s: %w", templatePath, err)
	}
	data, err := model.LoadFS(fsys, modelPath)
	if err != nil {
		return "", fmt.Errorf("tplbind: %w", err)
	}
	return Render(string(markup), data, options...)
}
