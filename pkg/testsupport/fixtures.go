// Package testsupport holds fixtures shared by the template, binding and CLI
// tests: parsed documents, observable models and golden files.
package testsupport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
)

// MustParseDocument parses markup into a document, failing the test on
// error.
func MustParseDocument(t *testing.T, markup string) *html.Node {
	t.Helper()

	doc, err := content.ParseString(markup)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// BodyHTML renders the inner HTML of the document body.
func BodyHTML(t *testing.T, doc *html.Node) string {
	t.Helper()

	out, err := content.RenderChildren(content.Body(doc))
	if err != nil {
		t.Fatalf("render body: %v", err)
	}
	return out
}

// MustModel converts plain maps and slices into an observable root map.
func MustModel(t *testing.T, data map[string]any) *model.Map {
	t.Helper()

	root, ok := model.FromValue(data).(*model.Map)
	if !ok {
		t.Fatalf("model: expected map root")
	}
	return root
}

// MustLoadModel reads a JSON or YAML fixture into an observable tree.
func MustLoadModel(t *testing.T, path string) any {
	t.Helper()

	root, err := LoadModelFromPath(path)
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	return root
}

// LoadModelFromPath returns a parsed model without requiring testing.T, so
// callers can load fixtures in setup functions.
func LoadModelFromPath(path string) (any, error) {
	if path == "" {
		return nil, errors.New("testsupport: model path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read model: %w", err)
	}
	root, err := model.Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: %w", err)
	}
	return root, nil
}

// Diff returns a cmp diff string if the values differ.
func Diff(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its content.
func MustReadGolden(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data string) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
