package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
	"github.com/goliatone/go-tplbind/pkg/template"
)

// Session is a decorated document bound to a live model.
type Session struct {
	doc    *html.Node
	root   *model.Map
	engine *template.Engine
	logger *zap.Logger
}

// OpenFiles loads a template document and a model document from disk.
func OpenFiles(templatePath, modelPath string, logger *zap.Logger) (*Session, error) {
	markup, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("cli: read template: %w", err)
	}
	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("cli: read model: %w", err)
	}
	return Open(string(markup), data, modelPath, logger)
}

// Open parses markup and the model document, then decorates every template.
func Open(markup string, data []byte, source string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := content.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("cli: parse template: %w", err)
	}
	root, err := decodeRoot(data, source)
	if err != nil {
		return nil, err
	}

	engine := template.New(doc, root, template.WithLogger(logger))
	if err := engine.DecorateAll(); err != nil {
		return nil, fmt.Errorf("cli: decorate: %w", err)
	}
	return &Session{doc: doc, root: root, engine: engine, logger: logger}, nil
}

func decodeRoot(data []byte, source string) (*model.Map, error) {
	value, err := model.Parse(data, source)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	root, ok := value.(*model.Map)
	if !ok {
		return nil, fmt.Errorf("cli: model %s must be an object, got %T", source, value)
	}
	return root, nil
}

// Root returns the live model.
func (s *Session) Root() *model.Map { return s.root }

// Engine returns the template engine.
func (s *Session) Engine() *template.Engine { return s.engine }

// Apply runs a mutation script against the live model.
func (s *Session) Apply(script model.Script) error {
	if err := script.Apply(s.root); err != nil {
		return fmt.Errorf("cli: apply script: %w", err)
	}
	s.logger.Debug("script applied", zap.Int("operations", len(script)))
	return nil
}

// Reload replaces every top-level model value with the ones decoded from
// data. Templates bound to replaced values rebuild their instances.
func (s *Session) Reload(data []byte, source string) error {
	next, err := decodeRoot(data, source)
	if err != nil {
		return err
	}
	s.root.Assign(next)
	s.logger.Debug("model reloaded", zap.String("source", source))
	return nil
}

// Body renders the inner markup of the document body, or the whole document
// when it has no body.
func (s *Session) Body() (string, error) {
	if body := content.Body(s.doc); body != nil {
		return content.RenderChildren(body)
	}
	return content.Render(s.doc)
}

// Close tears down every iterator.
func (s *Session) Close() {
	s.engine.Close()
}
