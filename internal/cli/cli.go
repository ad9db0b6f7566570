// Package cli implements tplbind-cli: render a template document against a
// model file, apply mutation scripts, and keep the output in sync while the
// model is edited interactively or on disk.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-tplbind/pkg/model"
)

// Config mirrors the command-line flags.
type Config struct {
	TemplatePath string
	ModelPath    string
	ScriptPath   string
	LayoutPath   string
	OutputPath   string
	Watch        bool
	Interactive  bool
	Verbose      bool
}

// Validate checks required paths and incompatible modes.
func (c Config) Validate() error {
	if c.TemplatePath == "" {
		return errors.New("cli: template path is required")
	}
	if c.ModelPath == "" {
		return errors.New("cli: model path is required")
	}
	if c.Watch && c.Interactive {
		return errors.New("cli: -watch and -interactive cannot be combined")
	}
	return nil
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPrompter replaces the terminal prompter used by -interactive.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) {
		if p != nil {
			r.prompter = p
		}
	}
}

// WithOutput sets where renders go when no output file is configured.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// Runner executes one CLI invocation.
type Runner struct {
	cfg      Config
	logger   *zap.Logger
	prompter Prompter
	out      io.Writer
	layout   *Layout
}

// New builds a Runner for cfg.
func New(cfg Config, options ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   zap.NewNop(),
		prompter: SurveyPrompter{},
		out:      os.Stdout,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run renders once, then keeps going in watch or interactive mode.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	if r.cfg.LayoutPath != "" {
		layout, err := LoadLayout(r.cfg.LayoutPath)
		if err != nil {
			return err
		}
		r.layout = layout
	}

	s, err := OpenFiles(r.cfg.TemplatePath, r.cfg.ModelPath, r.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if r.cfg.ScriptPath != "" {
		data, err := os.ReadFile(r.cfg.ScriptPath)
		if err != nil {
			return fmt.Errorf("cli: read script: %w", err)
		}
		script, err := model.ParseScript(data, r.cfg.ScriptPath)
		if err != nil {
			return fmt.Errorf("cli: %w", err)
		}
		if err := s.Apply(script); err != nil {
			return err
		}
	}

	if err := r.emit(s); err != nil {
		return err
	}

	switch {
	case r.cfg.Interactive:
		return r.Interact(ctx, s)
	case r.cfg.Watch:
		return r.Watch(ctx, s)
	}
	return nil
}

// emit renders the session and writes it to the output file or writer.
func (r *Runner) emit(s *Session) error {
	body, err := s.Body()
	if err != nil {
		return fmt.Errorf("cli: render: %w", err)
	}
	page, err := r.layout.Wrap(body, model.Plain(s.Root()))
	if err != nil {
		return err
	}

	if r.cfg.OutputPath != "" {
		if err := os.WriteFile(r.cfg.OutputPath, []byte(page), 0o644); err != nil {
			return fmt.Errorf("cli: write output: %w", err)
		}
		r.logger.Info("output written", zap.String("path", r.cfg.OutputPath))
		return nil
	}
	if _, err := fmt.Fprintln(r.out, page); err != nil {
		return fmt.Errorf("cli: write output: %w", err)
	}
	return nil
}
