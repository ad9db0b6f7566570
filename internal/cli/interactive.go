package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplbind/pkg/model"
)

const actionQuit = "quit"

// errInvalidInput marks answers that cannot be turned into an operation. The
// loop reports them and asks again.
var errInvalidInput = errors.New("cli: invalid input")

var actions = []string{model.OpSet, model.OpDelete, model.OpSplice, model.OpAppend, actionQuit}

// Interact asks for model edits until the user quits, re-rendering after
// each edit.
func (r *Runner) Interact(ctx context.Context, s *Session) error {
	for {
		action, err := r.prompter.Select(ctx, "Model operation", actions)
		if err != nil {
			if errors.Is(err, ErrAborted) {
				return nil
			}
			return err
		}
		if action == actionQuit {
			return nil
		}

		op, err := r.askOperation(ctx, action)
		if err != nil {
			if errors.Is(err, ErrAborted) {
				return nil
			}
			if errors.Is(err, errInvalidInput) {
				r.logger.Warn("invalid input", zap.String("op", action), zap.Error(err))
				continue
			}
			return err
		}
		if err := s.Apply(model.Script{op}); err != nil {
			r.logger.Warn("operation rejected", zap.String("op", op.Op), zap.String("path", op.Path), zap.Error(err))
			continue
		}
		if err := r.emit(s); err != nil {
			return err
		}
	}
}

func (r *Runner) askOperation(ctx context.Context, action string) (model.Operation, error) {
	op := model.Operation{Op: action}
	path, err := r.prompter.Input(ctx, "Path", "")
	if err != nil {
		return op, err
	}
	op.Path = strings.TrimSpace(path)

	switch action {
	case model.OpSet:
		raw, err := r.prompter.Input(ctx, "Value (YAML)", "")
		if err != nil {
			return op, err
		}
		if op.Value, err = parseValue(raw); err != nil {
			return op, err
		}
	case model.OpAppend:
		raw, err := r.prompter.Input(ctx, "Item (YAML)", "")
		if err != nil {
			return op, err
		}
		item, err := parseValue(raw)
		if err != nil {
			return op, err
		}
		op.Add = []any{item}
	case model.OpSplice:
		if op.Index, err = r.askInt(ctx, "Index"); err != nil {
			return op, err
		}
		if op.Remove, err = r.askInt(ctx, "Remove count"); err != nil {
			return op, err
		}
		raw, err := r.prompter.Input(ctx, "Items to insert (YAML list)", "[]")
		if err != nil {
			return op, err
		}
		value, err := parseValue(raw)
		if err != nil {
			return op, err
		}
		items, ok := value.([]any)
		if value != nil && !ok {
			return op, fmt.Errorf("%w: splice items must be a list, got %T", errInvalidInput, value)
		}
		op.Add = items
	}
	return op, nil
}

func (r *Runner) askInt(ctx context.Context, message string) (int, error) {
	raw, err := r.prompter.Input(ctx, message, "0")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errInvalidInput, strings.ToLower(message), err)
	}
	return n, nil
}

func parseValue(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out any
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: parse value: %v", errInvalidInput, err)
	}
	return out, nil
}
