package cli

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("cli: prompt aborted")

// Prompter asks the questions of the interactive loop. It is an interface so
// the loop can be driven without a terminal.
type Prompter interface {
	Select(ctx context.Context, message string, options []string) (string, error)
	Input(ctx context.Context, message, def string) (string, error)
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Select(ctx context.Context, message string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (SurveyPrompter) Input(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
