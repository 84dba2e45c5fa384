package cli

import (
	"context"
	"errors"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the user to choose among options. Implementations other
// than the terminal one exist for tests.
type Prompter interface {
	Select(ctx context.Context, message string, options []string, defaultIndex int) (int, error)
	MultiSelect(ctx context.Context, message string, options []string, defaults []int) ([]int, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Select(ctx context.Context, message string, options []string, defaultIndex int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	prompt := &survey.Select{Message: message, Options: options}
	if defaultIndex >= 0 && defaultIndex < len(options) {
		prompt.Default = options[defaultIndex]
	}
	var out string
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	return slices.Index(options, out), nil
}

func (surveyPrompter) MultiSelect(ctx context.Context, message string, options []string, defaults []int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prompt := &survey.MultiSelect{Message: message, Options: options, PageSize: 15}
	if len(defaults) > 0 {
		selected := make([]string, 0, len(defaults))
		for _, i := range defaults {
			if i >= 0 && i < len(options) {
				selected = append(selected, options[i])
			}
		}
		prompt.Default = selected
	}
	var out []string
	if err := survey.AskOne(prompt, &out); err != nil {
		return nil, translateSurveyErr(err)
	}
	indices := make([]int, 0, len(out))
	for _, v := range out {
		if i := slices.Index(options, v); i >= 0 {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
