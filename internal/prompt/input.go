// Package prompt reads answers from the terminal for interactive commands.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("cancelled by user")

// maxAttempts bounds how often an invalid answer is asked again
const maxAttempts = 3

// Prompter interface wraps basic prompting functionality for testability
type Prompter interface {
	Prompt(string) (string, error)
	Close() error
}

// LinerPrompter wraps liner.State to implement Prompter interface
type LinerPrompter struct {
	*liner.State
}

// NewLinerPrompter creates a new liner-based prompter; Ctrl+C aborts
func NewLinerPrompter() Prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LinerPrompter{State: line}
}

// TextInputWithPrompter asks once; an empty answer returns def
func TextInputWithPrompter(prompter Prompter, question, def string) (string, error) {
	label := question
	if def != "" {
		label += " [" + def + "]"
	}

	answer, err := prompter.Prompt(color.CyanString(label+": "))
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("text input failed: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskWithPrompter asks until validate accepts the answer. Rejections are
// written to errOut; the last one is returned after maxAttempts.
func AskWithPrompter(prompter Prompter, errOut io.Writer, question, def string,
	validate func(string) error,
) (string, error) {
	var last error
	for range maxAttempts {
		answer, err := TextInputWithPrompter(prompter, question, def)
		if err != nil {
			return "", err
		}
		if validate == nil {
			return answer, nil
		}
		if last = validate(answer); last == nil {
			return answer, nil
		}
		_, _ = fmt.Fprintln(errOut, color.YellowString("  %v", last))
	}
	return "", fmt.Errorf("%s: %w", question, last)
}
