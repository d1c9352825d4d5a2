package boundary

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Action is a choice offered by the boundary after a failed startup.
type Action int

const (
	// ActionNone means no action was taken; the boundary left because
	// startup succeeded or the context ended.
	ActionNone Action = iota
	ActionRetry
	ActionReload
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionReload:
		return "reload"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// ParseAction maps user input to an action.
func ParseAction(input string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "r", "retry":
		return ActionRetry, true
	case "l", "reload":
		return ActionReload, true
	case "q", "quit", "exit":
		return ActionQuit, true
	default:
		return ActionNone, false
	}
}

const promptText = "[r]etry, re[l]oad or [q]uit> "

// LineReader reads one line of user input. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// NewLineReader creates the interactive readline prompt.
func NewLineReader() (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptText,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return rl, nil
}

// readAction reads lines until one names an action. End of input and an
// interrupt count as quit.
func readAction(reader LineReader, out io.Writer) (Action, error) {
	for {
		line, err := reader.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return ActionQuit, nil
			}
			return ActionNone, fmt.Errorf("readline error: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if action, ok := ParseAction(line); ok {
			return action, nil
		}
		fmt.Fprintf(out, "Unknown action %q. Type r to retry, l to reload or q to quit.\n", strings.TrimSpace(line))
	}
}
