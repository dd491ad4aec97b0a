package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CommandKind names what a learner asked for.
type CommandKind int

const (
	CommandContinue CommandKind = iota
	CommandChoose
	CommandScore
	CommandHelp
	CommandQuit
)

// Command is one parsed input line.
type Command struct {
	Kind  CommandKind
	Port  string
	Score float64
}

// ErrUnknownCommand is returned for input that means nothing on the current step.
var ErrUnknownCommand = errors.New("unknown command")

// HelpText lists the commands understood by ParseCommand.
const HelpText = `Commands:
  <Enter>, next    continue
  a, b             answer a branch question
  0-100            report your score
  help             show this help
  quit             leave the session`

// ParseCommand interprets one input line against the active step.
func ParseCommand(input string, step Step) (Command, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	switch in {
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	case "?", "h", "help":
		return Command{Kind: CommandHelp}, nil
	}

	if len(step.Choices) > 0 {
		for i, c := range step.Choices {
			if in == c.Key || in == strings.ToLower(c.Port) || in == strconv.Itoa(i+1) {
				return Command{Kind: CommandChoose, Port: c.Port}, nil
			}
		}
		if in == "" || in == "n" || in == "next" {
			return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, step.Prompt)
		}
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, input)
	}

	switch in {
	case "", "n", "next", "c", "continue":
		return Command{Kind: CommandContinue}, nil
	}

	if step.Scored() {
		v, err := strconv.ParseFloat(strings.TrimSuffix(in, "%"), 64)
		if err == nil {
			if v < 0 || v > 100 {
				return Command{}, fmt.Errorf("%w: score must be between 0 and 100", ErrUnknownCommand)
			}
			return Command{Kind: CommandScore, Score: v}, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, input)
}
