package runner

import (
	"context"
)

// IOHandler defines the strategy for interacting with the learner.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the active step.
	Output(ctx context.Context, step Step) error

	// Input reads one command line from the learner.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (help, rejected command, result feedback).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is written.
// This allows terminal rendering (markdown to ANSI) without coupling the runner to a renderer.
type ContentRenderer func(string) (string, error)
