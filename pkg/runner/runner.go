package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// ErrInterrupted is returned by Run when the play loop was stopped by a signal or a cancelled context.
var ErrInterrupted = errors.New("interrupted")

// Runner handles the play loop of a learner session using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Signals makes Run stop on SIGINT/SIGTERM.
	Signals bool
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays sess until it is finished, the learner quits, or ctx is cancelled.
// Quitting and end of input leave the session unfinished and return nil.
func (r *Runner) Run(ctx context.Context, sess *traversal.Session) error {
	handler := r.resolveHandler()

	if r.Signals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	for {
		step := Describe(sess)
		if err := handler.Output(ctx, step); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if step.Finished {
			r.Logger.Debug("session finished", "session_id", sess.ID())
			return nil
		}

		cmd, err := r.read(ctx, handler, step)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch cmd.Kind {
		case CommandQuit:
			r.Logger.Debug("learner quit", "session_id", sess.ID(), "node_id", step.NodeID)
			return nil
		case CommandHelp:
			if err := handler.SystemOutput(ctx, HelpText); err != nil {
				return err
			}
			continue
		}

		msg, err := Apply(ctx, sess, cmd)
		if err != nil {
			return fmt.Errorf("navigation error: %w", err)
		}
		if msg != "" {
			if err := handler.SystemOutput(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// read loops until the handler yields a command that is valid on step.
func (r *Runner) read(ctx context.Context, handler IOHandler, step Step) (Command, error) {
	for {
		line, err := handler.Input(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.Logger.Debug("input cancelled", "err", ctx.Err())
				return Command{}, ErrInterrupted
			}
			if errors.Is(err, io.EOF) {
				return Command{}, err
			}
			return Command{}, fmt.Errorf("input error: %w", err)
		}

		cmd, err := ParseCommand(line, step)
		if err != nil {
			if err := handler.SystemOutput(ctx, err.Error()); err != nil {
				return Command{}, err
			}
			continue
		}
		return cmd, nil
	}
}

// Apply performs cmd on sess and returns feedback for the learner, if any.
func Apply(ctx context.Context, sess *traversal.Session, cmd Command) (string, error) {
	switch cmd.Kind {
	case CommandContinue:
		return "", sess.Advance(ctx)
	case CommandChoose:
		return "", sess.ChooseBranch(ctx, cmd.Port)
	case CommandScore:
		step := Describe(sess)
		if !step.Scored() {
			return "", fmt.Errorf("%w: this step takes no score", ErrUnknownCommand)
		}
		scaled := cmd.Score / 100
		success := cmd.Score >= *step.PassingScore
		if err := sess.ReportResult(ctx, &scaled, success); err != nil {
			return "", err
		}
		if success {
			return fmt.Sprintf("Passed with %.0f%%.", cmd.Score), nil
		}
		return fmt.Sprintf("Failed with %.0f%% (%.0f%% needed).", cmd.Score, *step.PassingScore), nil
	default:
		return "", nil
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		// Memoize to prevent creating new pumps on subsequent Run() calls
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}
