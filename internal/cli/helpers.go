package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the play logger.
// In debug mode, it writes to Stderr (to separate from Stdout player output).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Leave Node", "node_id", e.NodeID, "status", e.Status)
		},
		OnPathComplete: func(ctx context.Context, e *domain.PathEvent) {
			logger.Debug("Path Complete", "progress", e.Progress)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, runner.ErrInterrupted) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// logCompletion reports how the play loop ended. Quiet modes print nothing.
func logCompletion(w io.Writer, nodeID string, finished bool, err error, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	switch {
	case err == nil && finished && nodeID == "":
		printSystemMessage(w, "Finished.")
	case err == nil && finished:
		printSystemMessage(w, "Finished at '%s' node.", nodeID)
	case err == nil:
		printSystemMessage(w, "Stopped at '%s' node.", nodeID)
	case isInterrupted(err) && sig == os.Interrupt:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted at '%s' node.", nodeID)
	case isInterrupted(err) && sig != nil:
		fmt.Fprintf(w, "\n")
		printSystemMessage(w, "Terminated at '%s' node.", nodeID)
	case isInterrupted(err):
		printSystemMessage(w, "Stopped at '%s' node.", nodeID)
	}
}
