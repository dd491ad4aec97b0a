package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/internal/config"
	"github.com/pseng/MyH5P-pages/internal/presentation/tui"
	"github.com/pseng/MyH5P-pages/pkg/runner"
)

// reloadSettle lets editors finish writing before the file is re-read.
const reloadSettle = 100 * time.Millisecond

// RunWatch plays a path file in development mode, restarting the session whenever the file changes.
func RunWatch(ctx context.Context, cfg *config.Config, opts PlayOptions) error {
	logger := createLogger(opts.Debug)
	_, out := opts.streams()
	tui.PrintBanner(out, strings.TrimSpace(learnpath.Version))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(opts.File)
	if err != nil {
		return err
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	// One handler for every iteration so a single reader owns the input.
	handler, err := newIOHandler(opts)
	if err != nil {
		return err
	}

	logger.Info("Starting Watcher", "file", target)
	printSystemMessage(out, "Watching '%s'.", opts.File)

	reloads := forwardChanges(sigCtx, watcher, target, logger)
	for {
		if !runWatchIteration(sigCtx, cfg, opts, handler, reloads) {
			return nil
		}
		logger.Info("Watcher restarting")
	}
}

// forwardChanges turns filesystem events on target into reload requests.
// Bursts collapse into one pending request.
func forwardChanges(ctx context.Context, watcher *fsnotify.Watcher, target string, logger *slog.Logger) <-chan string {
	reloads := make(chan string, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "err", err)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				logger.Debug("file event", "op", ev.Op.String(), "name", ev.Name)
				time.Sleep(reloadSettle)
				select {
				case reloads <- ev.Name:
				default:
				}
			}
		}
	}()
	return reloads
}

// runWatchIteration plays once and reports whether the loop should start again.
func runWatchIteration(parent *SignalContext, cfg *config.Config, opts PlayOptions, handler runner.IOHandler, reloads <-chan string) bool {
	logger := createLogger(opts.Debug)
	_, out := opts.streams()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- playOnce(ctx, cfg, opts, handler)
	}()

	var runErr error
	select {
	case <-parent.Done():
		cancel()
		<-done
		logger.Info("Stopping watcher (signal received)", "signal", parent.Signal())
		return false
	case ev := <-reloads:
		printSystemMessage(out, "Change detected in '%s'.", filepath.Base(ev))
		cancel()
		<-done
		return true
	case runErr = <-done:
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("Runtime error", "err", runErr)
		printSystemMessage(out, "%v", runErr)
	}
	printSystemMessage(out, "Waiting for changes...")
	select {
	case <-parent.Done():
		return false
	case ev := <-reloads:
		printSystemMessage(out, "Change detected in '%s'.", filepath.Base(ev))
		return true
	}
}
