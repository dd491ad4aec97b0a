package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/internal/config"
	"github.com/pseng/MyH5P-pages/internal/presentation/tui"
	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/runner"
)

// localPathID names a path loaded from a file that carries no id.
const localPathID = "local"

// PlayOptions contains all the configuration for the play command.
type PlayOptions struct {
	// File plays a path document from disk instead of the configured store.
	File string
	// PathID selects a stored path. Ignored when File is set.
	PathID  string
	Learner domain.Learner
	JSON    bool
	// Plain disables colours and markdown styling.
	Plain bool
	Watch bool
	Debug bool
	Width int

	In  io.Reader
	Out io.Writer
}

func (o *PlayOptions) streams() (io.Reader, io.Writer) {
	in, out := o.In, o.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

func (o *PlayOptions) quiet() bool {
	return o.JSON
}

// Play walks one path in the terminal, dispatching to watch mode when asked.
func Play(ctx context.Context, cfg *config.Config, opts PlayOptions) error {
	if opts.File == "" && opts.PathID == "" {
		return errors.New("a path id or --file is required")
	}
	if opts.Watch {
		if opts.File == "" {
			return errors.New("--watch needs --file")
		}
		if opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		return RunWatch(ctx, cfg, opts)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	_, out := opts.streams()
	if !opts.quiet() {
		tui.PrintBanner(out, strings.TrimSpace(learnpath.Version))
	}

	handler, err := newIOHandler(opts)
	if err != nil {
		return err
	}
	return playOnce(sigCtx, cfg, opts, handler)
}

// playOnce wires a service, starts a session and runs it to the end, a quit, or cancellation.
func playOnce(ctx context.Context, cfg *config.Config, opts PlayOptions, handler runner.IOHandler) error {
	logger := createLogger(opts.Debug)
	_, out := opts.streams()

	buildOpts := []BuildOption{}
	if opts.Debug {
		buildOpts = append(buildOpts, WithDebugHooks(logger))
	}
	rt, pathID, err := OpenPath(ctx, cfg, logger, opts.File, opts.PathID, buildOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to release storage", "err", err)
		}
	}()
	svc := rt.Service

	p, err := svc.GetPath(ctx, pathID)
	if err != nil {
		return fmt.Errorf("failed to load path %q: %w", pathID, err)
	}
	if res := svc.Validate(p); !res.Valid {
		return fmt.Errorf("path %q is invalid: %s", pathID, strings.Join(res.Errors, "; "))
	} else if len(res.Warnings) > 0 && !opts.quiet() {
		for _, w := range res.Warnings {
			printSystemMessage(out, "warning: %s", w)
		}
	}

	ls, err := svc.StartSession(ctx, pathID, opts.Learner)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	logger.Info("Session Created", "session_id", ls.ID(), "path_id", pathID)

	r := runner.New(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
	)
	runErr := r.Run(ctx, ls.Session)

	step := runner.Describe(ls.Session)
	var sig os.Signal
	if sc, ok := ctx.(*SignalContext); ok {
		sig = sc.Signal()
	}
	logCompletion(out, step.NodeID, step.Finished, runErr, opts.quiet(), sig)

	if err := svc.EndSession(context.WithoutCancel(ctx), ls.ID()); err != nil {
		logger.Warn("failed to end session", "session_id", ls.ID(), "err", err)
	}
	return handleExecutionError(runErr)
}

func newIOHandler(opts PlayOptions) (runner.IOHandler, error) {
	in, out := opts.streams()
	if opts.JSON {
		return runner.NewJSONHandler(in, out), nil
	}
	render, err := newRenderer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(render)), nil
}

func newRenderer(opts PlayOptions) (runner.ContentRenderer, error) {
	_, out := opts.streams()
	if opts.Plain || !runner.IsTerminal(out) {
		return tui.NewPlainRenderer()
	}
	return tui.NewRenderer(opts.Width)
}

// OpenPath wires a runtime serving one path. With a file, the document is loaded into a private
// in-memory store and its id returned; otherwise the configured store is used and pathID returned as is.
func OpenPath(ctx context.Context, cfg *config.Config, logger *slog.Logger, file, pathID string, opts ...BuildOption) (*Runtime, string, error) {
	if file != "" {
		p, err := LoadPathFile(file)
		if err != nil {
			return nil, "", err
		}
		pathID = p.ID
		opts = append(opts, WithStoreOverride(memory.NewStore(memory.WithPaths(p))))
	}
	rt, err := Build(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, "", err
	}
	return rt, pathID, nil
}

// LoadPathFile reads a path document. A document without an id is named "local".
func LoadPathFile(name string) (*domain.LearningPath, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read path file: %w", err)
	}
	var p domain.LearningPath
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse path file %s: %w", name, err)
	}
	if p.ID == "" {
		p.ID = localPathID
	}
	return &p, nil
}
