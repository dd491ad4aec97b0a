package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/internal/config"
	"github.com/pseng/MyH5P-pages/pkg/adapters/file"
	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/adapters/postgres"
	"github.com/pseng/MyH5P-pages/pkg/adapters/redis"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/persistence/middleware"
	"github.com/pseng/MyH5P-pages/pkg/ports"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/tracking"
)

// Runtime is a fully wired service plus the resources backing it.
type Runtime struct {
	Service  *learnpath.Service
	Gatherer prometheus.Gatherer
	Config   *config.Config

	closers []io.Closer
}

// Close flushes the service and releases the storage backend.
// A store hidden behind middleware is closed here; a bare one is closed by the service.
func (r *Runtime) Close() error {
	err := r.Service.Close()
	if _, direct := r.Service.Store().(io.Closer); direct {
		return err
	}
	return errors.Join(err, r.closeBackends())
}

// BuildOption adjusts the wiring done by Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	store       ports.PathStore
	debugLogger *slog.Logger
}

// WithStoreOverride uses store instead of the configured driver. Middleware still applies.
func WithStoreOverride(store ports.PathStore) BuildOption {
	return func(o *buildOptions) {
		o.store = store
	}
}

// WithDebugHooks logs every node transition at debug level.
func WithDebugHooks(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.debugLogger = logger
	}
}

// Build wires a Service from configuration.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...BuildOption) (*Runtime, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime{Config: cfg}

	reg := registry.Default()
	if cfg.Catalog.File != "" {
		loaded, err := registry.Load(cfg.Catalog.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load node catalog: %w", err)
		}
		reg = loaded
		logger.Info("node catalog loaded", "file", cfg.Catalog.File, "types", reg.Len())
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.Gatherer = promReg
	metrics := observability.NewMetrics(promReg)

	svcOpts := []learnpath.Option{
		learnpath.WithLogger(logger),
		learnpath.WithRegistry(reg),
		learnpath.WithMetrics(metrics),
		learnpath.WithStatementBuilder(tracking.NewBuilder(
			tracking.WithBaseURL(cfg.Tracking.BaseURL),
			tracking.WithRegistry(reg),
		)),
		learnpath.WithSender(tracking.NewClient(
			tracking.WithTimeout(cfg.Tracking.Timeout),
			tracking.WithClientMetrics(metrics),
			tracking.WithClientLogger(logger),
		)),
		learnpath.WithSendTimeout(cfg.Tracking.SendTimeout),
		learnpath.WithSessionIdleTimeout(cfg.Sessions.IdleTimeout),
	}
	if cfg.Tracking.ActorName != "" {
		svcOpts = append(svcOpts, learnpath.WithDefaultActorName(cfg.Tracking.ActorName))
	}
	if o.debugLogger != nil {
		svcOpts = append(svcOpts, learnpath.WithLifecycleHooks(createDebugHooks(o.debugLogger)))
	}

	store := o.store
	if store == nil {
		var err error
		store, err = rt.openStore(ctx, cfg.Storage, logger, &svcOpts)
		if err != nil {
			_ = rt.closeBackends()
			return nil, err
		}
	}

	if cfg.Encryption.Enabled() {
		keys, err := middleware.ParseKeys(cfg.Encryption.Key, cfg.Encryption.FallbackKeys...)
		if err != nil {
			_ = rt.closeBackends()
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(keys))
		logger.Info("record-store secrets encrypted at rest", "fallback_keys", len(cfg.Encryption.FallbackKeys))
	}

	svcOpts = append(svcOpts, learnpath.WithStore(store))
	rt.Service = learnpath.New(svcOpts...)
	return rt, nil
}

func (rt *Runtime) closeBackends() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c.Close())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// openStore opens the configured driver. The redis driver also contributes a session locker.
func (rt *Runtime) openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, svcOpts *[]learnpath.Option) (ports.PathStore, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Warn("using in-memory storage, paths are lost on exit")
		return memory.NewStore(), nil

	case "file":
		logger.Info("using file storage", "dir", cfg.Dir)
		return file.New(cfg.Dir), nil

	case "redis":
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		rt.closers = append(rt.closers, store)
		if cfg.Redis.Locking {
			locker := redis.NewLocker(store.Client(), cfg.Redis.Prefix)
			*svcOpts = append(*svcOpts, learnpath.WithLocker(locker, rt.Config.Sessions.LockTTL))
		}
		logger.Info("using redis storage", "addr", cfg.Redis.Addr, "locking", cfg.Redis.Locking)
		return store, nil

	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, errors.New("storage.postgres.url is required for the postgres driver")
		}
		store, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		rt.closers = append(rt.closers, store)
		if cfg.Postgres.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
