package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/airdate/internal/config"
	"github.com/zjrosen/airdate/internal/log"
	"github.com/zjrosen/airdate/internal/persist"
	"github.com/zjrosen/airdate/internal/schedule"
	"github.com/zjrosen/airdate/internal/store"
	"github.com/zjrosen/airdate/internal/tracing"
)

// app is the per-invocation wiring: one config, one backend, one store.
type app struct {
	cfg        config.Config
	configPath string
	adapter    *persist.Adapter
	store      *store.Store
	tracker    *schedule.Tracker
	closers    []func(context.Context) error
}

// openApp loads configuration, opens the configured backend, and restores the
// saved state into a fresh store.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	var closers []func(context.Context) error
	if opts.debug {
		cleanup, err := initDebugLog(opts)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(context.Context) error {
			log.SetEnabled(false)
			cleanup()
			return nil
		})
	}

	cfg, configPath, err := config.Load(opts.configPath)
	if err != nil {
		for _, c := range closers {
			_ = c(ctx)
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}

	a := &app{cfg: cfg, configPath: configPath, closers: closers}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	a.closers = append(a.closers, provider.Shutdown)

	blobs, err := a.openBackend()
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.adapter = persist.NewAdapter(blobs,
		persist.WithKey(cfg.Storage.Key),
		persist.WithTracer(provider.Tracer()),
	)
	a.store = store.New(
		store.WithPersistence(a.adapter),
		store.WithLogger(log.For(log.CatStore)),
		store.WithMaxHistorySize(cfg.History.MaxSize),
	)
	if err := schedule.Register(a.store); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("registering views: %w", err)
	}
	a.store.Load(ctx)
	a.tracker = schedule.NewTracker(a.store)

	log.Info(log.CatCLI, "state opened",
		"backend", blobs.Name(),
		"config", configPath,
		"history", a.store.HistoryInfo().Size)
	return a, nil
}

func (a *app) openBackend() (persist.BlobStore, error) {
	path := a.cfg.ResolvedStoragePath()

	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return persist.NewMemoryBlobStore(), nil
	case config.BackendSQLite:
		db, err := persist.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		return db, nil
	default:
		return persist.NewFileBlobStore(path), nil
	}
}

// Close releases the store and every opened resource, newest first.
func (a *app) Close(ctx context.Context) error {
	if a.store != nil {
		a.store.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, opts *rootOptions, fn func(*app) error) (err error) {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

// initDebugLog starts the global logger at the requested level, writing to
// stderr when the log file is "-".
func initDebugLog(opts *rootOptions) (func(), error) {
	level := log.ParseLevel(opts.logLevel)
	if opts.logFile == "-" {
		w := opts.errOut
		if w == nil {
			w = os.Stderr
		}
		log.InitWriter(w, level)
		return func() {}, nil
	}

	path := opts.logFile
	if path == "" {
		dir := config.DataDir()
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dir, "debug.log")
	}
	cleanup, err := log.Init(path)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	log.SetEnabled(true)
	log.SetMinLevel(level)
	return cleanup, nil
}
