package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bydm/internal/config"
	"bydm/internal/diag"
	"bydm/internal/storage"
	"bydm/internal/transformer"
	"bydm/internal/value"
)

// App wires configuration, storage and the transformer service for the CLI.
type App struct {
	Config  *config.Config
	Store   storage.Store
	Service *transformer.Service
	Logger  *slog.Logger
	Out     io.Writer

	closers []func() error
}

// New loads the configuration from the environment. verbose forces debug
// logging on top of DEBUG.
func New(verbose bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Debug = true
	}
	return NewWithConfig(cfg, os.Stderr)
}

// NewWithConfig builds the app from an already loaded configuration.
// Diagnostics are written to logOut.
func NewWithConfig(cfg *config.Config, logOut io.Writer) (*App, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, closers, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	textPolicy := value.TextAllowEmpty
	if cfg.Transform.TextRequireNonEmpty {
		textPolicy = value.TextRequireNonEmpty
	}
	var opts []transformer.Option
	if cfg.Transform.LenientMappings {
		opts = append(opts, transformer.WithLenientMappings())
	}
	svc := transformer.New(store, transformer.Settings{
		MappingFolder:            cfg.Folders.Mappings,
		TemplateFolder:           cfg.Folders.Templates,
		SourceFolder:             cfg.Folders.Source,
		TargetFolder:             cfg.Folders.Target,
		LogFolder:                cfg.Folders.Logs,
		BatchSize:                cfg.Batch.Size,
		MaxWorkers:               cfg.Batch.MaxWorkers,
		RootArrayField:           cfg.Transform.RootArrayField,
		TextPolicy:               textPolicy,
		BlockOnValidationFailure: cfg.Transform.BlockOnValidationFailure,
	}, diag.NewSlogSink(logger), opts...)

	return &App{
		Config:  cfg,
		Store:   store,
		Service: svc,
		Logger:  logger,
		Out:     os.Stdout,
		closers: closers,
	}, nil
}

// Context returns a context cancelled on SIGINT or SIGTERM.
func (a *App) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Close releases backend resources.
func (a *App) Close() error {
	if cached, ok := a.Store.(*storage.CachedStore); ok {
		m := cached.Metrics()
		a.Logger.Debug("storage cache",
			"blob_hits", m.BlobHits, "blob_misses", m.BlobMisses,
			"list_hits", m.ListHits, "list_misses", m.ListMisses,
			"origin_reads", m.OriginReads, "origin_writes", m.OriginWrites)
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
