package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/regiongate/internal/attach"
	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/journal"
	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/specialistvlad/regiongate/modules/socketio"
)

// Loader reads base topology trees and image files.
type Loader interface {
	topology.Loader
	LoadImage(ctx context.Context, base *topology.Tree, path string) (*image.Info, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     Loader
	registry   *registry.Registry
	tree       *topology.Tree
	attachment *attach.Attachment
	journal    *journal.Journal
	notifier   *socketio.Notifier
}

// NewApp is the constructor for the main application. It loads the
// topology, registers modules (the core modules when none are given) and
// attaches every engine, interface and region.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, loader Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules()
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))
	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}

	tree, err := loader.LoadTree(ctx, cfg.TopologyPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
		tree:     tree,
	}

	var observers region.Observers
	if cfg.JournalPath != "" {
		if a.journal, err = journal.Open(cfg.JournalPath); err != nil {
			return nil, err
		}
		observers = append(observers, a.journal)
		logger.Debug("Program journal opened.", "path", cfg.JournalPath)
	}
	if cfg.EventsURL != "" {
		if a.notifier, err = socketio.Dial(ctx, cfg.EventsURL); err != nil {
			_ = a.journal.Close()
			return nil, err
		}
		observers = append(observers, a.notifier)
	}

	var opts []attach.Option
	if len(observers) > 0 {
		opts = append(opts, attach.WithObserver(observers))
	}
	if a.attachment, err = attach.Attach(ctx, tree, reg, opts...); err != nil {
		a.closeObservers()
		return nil, err
	}
	return a, nil
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Tree returns the loaded topology.
func (a *App) Tree() *topology.Tree {
	return a.tree
}

// Journal returns the program journal, or nil when it is disabled.
func (a *App) Journal() *journal.Journal {
	return a.journal
}

// Close detaches the topology and closes the journal and notifier.
func (a *App) Close(ctx context.Context) error {
	ctx = a.Context(ctx)
	var errs []error
	if a.attachment != nil {
		if err := a.attachment.Detach(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeObservers(); err != nil {
		errs = append(errs, err)
	}
	a.logger.Debug("Application closed.")
	return errors.Join(errs...)
}

func (a *App) closeObservers() error {
	if a.notifier != nil {
		a.notifier.Close()
	}
	return a.journal.Close()
}
