package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/framegraph/internal/config"
	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/internal/telemetry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	registry   *registry.Registry
	metrics    *telemetry.Metrics
	hooks      *hookSet
	httpServer *http.Server

	// mu guards the pipeline state swapped by reloads.
	mu    sync.Mutex
	model *config.Model
	pool  *rendergraph.Pool
	graph *rendergraph.Graph
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration errors are fatal at startup and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go kinds.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules),
		"task_kinds", reg.TaskKinds(), "resource_kinds", reg.ResourceKinds())

	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error in a module, so we panic.
		panic(err)
	}

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		loader:   loader,
		registry: reg,
		metrics:  telemetry.NewMetrics(),
		hooks:    &hookSet{},
		pool:     rendergraph.NewPool(),
	}
	a.hooks.add(a.metrics)

	model, converter, err := a.load(ctx)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	a.graph = rendergraph.NewGraph(a.pool, model.Pipeline.Final, rendergraph.WithHooks(a.hooks))
	if err := a.apply(ctx, model, converter); err != nil {
		panic(fmt.Errorf("failed to assemble pipeline: %w", err))
	}
	logger.Debug("Pipeline assembled.", "final", model.Pipeline.Final, "tasks", len(a.graph.Tasks()))

	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the render graph driven by the app.
func (a *App) Graph() *rendergraph.Graph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// Model returns the currently applied pipeline model.
func (a *App) Model() *config.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

// Metrics returns the Prometheus hooks attached to the graph.
func (a *App) Metrics() *telemetry.Metrics {
	return a.metrics
}

// AddHooks attaches an additional observer to the graph.
func (a *App) AddHooks(h rendergraph.Hooks) {
	a.hooks.add(h)
}
