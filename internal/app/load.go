package app

import (
	"context"
	"fmt"

	"github.com/vk/framegraph/internal/builder"
	"github.com/vk/framegraph/internal/config"
	"github.com/vk/framegraph/internal/ctxlog"
)

// load reads the pipeline files into the format-agnostic model.
func (a *App) load(ctx context.Context) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline...", "pipeline_path", a.config.PipelinePath)

	model, converter, err := a.loader.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Pipeline loaded successfully.", "files", len(model.Files),
		"resources", len(model.Resources), "tasks", len(model.Tasks))
	return model, converter, nil
}

// apply assembles model into tasks and hands them to the graph. Nothing
// running is touched until assembly succeeds. On a reload the instances tasks
// of the previous pipeline created are released between frames so that
// changed resource arguments take effect; external resources survive.
func (a *App) apply(ctx context.Context, model *config.Model, converter config.Converter) error {
	b := builder.New(a.registry, converter)
	asm, err := b.Assemble(ctx, model, a.pool)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var opts []builder.ApplyOption
	if a.model != nil {
		opts = append(opts, builder.WithPoolReset())
	}
	builder.Apply(ctx, a.graph, asm, opts...)
	a.model = model
	return nil
}

// Reload re-reads the pipeline and swaps it into the running graph. On
// failure the previous pipeline stays in place.
func (a *App) Reload(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	model, converter, err := a.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload pipeline: %w", err)
	}
	if err := a.apply(ctx, model, converter); err != nil {
		return fmt.Errorf("failed to reload pipeline: %w", err)
	}
	logger.Info("Pipeline reloaded.", "final", model.Pipeline.Final)
	return nil
}
