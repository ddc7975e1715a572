package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/internal/watch"
	"github.com/vk/framegraph/modules/inspector"
	"github.com/vk/framegraph/modules/surface"
)

// Run executes frames until the configured frame count is reached or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer(ctx)
	defer a.closeHealthCheckServer(ctx)

	if a.config.InspectorURL != "" {
		stop := a.attachInspector(ctx)
		defer stop()
	}

	if a.config.Watch {
		w, err := watch.New(a.onPipelineChange, []string{a.config.PipelinePath})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch pipeline: %w", err)
		}
		defer w.Stop()
	}

	a.logger.Info("🚀 Starting frame loop...", "frames", a.config.Frames, "interval", a.config.FrameInterval)
	executed, err := a.frameLoop(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("🏁 Frame loop finished.", "frames", executed)

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) frameLoop(ctx context.Context) (uint64, error) {
	var ticker *time.Ticker
	if a.config.FrameInterval > 0 {
		ticker = time.NewTicker(a.config.FrameInterval)
		defer ticker.Stop()
	}

	last := time.Now()
	var index uint64
	for a.config.Frames == 0 || index < uint64(a.config.Frames) {
		if ctx.Err() != nil {
			return index, nil
		}

		now := time.Now()
		g := a.Graph()
		g.Update(now.Sub(last).Seconds())
		last = now

		if err := g.Execute(ctx, rendergraph.FrameInfo{Index: index}); err != nil {
			if !a.config.Watch {
				return index, fmt.Errorf("frame %d: %w", index, err)
			}
			// A broken pipeline may be fixed on disk; keep waiting.
			a.logger.Error("Frame skipped.", "frame", index, "error", err)
		} else {
			a.logFrame(ctx, g, index)
		}
		index++

		if ticker != nil {
			select {
			case <-ctx.Done():
				return index, nil
			case <-ticker.C:
			}
		}
	}
	return index, nil
}

// logFrame logs what was drawn into the final resource.
func (a *App) logFrame(ctx context.Context, g *rendergraph.Graph, index uint64) {
	logger := ctxlog.FromContext(ctx)
	tl := g.Timeline()
	if tl == nil {
		return
	}
	res, ok := g.Pool().Get(tl.Final())
	if !ok {
		return
	}
	attrs := []any{"frame", index, "build_id", tl.ID(), "final", tl.Final()}
	if cl, ok := res.(surface.CommandLog); ok {
		attrs = append(attrs, "commands", cl.Commands())
	}
	logger.Info("Frame executed.", attrs...)
}

func (a *App) onPipelineChange(ctx context.Context, changed []string) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Pipeline files changed.", "files", changed)
	if err := a.Reload(ctx); err != nil {
		logger.Error("Keeping the previous pipeline.", "error", err)
	}
}

// attachInspector connects to the inspector and streams graph events to it.
// Failing to connect is not fatal.
func (a *App) attachInspector(ctx context.Context) func() {
	logger := ctxlog.FromContext(ctx)
	client, err := inspector.Connect(ctx, inspector.Config{URL: a.config.InspectorURL})
	if err != nil {
		logger.Warn("Inspector unavailable, continuing without it.", "error", err)
		return func() {}
	}
	pub := inspector.NewPublisher(client, inspector.WithFrameSampling(60))
	a.hooks.add(pub)
	a.Graph().MarkDirty()
	return func() {
		a.hooks.remove(pub)
		client.Disconnect()
	}
}
