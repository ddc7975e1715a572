package inspector

import (
	"context"
	"time"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/rendergraph"
)

// Event names emitted to the inspector.
const (
	EventTimeline    = "timeline"
	EventBuildFailed = "build_failed"
	EventResource    = "resource_initialized"
	EventFrame       = "frame"
)

// Emitter is the part of a socket.io client the publisher needs.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// Publisher streams graph events to a remote inspector. It implements
// rendergraph.Hooks.
type Publisher struct {
	emitter    Emitter
	frameEvery uint64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithFrameSampling emits only every n-th frame event. Zero disables frame
// events.
func WithFrameSampling(n uint64) Option {
	return func(p *Publisher) { p.frameEvery = n }
}

// NewPublisher creates a Publisher emitting through e.
func NewPublisher(e Emitter, opts ...Option) *Publisher {
	p := &Publisher{emitter: e, frameEvery: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ rendergraph.Hooks = (*Publisher)(nil)

func (p *Publisher) ResourceInitialized(ctx context.Context, tag string, _ rendergraph.Resource) {
	p.emit(ctx, EventResource, map[string]any{"resource": tag})
}

func (p *Publisher) TimelineBuilt(ctx context.Context, tl *rendergraph.Timeline, elapsed time.Duration) {
	p.emit(ctx, EventTimeline, map[string]any{
		"build_id":    tl.ID(),
		"final":       tl.Final(),
		"stages":      tl.Snapshot(),
		"dropped":     tl.Dropped(),
		"duration_ms": elapsed.Seconds() * 1000,
	})
}

func (p *Publisher) BuildFailed(ctx context.Context, err error) {
	p.emit(ctx, EventBuildFailed, map[string]any{"error": err.Error()})
}

func (p *Publisher) FrameExecuted(ctx context.Context, tl *rendergraph.Timeline, frame rendergraph.FrameInfo, elapsed time.Duration) {
	if p.frameEvery == 0 || frame.Index%p.frameEvery != 0 {
		return
	}
	p.emit(ctx, EventFrame, map[string]any{
		"build_id":    tl.ID(),
		"frame":       frame.Index,
		"duration_ms": elapsed.Seconds() * 1000,
	})
}

func (p *Publisher) emit(ctx context.Context, ev string, payload map[string]any) {
	if err := p.emitter.Emit(ev, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish inspector event.", "event", ev, "error", err)
	}
}
