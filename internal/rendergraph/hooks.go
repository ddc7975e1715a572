package rendergraph

import (
	"context"
	"time"
)

// Hooks observes builds and frames. Implementations must not block.
type Hooks interface {
	ResourceInitialized(ctx context.Context, tag string, r Resource)
	TimelineBuilt(ctx context.Context, tl *Timeline, elapsed time.Duration)
	BuildFailed(ctx context.Context, err error)
	FrameExecuted(ctx context.Context, tl *Timeline, frame FrameInfo, elapsed time.Duration)
}

// NopHooks ignores every event. Embed it to implement a subset of Hooks.
type NopHooks struct{}

func (NopHooks) ResourceInitialized(context.Context, string, Resource) {}
func (NopHooks) TimelineBuilt(context.Context, *Timeline, time.Duration) {}
func (NopHooks) BuildFailed(context.Context, error) {}
func (NopHooks) FrameExecuted(context.Context, *Timeline, FrameInfo, time.Duration) {}

// MultiHooks fans every event out to each element in order.
type MultiHooks []Hooks

func (m MultiHooks) ResourceInitialized(ctx context.Context, tag string, r Resource) {
	for _, h := range m {
		h.ResourceInitialized(ctx, tag, r)
	}
}

func (m MultiHooks) TimelineBuilt(ctx context.Context, tl *Timeline, elapsed time.Duration) {
	for _, h := range m {
		h.TimelineBuilt(ctx, tl, elapsed)
	}
}

func (m MultiHooks) BuildFailed(ctx context.Context, err error) {
	for _, h := range m {
		h.BuildFailed(ctx, err)
	}
}

func (m MultiHooks) FrameExecuted(ctx context.Context, tl *Timeline, frame FrameInfo, elapsed time.Duration) {
	for _, h := range m {
		h.FrameExecuted(ctx, tl, frame, elapsed)
	}
}
