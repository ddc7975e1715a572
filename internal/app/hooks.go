package app

import (
	"context"
	"sync"
	"time"

	"github.com/vk/framegraph/internal/rendergraph"
)

// hookSet fans graph events out to observers that can be attached after the
// graph was created, such as the inspector once it has connected.
type hookSet struct {
	mu    sync.RWMutex
	hooks rendergraph.MultiHooks
}

func (s *hookSet) add(h rendergraph.Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *hookSet) remove(h rendergraph.Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.hooks {
		if have == h {
			s.hooks = append(s.hooks[:i:i], s.hooks[i+1:]...)
			return
		}
	}
}

func (s *hookSet) current() rendergraph.MultiHooks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks
}

func (s *hookSet) ResourceInitialized(ctx context.Context, tag string, r rendergraph.Resource) {
	s.current().ResourceInitialized(ctx, tag, r)
}

func (s *hookSet) TimelineBuilt(ctx context.Context, tl *rendergraph.Timeline, elapsed time.Duration) {
	s.current().TimelineBuilt(ctx, tl, elapsed)
}

func (s *hookSet) BuildFailed(ctx context.Context, err error) {
	s.current().BuildFailed(ctx, err)
}

func (s *hookSet) FrameExecuted(ctx context.Context, tl *rendergraph.Timeline, frame rendergraph.FrameInfo, elapsed time.Duration) {
	s.current().FrameExecuted(ctx, tl, frame, elapsed)
}
