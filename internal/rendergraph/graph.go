package rendergraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/framegraph/internal/ctxlog"
)

// State is the executor state of a Graph.
type State int

const (
	Idle State = iota
	Built
	Executing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Built:
		return "built"
	case Executing:
		return "executing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Graph owns a task list and the timeline built from it. The timeline is
// rebuilt wholesale at the start of the next Execute whenever the graph was
// marked dirty or the pool changed.
type Graph struct {
	mu          sync.Mutex
	tasks       []Task
	pool        *Pool
	final       string
	opts        []BuildOption
	timeline    *Timeline
	buildErr    error
	dirty       atomic.Bool
	poolVersion uint64
	state       atomic.Int32
	stage       atomic.Int32
}

// NewGraph creates an empty graph producing final. It starts dirty.
func NewGraph(pool *Pool, final string, opts ...BuildOption) *Graph {
	if pool == nil {
		pool = NewPool()
	}
	g := &Graph{pool: pool, final: final, opts: opts}
	g.dirty.Store(true)
	return g
}

// Pool returns the resource pool the graph builds against.
func (g *Graph) Pool() *Pool { return g.pool }

// Final returns the tag of the final resource.
func (g *Graph) Final() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.final
}

// SetFinal changes the final resource and marks the graph dirty.
func (g *Graph) SetFinal(tag string) {
	g.mu.Lock()
	g.final = tag
	g.mu.Unlock()
	g.MarkDirty()
}

// MarkDirty requests a rebuild before the next frame. Safe from any goroutine.
func (g *Graph) MarkDirty() { g.dirty.Store(true) }

// NeedsRebuild reports whether the next Execute will rebuild.
func (g *Graph) NeedsRebuild() bool {
	return g.dirty.Load() || g.pool.Version() != g.loadPoolVersion()
}

func (g *Graph) loadPoolVersion() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.poolVersion
}

// AddTask appends t. Task ids must be unique; a duplicate is reported by the
// next build.
func (g *Graph) AddTask(t Task) {
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
	g.MarkDirty()
}

// AddUniqueTask appends t unless a task of the same kind is already present.
// Tasks that do not implement Kinded are compared by id.
func (g *Graph) AddUniqueTask(t Task) bool {
	g.mu.Lock()
	key := taskKind(t)
	for _, existing := range g.tasks {
		if taskKind(existing) == key {
			g.mu.Unlock()
			return false
		}
	}
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
	g.MarkDirty()
	return true
}

// RemoveTask removes the task with the given id.
func (g *Graph) RemoveTask(id string) bool {
	g.mu.Lock()
	removed := false
	for i, t := range g.tasks {
		if t.ID() == id {
			g.tasks = append(g.tasks[:i:i], g.tasks[i+1:]...)
			removed = true
			break
		}
	}
	g.mu.Unlock()
	if removed {
		g.MarkDirty()
	}
	return removed
}

// RemoveTasks removes every task of the given kind and returns how many went.
func (g *Graph) RemoveTasks(kind string) int {
	g.mu.Lock()
	kept := g.tasks[:0:0]
	for _, t := range g.tasks {
		if taskKind(t) != kind {
			kept = append(kept, t)
		}
	}
	n := len(g.tasks) - len(kept)
	g.tasks = kept
	g.mu.Unlock()
	if n > 0 {
		g.MarkDirty()
	}
	return n
}

// Reconfigure runs fn between frames and installs the task list and final
// resource it returns. fn may change the pool freely: no frame executes
// until it returns, and the graph rebuilds before the next one.
func (g *Graph) Reconfigure(fn func(pool *Pool) (tasks []Task, final string)) {
	g.mu.Lock()
	tasks, final := fn(g.pool)
	g.tasks = append([]Task(nil), tasks...)
	g.final = final
	g.mu.Unlock()
	g.MarkDirty()
}

// FindTask returns the task with the given id.
func (g *Graph) FindTask(id string) (Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tasks {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

// HasTask reports whether a task of the given kind is present.
func (g *Graph) HasTask(kind string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tasks {
		if taskKind(t) == kind {
			return true
		}
	}
	return false
}

// Tasks returns a copy of the task list in registration order.
func (g *Graph) Tasks() []Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Task(nil), g.tasks...)
}

// Timeline returns the current timeline, nil before the first successful build.
func (g *Graph) Timeline() *Timeline {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeline
}

// State returns the executor state and, while executing, the stage index.
// It does not wait for a running frame.
func (g *Graph) State() (State, int) {
	return State(g.state.Load()), int(g.stage.Load())
}

// Build rebuilds the timeline now, regardless of the dirty flag.
func (g *Graph) Build(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dirty.Store(false)
	return g.rebuildLocked(ctx)
}

func (g *Graph) rebuildLocked(ctx context.Context) error {
	g.poolVersion = g.pool.Version()
	g.timeline = nil
	g.state.Store(int32(Idle))
	tl, err := Build(ctx, g.tasks, g.pool, g.final, g.opts...)
	if err != nil {
		g.buildErr = err
		return err
	}
	g.timeline = tl
	g.buildErr = nil
	g.state.Store(int32(Built))
	return nil
}

// Execute runs one frame, rebuilding first when the topology changed. After a
// failed build it keeps returning that error until the graph is marked dirty
// and rebuilds successfully.
func (g *Graph) Execute(ctx context.Context, frame FrameInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dirty.Swap(false) || g.pool.Version() != g.poolVersion {
		ctxlog.FromContext(ctx).Debug("Rebuilding render graph before frame.", "frame", frame.Index)
		if err := g.rebuildLocked(ctx); err != nil {
			return err
		}
	}
	if g.timeline == nil {
		if g.buildErr != nil {
			return g.buildErr
		}
		return ErrNotBuilt
	}

	g.state.Store(int32(Executing))
	g.timeline.run(ctx, frame, func(stage int) { g.stage.Store(int32(stage)) })
	g.stage.Store(0)
	g.state.Store(int32(Idle))
	return nil
}

// Update forwards elapsed time to every task implementing Updater.
func (g *Graph) Update(dt float64) {
	for _, t := range g.Tasks() {
		if u, ok := t.(Updater); ok {
			u.Update(dt)
		}
	}
}

func taskKind(t Task) string {
	if k, ok := t.(Kinded); ok && k.Kind() != "" {
		return k.Kind()
	}
	return t.ID()
}
