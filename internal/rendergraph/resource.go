package rendergraph

import "context"

// FrameInfo is the opaque per-frame handle threaded through execution.
type FrameInfo struct {
	Index   uint64
	Payload any
}

// InitContext is passed to Resource.Create.
type InitContext struct {
	Context context.Context
	Tag     string
	Kind    string
}

// ExecutionContext is passed to every per-frame callback.
type ExecutionContext struct {
	Context context.Context
	Frame   FrameInfo
	// Stage is the index of the stage currently executing.
	Stage int
	// BuildID identifies the timeline being replayed.
	BuildID string
}

// Resource is a frame-transient node produced and consumed by tasks.
type Resource interface {
	// Create materializes the backing storage. It must be idempotent and
	// report true only for the call that actually allocated.
	Create(ic InitContext) (bool, error)
	// StartOutput opens the write window of a task group.
	StartOutput(ec *ExecutionContext)
	// EndOutput closes the write window opened by StartOutput.
	EndOutput(ec *ExecutionContext)
}

// InputPreparer is implemented by resources that need work before they can
// be read, such as resolving a multisampled surface.
type InputPreparer interface {
	PrepareForInput(ec *ExecutionContext)
}

// Resizer is implemented by resources whose storage depends on the output size.
type Resizer interface {
	OnResize(width, height int)
}

// Releaser is implemented by resources holding storage that must be freed
// when the pool is reset.
type Releaser interface {
	Release()
}

// ResourceFactory returns a new, not yet materialized resource for tag.
type ResourceFactory func(tag string) (Resource, error)
