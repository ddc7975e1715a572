package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/framegraph/internal/rendergraph"
)

// TaskSpec is the engine-facing part of a configured task: everything the
// graph needs to know, independent of the kind's own arguments.
type TaskSpec struct {
	ID   string
	Kind string
	Decl rendergraph.Declaration
}

// TaskKind holds the compiled Go parts of a task kind.
type TaskKind struct {
	// NewArgs returns a pointer to a fresh arguments struct carrying the
	// kind's defaults. Nil means the kind takes no arguments.
	NewArgs func() any
	New     func(spec TaskSpec, args any) (rendergraph.Task, error)
}

// RegisterTaskKind registers the Go constructor for a task kind.
func (r *Registry) RegisterTaskKind(kind string, k *TaskKind) {
	if _, exists := r.taskKinds[kind]; exists {
		panic(fmt.Sprintf("task kind '%s' already registered", kind))
	}
	if k == nil || k.New == nil {
		panic(fmt.Sprintf("task kind '%s' has no constructor", kind))
	}
	slog.Debug("Registering task kind.", "kind", kind)
	r.taskKinds[kind] = k
}

// ResourceKind holds the compiled Go parts of a resource kind.
type ResourceKind struct {
	NewArgs func() any
	New     func(tag string, args any) (rendergraph.Resource, error)
}

// RegisterResourceKind registers the Go constructor for a resource kind.
func (r *Registry) RegisterResourceKind(kind string, k *ResourceKind) {
	if _, exists := r.resourceKinds[kind]; exists {
		panic(fmt.Sprintf("resource kind '%s' already registered", kind))
	}
	if k == nil || k.New == nil {
		panic(fmt.Sprintf("resource kind '%s' has no constructor", kind))
	}
	slog.Debug("Registering resource kind.", "kind", kind)
	r.resourceKinds[kind] = k
}

// NewTaskArgs returns a fresh arguments value for kind, or nil when the kind
// takes none.
func (k *TaskKind) NewTaskArgs() any {
	if k.NewArgs == nil {
		return nil
	}
	return k.NewArgs()
}

// NewResourceArgs is the resource counterpart of NewTaskArgs.
func (k *ResourceKind) NewResourceArgs() any {
	if k.NewArgs == nil {
		return nil
	}
	return k.NewArgs()
}
