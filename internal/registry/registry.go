package registry

import (
	"slices"
	"sort"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the task and resource kinds compiled into a single
// application instance.
type Registry struct {
	taskKinds     map[string]*TaskKind
	resourceKinds map[string]*ResourceKind
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		taskKinds:     make(map[string]*TaskKind),
		resourceKinds: make(map[string]*ResourceKind),
	}
}

// TaskKind returns the registered task kind, if any.
func (r *Registry) TaskKind(kind string) (*TaskKind, bool) {
	k, ok := r.taskKinds[kind]
	return k, ok
}

// ResourceKind returns the registered resource kind, if any.
func (r *Registry) ResourceKind(kind string) (*ResourceKind, bool) {
	k, ok := r.resourceKinds[kind]
	return k, ok
}

// TaskKinds lists registered task kinds in sorted order.
func (r *Registry) TaskKinds() []string {
	return sortedKeys(r.taskKinds)
}

// ResourceKinds lists registered resource kinds in sorted order.
func (r *Registry) ResourceKinds() []string {
	return sortedKeys(r.resourceKinds)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return slices.Clip(out)
}
