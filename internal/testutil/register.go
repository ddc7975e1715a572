package testutil

import (
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// TraceModule registers a "trace" task kind and a "trace" resource kind that
// record into Trace. It lets app-level tests observe execution order without
// depending on the built-in passes.
type TraceModule struct {
	Trace *Trace
}

// Register implements registry.Module.
func (m *TraceModule) Register(r *registry.Registry) {
	r.RegisterTaskKind("trace", &registry.TaskKind{
		New: func(spec registry.TaskSpec, _ any) (rendergraph.Task, error) {
			t := &StubTask{Trace: m.Trace}
			t.TaskID = spec.ID
			t.TaskKind = spec.Kind
			t.Decl = spec.Decl
			return t, nil
		},
	})
	r.RegisterResourceKind("trace", &registry.ResourceKind{
		New: func(tag string, _ any) (rendergraph.Resource, error) {
			res := NewStubResource(tag, m.Trace)
			res.TraceWindows = true
			return res, nil
		},
	})
}
