package passes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/modules/surface"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every pass kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTaskKind("geometry", kind(newGeometry, defaultGeometryArgs))
	r.RegisterTaskKind("shadowmap", kind(newShadowmap, defaultShadowmapArgs))
	r.RegisterTaskKind("lighting", kind(newLighting, defaultLightingArgs))
	r.RegisterTaskKind("bloom", kind(newBloom, defaultBloomArgs))
	r.RegisterTaskKind("tonemap", kind(newTonemap, defaultTonemapArgs))
	r.RegisterTaskKind("fade", kind(newFade, defaultFadeArgs))
	r.RegisterTaskKind("overlay", kind(newOverlay, defaultOverlayArgs))
	r.RegisterTaskKind("composite", kind(newComposite, defaultCompositeArgs))
}

func kind[A any](newTask func(registry.TaskSpec, *A) (rendergraph.Task, error), defaults func() *A) *registry.TaskKind {
	return &registry.TaskKind{
		NewArgs: func() any { return defaults() },
		New: func(spec registry.TaskSpec, args any) (rendergraph.Task, error) {
			a, ok := args.(*A)
			if !ok || a == nil {
				a = defaults()
			}
			return newTask(spec, a)
		},
	}
}

// pass is the part shared by every built-in pass.
type pass struct {
	rendergraph.BaseTask
}

func newPass(spec registry.TaskSpec) pass {
	return pass{BaseTask: rendergraph.BaseTask{TaskID: spec.ID, TaskKind: spec.Kind, Decl: spec.Decl}}
}

// record appends a command prefixed with the task id to out, if out accepts
// commands.
func (p *pass) record(out rendergraph.Resource, format string, args ...any) {
	t, ok := out.(surface.Target)
	if !ok {
		return
	}
	t.Record(p.TaskID + ": " + fmt.Sprintf(format, args...))
}

// boundInputs lists the resources bound as inputs in the current timeline,
// in declaration order. Fallbacks are listed under the tag they resolved to.
func (p *pass) boundInputs() []string {
	var tags []string
	for _, group := range [][]string{p.Decl.Required, p.Decl.Optional} {
		for _, tag := range group {
			if p.Bound.Inputs[tag] == nil {
				continue
			}
			if bound := p.Bound.Tag(tag); !slices.Contains(tags, bound) {
				tags = append(tags, bound)
			}
		}
	}
	return tags
}

func (p *pass) inputList() string {
	in := p.boundInputs()
	if len(in) == 0 {
		return "-"
	}
	return strings.Join(in, ",")
}
