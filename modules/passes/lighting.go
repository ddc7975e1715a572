package passes

import (
	"fmt"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// LightingArgs defines the arguments of the lighting pass.
type LightingArgs struct {
	Lights  int     `cty:"lights"`
	Ambient float64 `cty:"ambient"`
}

func defaultLightingArgs() *LightingArgs { return &LightingArgs{Lights: 1, Ambient: 0.1} }

// Lighting resolves the geometry buffers into lit color.
type Lighting struct {
	pass
	args LightingArgs
}

func newLighting(spec registry.TaskSpec, args *LightingArgs) (rendergraph.Task, error) {
	if args.Lights < 0 {
		return nil, fmt.Errorf("lights must not be negative, got %d", args.Lights)
	}
	return &Lighting{pass: newPass(spec), args: *args}, nil
}

func (l *Lighting) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	l.record(out, "light lights=%d ambient=%.2f inputs=%s", l.args.Lights, l.args.Ambient, l.inputList())
}
