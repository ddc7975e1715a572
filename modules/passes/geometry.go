package passes

import (
	"fmt"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// GeometryArgs defines the arguments of the geometry pass.
type GeometryArgs struct {
	Meshes int  `cty:"meshes"`
	Clear  bool `cty:"clear"`
}

func defaultGeometryArgs() *GeometryArgs { return &GeometryArgs{Meshes: 1, Clear: true} }

// Geometry rasterizes the scene into its outputs.
type Geometry struct {
	pass
	args GeometryArgs
}

func newGeometry(spec registry.TaskSpec, args *GeometryArgs) (rendergraph.Task, error) {
	if args.Meshes < 0 {
		return nil, fmt.Errorf("meshes must not be negative, got %d", args.Meshes)
	}
	return &Geometry{pass: newPass(spec), args: *args}, nil
}

func (g *Geometry) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	if g.args.Clear {
		g.record(out, "clear")
	}
	g.record(out, "draw meshes=%d", g.args.Meshes)
}
