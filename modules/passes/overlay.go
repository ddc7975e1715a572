package passes

import (
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// OverlayArgs defines the arguments of the overlay pass.
type OverlayArgs struct {
	Lines []string `cty:"lines"`
}

func defaultOverlayArgs() *OverlayArgs { return &OverlayArgs{} }

// Overlay draws text on top of its output.
type Overlay struct {
	pass
	args OverlayArgs
}

func newOverlay(spec registry.TaskSpec, args *OverlayArgs) (rendergraph.Task, error) {
	return &Overlay{pass: newPass(spec), args: *args}, nil
}

func (o *Overlay) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	for _, line := range o.args.Lines {
		o.record(out, "text %q", line)
	}
}
