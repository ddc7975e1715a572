package passes

import (
	"fmt"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// ShadowmapArgs defines the arguments of the shadow map pass.
type ShadowmapArgs struct {
	Cascades   int `cty:"cascades"`
	Resolution int `cty:"resolution"`
}

func defaultShadowmapArgs() *ShadowmapArgs { return &ShadowmapArgs{Cascades: 4, Resolution: 2048} }

// Shadowmap renders depth from the light's point of view.
type Shadowmap struct {
	pass
	args ShadowmapArgs
}

func newShadowmap(spec registry.TaskSpec, args *ShadowmapArgs) (rendergraph.Task, error) {
	if args.Cascades < 1 || args.Cascades > 8 {
		return nil, fmt.Errorf("cascades must be between 1 and 8, got %d", args.Cascades)
	}
	if args.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %d", args.Resolution)
	}
	return &Shadowmap{pass: newPass(spec), args: *args}, nil
}

func (s *Shadowmap) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	s.record(out, "shadow cascades=%d resolution=%d", s.args.Cascades, s.args.Resolution)
}
