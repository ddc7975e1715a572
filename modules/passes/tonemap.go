package passes

import (
	"fmt"
	"slices"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

var tonemapOperators = []string{"aces", "reinhard", "linear"}

// TonemapArgs defines the arguments of the tone mapping pass.
type TonemapArgs struct {
	Exposure float64 `cty:"exposure"`
	Operator string  `cty:"operator"`
}

func defaultTonemapArgs() *TonemapArgs { return &TonemapArgs{Exposure: 1, Operator: "aces"} }

// Tonemap maps HDR color to the display range. An optional bloom input is
// added when some task produces it.
type Tonemap struct {
	pass
	args TonemapArgs
}

func newTonemap(spec registry.TaskSpec, args *TonemapArgs) (rendergraph.Task, error) {
	if !slices.Contains(tonemapOperators, args.Operator) {
		return nil, fmt.Errorf("operator must be one of %v, got %q", tonemapOperators, args.Operator)
	}
	if args.Exposure <= 0 {
		return nil, fmt.Errorf("exposure must be positive, got %v", args.Exposure)
	}
	return &Tonemap{pass: newPass(spec), args: *args}, nil
}

func (t *Tonemap) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	t.record(out, "tonemap op=%s exposure=%.2f inputs=%s", t.args.Operator, t.args.Exposure, t.inputList())
}
