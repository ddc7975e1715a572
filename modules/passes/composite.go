package passes

import (
	"fmt"
	"strings"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// CompositeArgs defines the arguments of the composite pass. Weights are
// matched with the required inputs by position; no weights means an equal
// split.
type CompositeArgs struct {
	Weights []float64 `cty:"weights"`
}

func defaultCompositeArgs() *CompositeArgs { return &CompositeArgs{} }

// Composite blends its inputs into one output.
type Composite struct {
	pass
	weights []float64
}

func newComposite(spec registry.TaskSpec, args *CompositeArgs) (rendergraph.Task, error) {
	n := len(spec.Decl.Required)
	if n == 0 {
		return nil, fmt.Errorf("composite needs at least one required input")
	}
	weights := args.Weights
	if len(weights) == 0 {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1 / float64(n)
		}
	}
	if len(weights) != n {
		return nil, fmt.Errorf("got %d weights for %d required inputs", len(weights), n)
	}
	return &Composite{pass: newPass(spec), weights: weights}, nil
}

func (c *Composite) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	terms := make([]string, len(c.weights))
	for i, tag := range c.Decl.Required {
		terms[i] = fmt.Sprintf("%s*%.2f", c.Bound.Tag(tag), c.weights[i])
	}
	c.record(out, "composite %s", strings.Join(terms, " + "))
}
