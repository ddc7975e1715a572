package passes

import (
	"fmt"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// BloomArgs defines the arguments of the bloom pass.
type BloomArgs struct {
	Threshold float64 `cty:"threshold"`
	Passes    int     `cty:"passes"`
}

func defaultBloomArgs() *BloomArgs { return &BloomArgs{Threshold: 1, Passes: 5} }

// Bloom extracts and blurs the bright parts of its input.
type Bloom struct {
	pass
	args BloomArgs
}

func newBloom(spec registry.TaskSpec, args *BloomArgs) (rendergraph.Task, error) {
	if args.Passes < 1 {
		return nil, fmt.Errorf("passes must be at least 1, got %d", args.Passes)
	}
	return &Bloom{pass: newPass(spec), args: *args}, nil
}

func (b *Bloom) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	b.record(out, "bloom threshold=%.2f passes=%d inputs=%s", b.args.Threshold, b.args.Passes, b.inputList())
}
