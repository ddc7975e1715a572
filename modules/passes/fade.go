package passes

import (
	"fmt"
	"sync"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// FadeArgs defines the arguments of the fade effect.
type FadeArgs struct {
	Duration float64 `cty:"duration"`
	From     float64 `cty:"from"`
	To       float64 `cty:"to"`
}

func defaultFadeArgs() *FadeArgs { return &FadeArgs{Duration: 1, From: 0, To: 1} }

// Fade blends its output towards a target opacity over time. It advances
// through Update and holds the target once the duration has elapsed.
type Fade struct {
	pass
	args FadeArgs

	mu      sync.Mutex
	elapsed float64
}

func newFade(spec registry.TaskSpec, args *FadeArgs) (rendergraph.Task, error) {
	if args.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", args.Duration)
	}
	return &Fade{pass: newPass(spec), args: *args}, nil
}

func (f *Fade) Update(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapsed += dt
}

// Alpha returns the current opacity.
func (f *Fade) Alpha() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := min(f.elapsed/f.args.Duration, 1)
	return f.args.From + (f.args.To-f.args.From)*t
}

// Done reports whether the fade reached its target.
func (f *Fade) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed >= f.args.Duration
}

func (f *Fade) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	f.record(out, "fade alpha=%.2f", f.Alpha())
}
