package swapframe

import (
	"sync/atomic"

	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/modules/surface"
)

// Kind is the resource kind registered by this module.
const Kind = "swapframe"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a swapframe resource.
type Args struct {
	Width  int    `cty:"width"`
	Height int    `cty:"height"`
	Format string `cty:"format"`
	VSync  bool   `cty:"vsync"`
}

// Frame is the presentable back buffer of a window. It is normally created
// by the application and put into the pool as an external resource. Every
// closed write window counts as one presentation.
type Frame struct {
	*surface.Surface
	vsync     bool
	presented atomic.Uint64
}

// New creates a swap frame.
func New(tag string, args *Args) *Frame {
	if args == nil {
		args = &Args{}
	}
	return &Frame{Surface: surface.New(tag, &surface.Args{Width: args.Width, Height: args.Height, Format: args.Format}), vsync: args.VSync}
}

// EndOutput presents the frame.
func (f *Frame) EndOutput(ec *rendergraph.ExecutionContext) {
	f.Surface.EndOutput(ec)
	f.presented.Add(1)
}

// Presented returns how many times the frame was presented.
func (f *Frame) Presented() uint64 { return f.presented.Load() }

// VSync reports whether presentation waits for vertical sync.
func (f *Frame) VSync() bool { return f.vsync }

// Register registers the resource kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResourceKind(Kind, &registry.ResourceKind{
		NewArgs: func() any { return new(Args) },
		New: func(tag string, args any) (rendergraph.Resource, error) {
			return New(tag, args.(*Args)), nil
		},
	})
}
