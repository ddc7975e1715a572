package surface

import (
	"fmt"
	"sync"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
)

// Kind is the resource kind registered by this module.
const Kind = "surface"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a surface resource. A zero size follows the
// pipeline size delivered through OnResize.
type Args struct {
	Width  int    `cty:"width"`
	Height int    `cty:"height"`
	Format string `cty:"format"`
}

// Target is implemented by resources that accept drawing commands.
type Target interface {
	Record(cmd string)
}

// CommandLog is implemented by resources that expose what was drawn into
// them during the latest frame.
type CommandLog interface {
	Commands() []string
}

// Surface is an in-memory render target. Instead of pixels it keeps the
// commands recorded into it during the current frame.
type Surface struct {
	tag    string
	format string

	mu        sync.Mutex
	width     int
	height    int
	allocated bool
	started   bool
	frame     uint64
	log       []string
	reads     int
}

// New creates an unallocated surface.
func New(tag string, args *Args) *Surface {
	if args == nil {
		args = &Args{}
	}
	format := args.Format
	if format == "" {
		format = "rgba8"
	}
	return &Surface{tag: tag, format: format, width: args.Width, height: args.Height}
}

func (s *Surface) Tag() string { return s.tag }
func (s *Surface) Format() string { return s.format }

// Size returns the current dimensions.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Create allocates the surface once. Later calls report false.
func (s *Surface) Create(ic rendergraph.InitContext) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width < 0 || s.height < 0 {
		return false, fmt.Errorf("surface %q: negative size %dx%d", s.tag, s.width, s.height)
	}
	if s.allocated {
		return false, nil
	}
	s.allocated = true
	ctxlog.FromContext(ic.Context).Debug("Surface allocated.", "tag", s.tag, "kind", ic.Kind, "format", s.format,
		"width", s.width, "height", s.height)
	return true, nil
}

// StartOutput opens a write window. The first window of a frame clears the
// command log of the previous frame.
func (s *Surface) StartOutput(ec *rendergraph.ExecutionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || ec.Frame.Index != s.frame {
		s.started = true
		s.frame = ec.Frame.Index
		s.log = s.log[:0]
		s.reads = 0
	}
}

func (s *Surface) EndOutput(*rendergraph.ExecutionContext) {}

// PrepareForInput counts reads of the surface in the current frame.
func (s *Surface) PrepareForInput(*rendergraph.ExecutionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
}

// Record appends a drawing command.
func (s *Surface) Record(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, cmd)
}

// Commands returns a copy of the commands recorded in the latest frame.
func (s *Surface) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Reads returns how many times the surface was prepared as an input in the
// latest frame.
func (s *Surface) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Surface) OnResize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Release frees the surface. The next Create allocates it again.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocated = false
	s.started = false
	s.log = nil
}

// Register registers the resource kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResourceKind(Kind, &registry.ResourceKind{
		NewArgs: func() any { return new(Args) },
		New: func(tag string, args any) (rendergraph.Resource, error) {
			return New(tag, args.(*Args)), nil
		},
	})
}
