package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/framegraph/internal/config"
	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/zclconf/go-cty/cty"
)

// DefaultResourceKind is the kind given to tags no `resource` block declares.
const DefaultResourceKind = "surface"

// ErrUnknownKind is returned when a block names a kind nothing registered.
var ErrUnknownKind = errors.New("unknown kind")

// Assembly is the engine-facing result of a pipeline model. Building one
// never touches the pool; Apply installs it.
type Assembly struct {
	Final string
	Tasks []rendergraph.Task
	// Externals lists the external tags of the model in declaration order.
	Externals []string
	// Width and Height, when both positive, resize the pool on Apply.
	Width, Height int

	factories map[string]rendergraph.ResourceFactory
	declared  []declaration
	puts      []external
}

type declaration struct {
	tag, kind string
	own       rendergraph.Ownership
}

type external struct {
	tag string
	res rendergraph.Resource
}

// Builder assembles pipeline models against one registry.
type Builder struct {
	reg         *registry.Registry
	conv        config.Converter
	defaultKind string
}

// Option configures a Builder.
type Option func(*Builder)

// WithDefaultResourceKind overrides DefaultResourceKind.
func WithDefaultResourceKind(kind string) Option {
	return func(b *Builder) { b.defaultKind = kind }
}

// New creates a Builder.
func New(reg *registry.Registry, conv config.Converter, opts ...Option) *Builder {
	b := &Builder{
		reg:         reg,
		conv:        conv,
		defaultKind: DefaultResourceKind,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Assemble validates model and constructs its tasks, factories and resource
// declarations. pool is only read: external instances it already holds under
// the same kind are reused by Apply instead of being recreated.
func (b *Builder) Assemble(ctx context.Context, model *config.Model, pool *rendergraph.Pool) (*Assembly, error) {
	ctx = ctxlog.With(ctx, "component", "builder")
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Assembling pipeline.", "files", model.Files)

	if err := model.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	asm := &Assembly{
		Final:     model.Pipeline.Final,
		Width:     model.Pipeline.Width,
		Height:    model.Pipeline.Height,
		factories: make(map[string]rendergraph.ResourceFactory),
	}

	args := make(map[string]*config.Resource, len(model.Resources))
	for _, r := range model.Resources {
		args[r.Tag] = r
	}
	for _, kind := range b.reg.ResourceKinds() {
		asm.factories[kind] = b.factory(ctx, kind, args)
	}

	if err := b.declareResources(ctx, model, pool, asm); err != nil {
		return nil, err
	}
	logger.Debug("Resources declared.", "declared", len(asm.declared), "external", len(asm.Externals))

	tasks, err := b.constructTasks(ctx, model)
	if err != nil {
		return nil, err
	}
	asm.Tasks = tasks
	logger.Debug("Tasks constructed.", "count", len(tasks))
	return asm, nil
}

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	reset bool
}

// WithPoolReset releases the instances tasks of the previous pipeline created
// before installing the assembly, so that changed resource arguments apply.
func WithPoolReset() ApplyOption {
	return func(c *applyConfig) { c.reset = true }
}

// Apply installs a into g's pool and swaps in its tasks. It runs between
// frames; the graph rebuilds before the next one.
func Apply(ctx context.Context, g *rendergraph.Graph, a *Assembly, opts ...ApplyOption) {
	var cfg applyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	g.Reconfigure(func(pool *rendergraph.Pool) ([]rendergraph.Task, string) {
		if cfg.reset {
			pool.Reset()
		}
		a.install(pool)
		return a.Tasks, a.Final
	})
	ctxlog.FromContext(ctx).Debug("Assembly applied to graph.", "final", a.Final, "tasks", len(a.Tasks),
		"reset", cfg.reset)
}

func (a *Assembly) install(pool *rendergraph.Pool) {
	for kind, f := range a.factories {
		pool.RegisterFactory(kind, f)
	}
	for _, d := range a.declared {
		pool.Declare(d.tag, d.kind, d.own)
	}
	for _, e := range a.puts {
		pool.Put(e.tag, e.res)
	}
	if a.Width > 0 && a.Height > 0 {
		pool.Resize(a.Width, a.Height)
	}
}

func (b *Builder) declareResources(ctx context.Context, model *config.Model, pool *rendergraph.Pool, asm *Assembly) error {
	declared := make(map[string]struct{}, len(model.Resources))

	for _, r := range model.Resources {
		declared[r.Tag] = struct{}{}
		kind := r.Kind
		if kind == "" {
			kind = r.Tag
		}
		own, err := rendergraph.ParseOwnership(r.Ownership)
		if err != nil {
			return fmt.Errorf("resource %q: %w", r.Tag, err)
		}
		if _, ok := b.reg.ResourceKind(kind); !ok {
			return fmt.Errorf("resource %q: %w %q", r.Tag, ErrUnknownKind, kind)
		}

		asm.declared = append(asm.declared, declaration{tag: r.Tag, kind: kind, own: own})
		if !r.External {
			continue
		}
		asm.Externals = append(asm.Externals, r.Tag)
		if pool.HasExternal(r.Tag) && pool.Kind(r.Tag) == kind {
			continue
		}
		inst, err := b.newResource(ctx, kind, r)
		if err != nil {
			return err
		}
		asm.puts = append(asm.puts, external{tag: r.Tag, res: inst})
	}

	// Tags that only tasks mention get the default kind.
	if _, ok := b.reg.ResourceKind(b.defaultKind); !ok {
		return nil
	}
	for _, t := range model.EnabledTasks() {
		for _, tag := range taskTags(t) {
			if _, ok := declared[tag]; ok {
				continue
			}
			declared[tag] = struct{}{}
			if !pool.HasExternal(tag) {
				asm.declared = append(asm.declared, declaration{tag: tag, kind: b.defaultKind, own: rendergraph.Shared})
			}
		}
	}
	return nil
}

// factory returns the pool factory for kind. Arguments are looked up by tag
// in the model the factory was assembled from.
func (b *Builder) factory(ctx context.Context, kind string, args map[string]*config.Resource) rendergraph.ResourceFactory {
	return func(tag string) (rendergraph.Resource, error) {
		r := args[tag]
		if r == nil {
			r = &config.Resource{Tag: tag, Kind: kind}
		}
		return b.newResource(ctx, kind, r)
	}
}

func (b *Builder) newResource(ctx context.Context, kind string, r *config.Resource) (rendergraph.Resource, error) {
	k, ok := b.reg.ResourceKind(kind)
	if !ok {
		return nil, fmt.Errorf("resource %q: %w %q", r.Tag, ErrUnknownKind, kind)
	}
	args := k.NewResourceArgs()
	if err := b.decode(ctx, r.Arguments, args); err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Tag, err)
	}
	inst, err := k.New(r.Tag, args)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Tag, err)
	}
	return inst, nil
}

func (b *Builder) constructTasks(ctx context.Context, model *config.Model) ([]rendergraph.Task, error) {
	enabled := model.EnabledTasks()
	tasks := make([]rendergraph.Task, 0, len(enabled))
	for _, t := range enabled {
		k, ok := b.reg.TaskKind(t.Kind)
		if !ok {
			return nil, fmt.Errorf("task %q: %w %q", t.ID, ErrUnknownKind, t.Kind)
		}
		decl, err := Declaration(t)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", t.ID, err)
		}
		args := k.NewTaskArgs()
		if err := b.decode(ctx, t.Arguments, args); err != nil {
			return nil, fmt.Errorf("task %q: %w", t.ID, err)
		}
		task, err := k.New(registry.TaskSpec{ID: t.ID, Kind: t.Kind, Decl: decl}, args)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", t.ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (b *Builder) decode(ctx context.Context, in map[string]cty.Value, args any) error {
	if args == nil {
		if len(in) > 0 {
			return errors.New("kind takes no arguments")
		}
		return nil
	}
	return b.conv.Decode(ctx, in, args)
}

// Declaration converts a configured task into its engine declaration.
func Declaration(t *config.Task) (rendergraph.Declaration, error) {
	decl := rendergraph.Declaration{
		Required: append([]string(nil), t.Requires...),
		Optional: append([]string(nil), t.Optional...),
		Sidecars: append([]string(nil), t.Sidecars...),
	}
	if len(t.Fallbacks) > 0 {
		decl.Fallbacks = make(map[string][]string, len(t.Fallbacks))
		for input, alts := range t.Fallbacks {
			decl.Fallbacks[input] = append([]string(nil), alts...)
		}
	}
	for _, o := range t.Outputs {
		create, err := rendergraph.ParseCreationPolicy(o.Create)
		if err != nil {
			return decl, fmt.Errorf("output %q: %w", o.Tag, err)
		}
		order, err := rendergraph.ParseOrder(o.Order)
		if err != nil {
			return decl, fmt.Errorf("output %q: %w", o.Tag, err)
		}
		out := rendergraph.Output{
			Tag:        o.Tag,
			Create:     create,
			Order:      order,
			After:      append([]string(nil), o.After...),
			SharedWith: append([]string(nil), o.SharedWith...),
		}
		for _, alt := range o.Alternatives {
			altCreate, err := rendergraph.ParseCreationPolicy(alt.Create)
			if err != nil {
				return decl, fmt.Errorf("output %q alternative %q: %w", o.Tag, alt.Tag, err)
			}
			out.Alternatives = append(out.Alternatives, rendergraph.OutputOption{Tag: alt.Tag, Create: altCreate})
		}
		decl.Outputs = append(decl.Outputs, out)
	}
	return decl, nil
}

// taskTags lists every tag a task may touch, including the fallbacks and
// alternatives the build may pick instead of the declared ones.
func taskTags(t *config.Task) []string {
	tags := make([]string, 0, len(t.Requires)+len(t.Optional)+len(t.Sidecars)+len(t.Outputs))
	tags = append(tags, t.Requires...)
	tags = append(tags, t.Optional...)
	for _, input := range slices.Concat(t.Requires, t.Optional) {
		tags = append(tags, t.Fallbacks[input]...)
	}
	tags = append(tags, t.Sidecars...)
	for _, o := range t.Outputs {
		tags = append(tags, o.Tag)
		for _, alt := range o.Alternatives {
			tags = append(tags, alt.Tag)
		}
	}
	return tags
}
