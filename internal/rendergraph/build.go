package rendergraph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vk/framegraph/internal/ctxlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vk/framegraph/internal/rendergraph"

type buildConfig struct {
	hooks      Hooks
	visitLimit int
}

// BuildOption customizes a single call to Build.
type BuildOption func(*buildConfig)

// WithHooks installs observers for resource initialization and build results.
func WithHooks(h Hooks) BuildOption {
	return func(c *buildConfig) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithVisitLimit overrides the worklist visit cap. Values <= 0 keep the
// default of len(tasks)*len(resources).
func WithVisitLimit(n int) BuildOption {
	return func(c *buildConfig) { c.visitLimit = n }
}

// node is a resource entry in the builder's arena.
type node struct {
	tag       string
	policy    CreationPolicy
	producers []int
	consumers []int
	step      uint32
	res       Resource
}

// taskNode is a task entry in the builder's arena. All cross references are
// indexes into builder.nodes.
type taskNode struct {
	task     Task
	id       string
	decl     Declaration
	required []int
	optional []int
	outputs  []int
	sidecars []int
	// resolved maps declared input tags to the fallback chosen for them.
	resolved map[string]string
	// chosen holds the option picked for every declared output.
	chosen  []OutputOption
	first   bool
	reached bool
	// best is the highest step the task was scheduled at.
	best uint32
}

type builder struct {
	ctx        context.Context
	log        *slog.Logger
	pool       *Pool
	hooks      Hooks
	tasks      []*taskNode
	nodes      []*node
	index      map[string]int
	discovered []int
	visits     int
}

type visit struct {
	task int
	step uint32
}

// Build levels tasks into a Timeline whose last produced resource is final.
// Resources are materialized from pool as tasks are visited. A nil pool is
// treated as an empty one.
func Build(ctx context.Context, tasks []Task, pool *Pool, final string, opts ...BuildOption) (tl *Timeline, err error) {
	cfg := buildConfig{hooks: NopHooks{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if pool == nil {
		pool = NewPool()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "rendergraph.build",
		trace.WithAttributes(
			attribute.String("rendergraph.final", final),
			attribute.Int("rendergraph.tasks", len(tasks)),
		))
	defer span.End()
	start := time.Now()

	b := &builder{
		ctx:   ctx,
		log:   ctxlog.FromContext(ctx).With("component", "rendergraph.builder"),
		pool:  pool,
		hooks: cfg.hooks,
		index: make(map[string]int),
	}

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.log.Error("Render graph build failed.", "error", err)
			cfg.hooks.BuildFailed(ctx, err)
			return
		}
		span.SetAttributes(
			attribute.String("rendergraph.build_id", tl.ID()),
			attribute.Int("rendergraph.stages", len(tl.stages)),
			attribute.Int("rendergraph.visits", b.visits),
		)
		cfg.hooks.TimelineBuilt(ctx, tl, time.Since(start))
	}()

	b.log.Debug("Indexing tasks and resources.", "tasks", len(tasks))
	if err := b.indexTasks(tasks, final); err != nil {
		return nil, err
	}
	if err := b.validate(final); err != nil {
		return nil, err
	}

	limit := cfg.visitLimit
	if limit <= 0 {
		limit = max(1, len(b.tasks)*len(b.nodes))
	}
	b.log.Debug("Leveling task graph.", "resources", len(b.nodes), "visit_limit", limit)
	if err := b.level(limit); err != nil {
		return nil, err
	}
	if err := b.checkResolved(final); err != nil {
		return nil, err
	}

	tl, err = b.timeline(final)
	if err != nil {
		return nil, err
	}
	b.bind()

	b.log.Info("Render graph built.",
		"build_id", tl.ID(),
		"stages", len(tl.stages),
		"tasks", len(b.discovered),
		"resources", len(tl.steps),
		"dropped", len(tl.dropped),
	)
	return tl, nil
}

// intern returns the arena index of tag, adding it when new.
func (b *builder) intern(tag string) int {
	if i, ok := b.index[tag]; ok {
		return i
	}
	b.nodes = append(b.nodes, &node{tag: tag, policy: CreatedByOtherTask, step: Unset})
	i := len(b.nodes) - 1
	b.index[tag] = i
	return i
}

func (b *builder) indexTasks(tasks []Task, final string) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		id := t.ID()
		if _, dup := seen[id]; dup {
			return buildErr(id, "", ErrDuplicateTask)
		}
		seen[id] = struct{}{}
		b.tasks = append(b.tasks, &taskNode{task: t, id: id, decl: t.Declaration(), best: Unset})
	}
	b.resolveTags(final)

	for i, tn := range b.tasks {
		for _, tag := range tn.decl.Required {
			tn.required = append(tn.required, b.intern(tn.inputTag(tag)))
		}
		for _, tag := range tn.decl.Optional {
			tn.optional = append(tn.optional, b.intern(tn.inputTag(tag)))
		}
		for _, opt := range tn.chosen {
			n := b.intern(opt.Tag)
			nd := b.nodes[n]
			if len(nd.producers) == 0 || opt.Create.strength() > nd.policy.strength() {
				nd.policy = opt.Create
			}
			nd.producers = append(nd.producers, i)
			tn.outputs = append(tn.outputs, n)
		}
		for _, tag := range tn.decl.Sidecars {
			tn.sidecars = append(tn.sidecars, b.intern(tag))
		}
	}

	for i, tn := range b.tasks {
		for _, n := range append(append([]int(nil), tn.required...), tn.optional...) {
			nd := b.nodes[n]
			if len(nd.producers) == 0 {
				continue
			}
			if len(nd.consumers) > 0 && nd.consumers[len(nd.consumers)-1] == i {
				continue
			}
			nd.consumers = append(nd.consumers, i)
		}
	}
	return nil
}

// resolveTags picks the concrete tag behind every input with fallbacks and
// every output with alternatives. An input takes the first candidate some
// task can write or the pool holds externally. An output then takes the first
// option that something wants and otherwise keeps its primary tag.
func (b *builder) resolveTags(final string) {
	writable := make(map[string]bool)
	for _, tn := range b.tasks {
		for _, out := range tn.decl.Outputs {
			for _, opt := range out.options() {
				writable[opt.Tag] = true
			}
		}
	}
	available := func(tag string) bool { return writable[tag] || b.pool.HasExternal(tag) }

	wanted := map[string]bool{final: true}
	for _, tn := range b.tasks {
		for _, tag := range tn.decl.inputs() {
			chosen := tag
			if !available(tag) {
				for _, alt := range tn.decl.Fallbacks[tag] {
					if available(alt) {
						chosen = alt
						break
					}
				}
			}
			if chosen != tag {
				if tn.resolved == nil {
					tn.resolved = make(map[string]string)
				}
				tn.resolved[tag] = chosen
				b.log.Debug("Input resolved to fallback.", "task", tn.id, "input", tag, "resource", chosen)
			}
			wanted[chosen] = true
		}
	}

	for _, tn := range b.tasks {
		tn.chosen = make([]OutputOption, len(tn.decl.Outputs))
		for k, out := range tn.decl.Outputs {
			opts := out.options()
			tn.chosen[k] = opts[0]
			for _, opt := range opts {
				if wanted[opt.Tag] || b.pool.HasExternal(opt.Tag) {
					tn.chosen[k] = opt
					break
				}
			}
			if tn.chosen[k].Tag != out.Tag {
				b.log.Debug("Output resolved to alternative.", "task", tn.id, "output", out.Tag, "resource", tn.chosen[k].Tag)
			}
		}
	}
}

// inputTag returns the resource read for the declared input tag.
func (tn *taskNode) inputTag(tag string) string {
	if r, ok := tn.resolved[tag]; ok {
		return r
	}
	return tag
}

// validate rejects graphs that cannot succeed before any resource is touched.
func (b *builder) validate(final string) error {
	for _, nd := range b.nodes {
		if len(nd.producers) > 0 && nd.policy == CreatedByOtherTask {
			return buildErr(b.tasks[nd.producers[0]].id, nd.tag, ErrNoCreator)
		}
	}
	for ti, tn := range b.tasks {
		for k, n := range tn.outputs {
			allowed := tn.decl.Outputs[k].SharedWith
			if len(allowed) == 0 {
				continue
			}
			for _, p := range b.nodes[n].producers {
				other := b.tasks[p].id
				if p == ti || slices.Contains(allowed, other) {
					continue
				}
				return buildErr(other, b.nodes[n].tag,
					fmt.Errorf("%w: %q shares it only with %v", ErrNotShareable, tn.id, allowed))
			}
		}
	}
	for _, tn := range b.tasks {
		for _, n := range tn.required {
			nd := b.nodes[n]
			if len(nd.producers) == 0 && !b.pool.HasExternal(nd.tag) {
				return buildErr(tn.id, nd.tag, ErrMissingInput)
			}
		}
		tn.first = true
		for _, n := range append(append([]int(nil), tn.required...), tn.optional...) {
			if len(b.nodes[n].producers) > 0 {
				tn.first = false
				break
			}
		}
	}
	if n, ok := b.index[final]; !ok || len(b.nodes[n].producers) == 0 {
		return buildErr("", final, fmt.Errorf("%w: no task produces it", ErrUnreachableFinal))
	}
	return nil
}

// level runs the FIFO worklist until every reachable output has a step.
// Steps only move forward; a queued visit superseded by a later, higher
// candidate for the same task is skipped without counting against limit.
func (b *builder) level(limit int) error {
	queue := make([]visit, 0, len(b.tasks))
	for i, tn := range b.tasks {
		if tn.first {
			tn.best = 0
			queue = append(queue, visit{task: i, step: 0})
		}
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		tn := b.tasks[v.task]
		if tn.best != v.step {
			continue
		}
		b.visits++
		if b.visits > limit {
			return buildErr(tn.id, "", fmt.Errorf("%w: leveling exceeded %d visits", ErrCycle, limit))
		}
		if !tn.reached {
			tn.reached = true
			b.discovered = append(b.discovered, v.task)
		}
		if err := b.materialize(tn); err != nil {
			return err
		}

		next := v.step + 1
		for _, n := range tn.outputs {
			nd := b.nodes[n]
			if nd.step != Unset && nd.step >= v.step {
				continue
			}
			nd.step = v.step
			for _, c := range nd.consumers {
				ct := b.tasks[c]
				if ct.best != Unset && ct.best >= next {
					continue
				}
				ct.best = next
				queue = append(queue, visit{task: c, step: next})
			}
		}
	}
	return nil
}

// materialize obtains and creates every resource tn touches.
func (b *builder) materialize(tn *taskNode) error {
	for _, group := range [][]int{tn.required, tn.optional} {
		for _, n := range group {
			nd := b.nodes[n]
			if len(nd.producers) > 0 {
				continue
			}
			if !b.pool.HasExternal(nd.tag) {
				continue
			}
			if err := b.ensure(tn.id, n, CreatedExternally); err != nil {
				return err
			}
		}
	}
	for _, n := range tn.outputs {
		if err := b.ensure(tn.id, n, b.nodes[n].policy); err != nil {
			return err
		}
	}
	for _, n := range tn.sidecars {
		policy := CreatedByThisTask
		if nd := b.nodes[n]; len(nd.producers) > 0 {
			policy = nd.policy
		}
		if err := b.ensure(tn.id, n, policy); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) ensure(taskID string, n int, policy CreationPolicy) error {
	nd := b.nodes[n]
	if nd.res != nil {
		return nil
	}
	r, err := b.pool.acquire(nd.tag, policy)
	if err != nil {
		return buildErr(taskID, nd.tag, err)
	}
	created, err := r.Create(InitContext{Context: b.ctx, Tag: nd.tag, Kind: b.pool.Kind(nd.tag)})
	if err != nil {
		return buildErr(taskID, nd.tag, fmt.Errorf("%w: %w", ErrResourceCreate, err))
	}
	nd.res = r
	if created {
		b.log.Debug("Resource initialized.", "resource", nd.tag, "task", taskID)
		b.hooks.ResourceInitialized(b.ctx, nd.tag, r)
	}
	return nil
}

func (b *builder) checkResolved(final string) error {
	if b.nodes[b.index[final]].step == Unset {
		return buildErr("", final, fmt.Errorf("%w: no seed task reaches it", ErrUnreachableFinal))
	}
	for _, ti := range b.discovered {
		tn := b.tasks[ti]
		for _, n := range tn.required {
			nd := b.nodes[n]
			if len(nd.producers) > 0 && nd.step == Unset {
				return buildErr(tn.id, nd.tag, fmt.Errorf("%w: producers never became ready", ErrMissingInput))
			}
		}
	}
	return nil
}

// timeline groups reached tasks by output resource and orders the groups
// into stages by the resource's step.
func (b *builder) timeline(final string) (*Timeline, error) {
	tl := &Timeline{
		id:    uuid.NewString(),
		final: final,
		steps: make(map[string]uint32),
		first: make(map[string]bool, len(b.tasks)),
		hooks: b.hooks,
	}
	for _, nd := range b.nodes {
		if nd.step != Unset {
			tl.steps[nd.tag] = nd.step
		}
	}

	byStep := make(map[uint32]*Stage)
	groupOf := make(map[int]*TaskGroup)
	for _, ti := range b.discovered {
		tn := b.tasks[ti]
		if len(tn.outputs) == 0 {
			b.log.Warn("Task has no outputs and will never execute.", "task", tn.id)
			tl.dropped = append(tl.dropped, tn.id)
			continue
		}
		for k, n := range tn.outputs {
			nd := b.nodes[n]
			g := groupOf[n]
			if g == nil {
				st := byStep[nd.step]
				if st == nil {
					st = &Stage{Step: nd.step}
					byStep[nd.step] = st
				}
				g = &TaskGroup{Tag: nd.tag, Ownership: b.pool.Ownership(nd.tag), resource: nd.res}
				st.Groups = append(st.Groups, g)
				groupOf[n] = g
			}
			out := tn.decl.Outputs[k]
			g.insert(groupEntry{task: tn.task, id: tn.id, order: out.Order, after: out.After})
		}
	}

	steps := make([]uint32, 0, len(byStep))
	for s := range byStep {
		steps = append(steps, s)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	for _, s := range steps {
		st := byStep[s]
		for _, g := range st.Groups {
			if err := g.applyPredecessors(); err != nil {
				return nil, buildErr("", g.Tag, err)
			}
			if g.Ownership == Exclusive {
				for _, tie := range g.orderTies() {
					b.log.Warn("Exclusive resource has producers with the same order; discovery order decides.",
						"resource", g.Tag, "tasks", tie)
				}
			}
		}
		tl.stages = append(tl.stages, st)
	}

	for _, tn := range b.tasks {
		tl.first[tn.id] = tn.first
		if !tn.reached {
			b.log.Debug("Task is unreachable from any seed task and was dropped.", "task", tn.id)
			tl.dropped = append(tl.dropped, tn.id)
		}
	}
	return tl, nil
}

// bind hands every reached task its concrete resources.
func (b *builder) bind() {
	for _, ti := range b.discovered {
		tn := b.tasks[ti]
		bind := Bindings{
			Inputs:   make(map[string]Resource, len(tn.required)+len(tn.optional)),
			Outputs:  make(map[string]Resource, len(tn.outputs)),
			Sidecars: make(map[string]Resource, len(tn.sidecars)),
			Resolved: make(map[string]string),
			First:    tn.first,
		}
		declared := tn.decl.inputs()
		for j, n := range append(append([]int(nil), tn.required...), tn.optional...) {
			nd := b.nodes[n]
			tag := declared[j]
			if nd.tag != tag {
				bind.Resolved[tag] = nd.tag
			}
			if len(nd.producers) > 0 && nd.step == Unset {
				bind.Inputs[tag] = nil
				continue
			}
			bind.Inputs[tag] = nd.res
		}
		for k, n := range tn.outputs {
			tag := tn.decl.Outputs[k].Tag
			if b.nodes[n].tag != tag {
				bind.Resolved[tag] = b.nodes[n].tag
			}
			bind.Outputs[tag] = b.nodes[n].res
		}
		for _, n := range tn.sidecars {
			bind.Sidecars[b.nodes[n].tag] = b.nodes[n].res
		}
		tn.task.OnGraphInit(bind)
	}
}
