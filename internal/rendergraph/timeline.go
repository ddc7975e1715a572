package rendergraph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stage is everything runnable at one execution step.
type Stage struct {
	Step   uint32
	Groups []*TaskGroup
}

// Tasks returns each task of the stage once, in first-appearance order.
func (s *Stage) Tasks() []Task {
	seen := make(map[string]struct{})
	var out []Task
	for _, g := range s.Groups {
		for _, e := range g.entries {
			if _, ok := seen[e.id]; ok {
				continue
			}
			seen[e.id] = struct{}{}
			out = append(out, e.task)
		}
	}
	return out
}

// Timeline is the immutable result of Build.
type Timeline struct {
	id      string
	final   string
	stages  []*Stage
	steps   map[string]uint32
	first   map[string]bool
	dropped []string
	hooks   Hooks
}

// ID is a unique id assigned to every successful build.
func (tl *Timeline) ID() string { return tl.id }

// Final returns the tag of the final resource.
func (tl *Timeline) Final() string { return tl.final }

// Stages returns the stages in execution order. Steps with no groups are
// omitted, so a stage index is not necessarily equal to its Step.
func (tl *Timeline) Stages() []*Stage { return tl.stages }

// Step returns the first available step of a resource, or Unset.
func (tl *Timeline) Step(tag string) uint32 {
	if s, ok := tl.steps[tag]; ok {
		return s
	}
	return Unset
}

// IsFirst reports whether none of the task's inputs has a producer.
func (tl *Timeline) IsFirst(taskID string) bool { return tl.first[taskID] }

// Dropped lists tasks that take no part in the timeline.
func (tl *Timeline) Dropped() []string { return tl.dropped }

// GroupSnapshot is a plain view of a TaskGroup.
type GroupSnapshot struct {
	Resource string   `json:"resource"`
	Tasks    []string `json:"tasks"`
}

// StageSnapshot is a plain view of a Stage.
type StageSnapshot struct {
	Step   uint32          `json:"step"`
	Groups []GroupSnapshot `json:"groups"`
}

// Snapshot returns a detached description of the timeline.
func (tl *Timeline) Snapshot() []StageSnapshot {
	out := make([]StageSnapshot, len(tl.stages))
	for i, st := range tl.stages {
		ss := StageSnapshot{Step: st.Step, Groups: make([]GroupSnapshot, len(st.Groups))}
		for j, g := range st.Groups {
			ss.Groups[j] = GroupSnapshot{Resource: g.Tag, Tasks: g.TaskIDs()}
		}
		out[i] = ss
	}
	return out
}

// Execute replays the timeline for one frame.
func (tl *Timeline) Execute(ctx context.Context, frame FrameInfo) {
	tl.run(ctx, frame, nil)
}

// run walks the stages. Each stage prepares the inputs of all of its tasks
// before any of its groups write.
func (tl *Timeline) run(ctx context.Context, frame FrameInfo, onStage func(int)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rendergraph.frame",
		trace.WithAttributes(
			attribute.String("rendergraph.build_id", tl.id),
			attribute.Int64("rendergraph.frame", int64(frame.Index)),
		))
	defer span.End()
	start := time.Now()

	ec := &ExecutionContext{Context: ctx, Frame: frame, BuildID: tl.id}
	for i, st := range tl.stages {
		if onStage != nil {
			onStage(i)
		}
		ec.Stage = i
		span.AddEvent("stage", trace.WithAttributes(
			attribute.Int("rendergraph.stage", i),
			attribute.Int("rendergraph.groups", len(st.Groups)),
		))

		for _, t := range st.Tasks() {
			t.PrepareInputs(ec)
		}
		for _, g := range st.Groups {
			g.resource.StartOutput(ec)
			for _, e := range g.entries {
				e.task.Execute(ec, g.resource)
			}
			g.resource.EndOutput(ec)
		}
	}

	if tl.hooks != nil {
		tl.hooks.FrameExecuted(ctx, tl, frame, time.Since(start))
	}
}
