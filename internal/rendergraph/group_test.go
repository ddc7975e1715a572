package rendergraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/internal/testutil"
)

func orderedWriter(tr *testutil.Trace, id string, order rendergraph.Order, inputs []string, after ...string) *testutil.StubTask {
	t := testutil.NewStubTask(tr, id, inputs, "final")
	t.Decl.Outputs[0].Order = order
	t.Decl.Outputs[0].After = after
	return t
}

// groupsFor collects every group of the timeline writing tag.
func groupsFor(tl *rendergraph.Timeline, tag string) []*rendergraph.TaskGroup {
	var out []*rendergraph.TaskGroup
	for _, st := range tl.Stages() {
		for _, g := range st.Groups {
			if g.Tag == tag {
				out = append(out, g)
			}
		}
	}
	return out
}

func TestGroup_ExclusiveOrdering(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		tasks func(tr *testutil.Trace) []rendergraph.Task
		want  []string
	}{
		{
			name: "first unordered last",
			tasks: func(tr *testutil.Trace) []rendergraph.Task {
				return tasks(
					orderedWriter(tr, "overlay", rendergraph.Last, nil),
					orderedWriter(tr, "sky", rendergraph.Unordered, nil),
					orderedWriter(tr, "clear", rendergraph.First, nil),
					orderedWriter(tr, "mesh", rendergraph.Unordered, nil),
				)
			},
			want: []string{"clear", "sky", "mesh", "overlay"},
		},
		{
			name: "numeric ranks sort between anchors",
			tasks: func(tr *testutil.Trace) []rendergraph.Task {
				return tasks(
					orderedWriter(tr, "late", rendergraph.Order(15), nil),
					orderedWriter(tr, "end", rendergraph.Last, nil),
					orderedWriter(tr, "early", rendergraph.Order(5), nil),
					orderedWriter(tr, "start", rendergraph.First, nil),
				)
			},
			want: []string{"start", "early", "late", "end"},
		},
		{
			name: "explicit predecessors override order",
			tasks: func(tr *testutil.Trace) []rendergraph.Task {
				return tasks(
					orderedWriter(tr, "a", rendergraph.First, nil, "b"),
					orderedWriter(tr, "b", rendergraph.Unordered, nil),
					orderedWriter(tr, "c", rendergraph.Unordered, nil),
				)
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "predecessors outside the group are ignored",
			tasks: func(tr *testutil.Trace) []rendergraph.Task {
				return tasks(
					orderedWriter(tr, "a", rendergraph.Unordered, nil, "elsewhere"),
					orderedWriter(tr, "b", rendergraph.First, nil),
				)
			},
			want: []string{"b", "a"},
		},
		{
			name: "producers at different steps share one group",
			tasks: func(tr *testutil.Trace) []rendergraph.Task {
				return tasks(
					testutil.NewStubTask(tr, "source", nil, "X"),
					orderedWriter(tr, "late", rendergraph.Last, []string{"X"}),
					orderedWriter(tr, "early", rendergraph.First, nil),
				)
			},
			want: []string{"early", "late"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := &testutil.Trace{}
			pool, _ := stubPool(tr, "X", "final")
			pool.Declare("final", "final", rendergraph.Exclusive)

			tl, err := rendergraph.Build(context.Background(), tc.tasks(tr), pool, "final")
			require.NoError(t, err)

			groups := groupsFor(tl, "final")
			require.Len(t, groups, 1, "an exclusive resource has exactly one group")
			assert.Equal(t, rendergraph.Exclusive, groups[0].Ownership)
			assert.Equal(t, tc.want, groups[0].TaskIDs())
		})
	}
}

func TestGroup_PredecessorCycle(t *testing.T) {
	t.Parallel()

	tr := &testutil.Trace{}
	pool, _ := stubPool(tr, "final")
	list := tasks(
		orderedWriter(tr, "a", rendergraph.Unordered, nil, "b"),
		orderedWriter(tr, "b", rendergraph.Unordered, nil, "a"),
	)

	_, err := rendergraph.Build(context.Background(), list, pool, "final")

	require.ErrorIs(t, err, rendergraph.ErrCycle)
	assert.ErrorContains(t, err, `resource "final"`)
}

func TestGroup_TaskInSeveralGroups(t *testing.T) {
	t.Parallel()

	tr := &testutil.Trace{}
	pool, _ := stubPool(tr, "color", "depth", "final")
	list := tasks(
		testutil.NewStubTask(tr, "gbuffer", nil, "color", "depth"),
		testutil.NewStubTask(tr, "resolve", []string{"color", "depth"}, "final"),
	)

	tl, err := rendergraph.Build(context.Background(), list, pool, "final")
	require.NoError(t, err)

	stages := tl.Stages()
	require.Len(t, stages, 2)
	require.Len(t, stages[0].Groups, 2)
	assert.Equal(t, "color", stages[0].Groups[0].Tag)
	assert.Equal(t, "depth", stages[0].Groups[1].Tag)
	assert.Len(t, stages[0].Tasks(), 1, "a task is listed once per stage")
}
