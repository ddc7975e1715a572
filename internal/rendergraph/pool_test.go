package rendergraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/internal/testutil"
)

func TestPool_FactoriesByKind(t *testing.T) {
	t.Parallel()

	tr := &testutil.Trace{}
	made := make(map[string]*testutil.StubResource)
	pool := rendergraph.NewPool()
	pool.RegisterFactory("surface", testutil.StubFactory(tr, made))
	pool.Declare("hdr", "surface", rendergraph.Shared)
	pool.Declare("ldr", "surface", rendergraph.Exclusive)

	list := tasks(
		testutil.NewStubTask(tr, "lighting", nil, "hdr"),
		testutil.NewStubTask(tr, "tonemap", []string{"hdr"}, "ldr"),
	)
	_, err := rendergraph.Build(context.Background(), list, pool, "ldr")
	require.NoError(t, err)

	assert.Equal(t, []string{"hdr", "ldr"}, pool.Tags())
	assert.Equal(t, "surface", pool.Kind("ldr"))
	assert.Equal(t, "unknown", pool.Kind("unknown"))
	assert.Equal(t, rendergraph.Exclusive, pool.Ownership("ldr"))
	assert.Equal(t, rendergraph.Shared, pool.Ownership("hdr"))
	assert.Contains(t, made, "hdr")
}

func TestPool_UnknownKind(t *testing.T) {
	t.Parallel()

	tr := &testutil.Trace{}
	pool := rendergraph.NewPool()

	_, err := rendergraph.Build(context.Background(),
		tasks(testutil.NewStubTask(tr, "draw", nil, "final")), pool, "final")

	require.ErrorIs(t, err, rendergraph.ErrUnknownResource)
	assert.ErrorContains(t, err, `no factory for kind "final"`)
}

func TestPool_ResetAndResize(t *testing.T) {
	t.Parallel()

	tr := &testutil.Trace{}
	pool, made := stubPool(tr, "final")
	screen := testutil.NewStubResource("screen", tr)
	pool.Put("screen", screen)

	_, err := rendergraph.Build(context.Background(),
		tasks(testutil.NewStubTask(tr, "draw", nil, "final")), pool, "final")
	require.NoError(t, err)

	pool.Resize(640, 480)
	assert.Equal(t, 640, screen.Width)
	assert.Equal(t, 480, made["final"].Height)

	before := pool.Version()
	pool.Reset()
	assert.Greater(t, pool.Version(), before)
	assert.Equal(t, int32(1), made["final"].Released.Load())
	assert.Equal(t, int32(0), screen.Released.Load())

	_, ok := pool.Get("final")
	assert.False(t, ok)
	got, ok := pool.Get("screen")
	require.True(t, ok)
	assert.Same(t, screen, got)

	pool.Remove("screen")
	assert.False(t, pool.HasExternal("screen"))
}
