package builder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/builder"
	"github.com/vk/framegraph/internal/config"
	"github.com/vk/framegraph/internal/hcl"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/modules/passes"
	"github.com/vk/framegraph/modules/surface"
	"github.com/vk/framegraph/modules/swapframe"
	"github.com/zclconf/go-cty/cty"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, m := range []registry.Module{&surface.Module{}, &swapframe.Module{}, &passes.Module{}} {
		m.Register(reg)
	}
	require.NoError(t, reg.ValidateRegistry(context.Background()))
	return reg
}

// deferredModel is geometry -> lighting -> tonemap into an external swap frame.
func deferredModel() *config.Model {
	return &config.Model{
		Pipeline: &config.Pipeline{Final: "screen", Width: 320, Height: 200},
		Resources: []*config.Resource{
			{Tag: "screen", Kind: "swapframe", Ownership: "exclusive", External: true,
				Arguments: map[string]cty.Value{"vsync": cty.True}},
			{Tag: "hdr", Kind: "surface", Arguments: map[string]cty.Value{"format": cty.StringVal("rgba16f")}},
		},
		Tasks: []*config.Task{
			{ID: "geometry", Kind: "geometry", Enabled: true,
				Outputs:   []*config.Output{{Tag: "gbuffer"}},
				Arguments: map[string]cty.Value{"meshes": cty.NumberIntVal(3)}},
			{ID: "lighting", Kind: "lighting", Enabled: true, Requires: []string{"gbuffer"},
				Outputs: []*config.Output{{Tag: "hdr"}}},
			{ID: "tonemap", Kind: "tonemap", Enabled: true, Requires: []string{"hdr"}, Optional: []string{"bloom"},
				Outputs:   []*config.Output{{Tag: "screen", Create: "external", Order: "last"}},
				Arguments: map[string]cty.Value{"exposure": cty.NumberFloatVal(1.5)}},
			{ID: "bloom", Kind: "bloom", Enabled: false, Requires: []string{"hdr"},
				Outputs: []*config.Output{{Tag: "bloom"}}},
		},
	}
}

func TestAssemble_DeferredPipeline(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	b := builder.New(newRegistry(t), hcl.NewConverter())
	pool := rendergraph.NewPool()

	// Act
	asm, err := b.Assemble(ctx, deferredModel(), pool)
	require.NoError(t, err)
	g := rendergraph.NewGraph(pool, "")
	builder.Apply(ctx, g, asm)
	require.NoError(t, g.Execute(ctx, rendergraph.FrameInfo{Index: 0}))

	// Assert
	assert.Equal(t, "screen", asm.Final)
	assert.Equal(t, []string{"screen"}, asm.Externals)
	require.Len(t, asm.Tasks, 3, "disabled tasks are not constructed")
	assert.Equal(t, "surface", pool.Kind("gbuffer"), "undeclared tags get the default kind")
	assert.Equal(t, rendergraph.Exclusive, pool.Ownership("screen"))

	res, ok := pool.Get("screen")
	require.True(t, ok)
	frame, ok := res.(*swapframe.Frame)
	require.True(t, ok)
	assert.True(t, frame.VSync())
	assert.Equal(t, uint64(1), frame.Presented())
	assert.Equal(t, []string{"tonemap: tonemap op=aces exposure=1.50 inputs=hdr"}, frame.Commands())

	res, ok = pool.Get("gbuffer")
	require.True(t, ok)
	gbuffer := res.(*surface.Surface)
	assert.Equal(t, []string{"geometry: clear", "geometry: draw meshes=3"}, gbuffer.Commands())
	assert.Equal(t, 1, gbuffer.Reads())

	res, ok = pool.Get("hdr")
	require.True(t, ok)
	assert.Equal(t, "rgba16f", res.(*surface.Surface).Format())
}

func TestAssemble_KeepsExternalsAcrossReloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := builder.New(newRegistry(t), hcl.NewConverter())
	pool := rendergraph.NewPool()
	g := rendergraph.NewGraph(pool, "")

	asm, err := b.Assemble(ctx, deferredModel(), pool)
	require.NoError(t, err)
	builder.Apply(ctx, g, asm)
	first, _ := pool.Get("screen")

	asm, err = b.Assemble(ctx, deferredModel(), pool)
	require.NoError(t, err)
	builder.Apply(ctx, g, asm, builder.WithPoolReset())
	second, _ := pool.Get("screen")

	assert.Same(t, first, second)
}

func TestAssemble_LeavesPoolUntouched(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	b := builder.New(newRegistry(t), hcl.NewConverter())
	pool := rendergraph.NewPool()

	// Act
	asm, err := b.Assemble(ctx, deferredModel(), pool)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, pool.Tags())
	assert.Zero(t, pool.Version())
	assert.Equal(t, "hdr", pool.Kind("hdr"), "nothing is declared before Apply")

	g := rendergraph.NewGraph(pool, "")
	builder.Apply(ctx, g, asm)
	assert.Equal(t, "surface", pool.Kind("hdr"))
	assert.Equal(t, []string{"screen"}, pool.Tags())
	res, _ := pool.Get("screen")
	w, h := res.(*swapframe.Frame).Size()
	assert.Equal(t, 320, w, "the pipeline size is applied with the assembly")
	assert.Equal(t, 200, h)
}

func TestAssemble_FailedReloadKeepsRunningPipeline(t *testing.T) {
	t.Parallel()

	// Arrange: a running pipeline with one executed frame.
	ctx := context.Background()
	b := builder.New(newRegistry(t), hcl.NewConverter())
	pool := rendergraph.NewPool()
	g := rendergraph.NewGraph(pool, "")
	asm, err := b.Assemble(ctx, deferredModel(), pool)
	require.NoError(t, err)
	builder.Apply(ctx, g, asm)
	require.NoError(t, g.Execute(ctx, rendergraph.FrameInfo{}))
	built := g.Timeline()

	broken := deferredModel()
	broken.Resources[1].Ownership = "exclusive"
	broken.Resources = append(broken.Resources, &config.Resource{Tag: "gbuffer", Kind: "swapframe", External: true})
	broken.Tasks[1].Kind = "no_such_kind"

	// Act
	_, err = b.Assemble(ctx, broken, pool)

	// Assert
	require.ErrorIs(t, err, builder.ErrUnknownKind)
	assert.Equal(t, rendergraph.Shared, pool.Ownership("hdr"))
	assert.Equal(t, "surface", pool.Kind("gbuffer"))
	assert.False(t, pool.HasExternal("gbuffer"))
	assert.False(t, g.NeedsRebuild())

	require.NoError(t, g.Execute(ctx, rendergraph.FrameInfo{Index: 1}))
	assert.Same(t, built, g.Timeline())
}

func TestAssemble_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(m *config.Model)
		wantErr string
		wantIs  error
	}{
		{
			name:    "invalid model",
			mutate:  func(m *config.Model) { m.Pipeline = nil },
			wantErr: "invalid pipeline",
		},
		{
			name:    "unknown task kind",
			mutate:  func(m *config.Model) { m.Tasks[0].Kind = "raytrace" },
			wantErr: `task "geometry"`,
			wantIs:  builder.ErrUnknownKind,
		},
		{
			name:    "unknown resource kind",
			mutate:  func(m *config.Model) { m.Resources[1].Kind = "texture3d" },
			wantErr: `resource "hdr"`,
			wantIs:  builder.ErrUnknownKind,
		},
		{
			name: "unsupported argument",
			mutate: func(m *config.Model) {
				m.Tasks[1].Arguments = map[string]cty.Value{"shadows": cty.True}
			},
			wantErr: `unsupported argument "shadows"`,
		},
		{
			name: "argument rejected by the kind",
			mutate: func(m *config.Model) {
				m.Tasks[2].Arguments = map[string]cty.Value{"operator": cty.StringVal("filmic")}
			},
			wantErr: `operator must be one of`,
		},
		{
			name:    "bad order keyword",
			mutate:  func(m *config.Model) { m.Tasks[2].Outputs[0].Order = "eventually" },
			wantErr: "invalid pipeline",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			model := deferredModel()
			tc.mutate(model)
			b := builder.New(newRegistry(t), hcl.NewConverter())

			// Act
			_, err := b.Assemble(context.Background(), model, rendergraph.NewPool())

			// Assert
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}

func TestDeclaration(t *testing.T) {
	t.Parallel()

	decl, err := builder.Declaration(&config.Task{
		ID:       "overlay",
		Requires: []string{"hdr"},
		Sidecars: []string{"font"},
		Outputs: []*config.Output{
			{Tag: "screen", Create: "other_task", Order: "12", After: []string{"tonemap"}},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hdr"}, decl.Required)
	assert.Equal(t, []string{"font"}, decl.Sidecars)
	require.Len(t, decl.Outputs, 1)
	assert.Equal(t, rendergraph.CreatedByOtherTask, decl.Outputs[0].Create)
	assert.Equal(t, rendergraph.Order(12), decl.Outputs[0].Order)
	assert.Equal(t, []string{"tonemap"}, decl.Outputs[0].After)

	_, err = builder.Declaration(&config.Task{Outputs: []*config.Output{{Tag: "x", Create: "nobody"}}})
	assert.Error(t, err)
}

func TestDeclaration_TagAlternatives(t *testing.T) {
	t.Parallel()

	// Arrange
	task := &config.Task{
		ID:        "tonemap",
		Requires:  []string{"bloom"},
		Fallbacks: map[string][]string{"bloom": {"hdr"}},
		Outputs: []*config.Output{{
			Tag:          "ldr",
			SharedWith:   []string{"overlay"},
			Alternatives: []*config.Alternative{{Tag: "screen", Create: "external"}},
		}},
	}

	// Act
	decl, err := builder.Declaration(task)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"bloom": {"hdr"}}, decl.Fallbacks)
	require.Len(t, decl.Outputs, 1)
	assert.Equal(t, []string{"overlay"}, decl.Outputs[0].SharedWith)
	assert.Equal(t, []rendergraph.OutputOption{{Tag: "screen", Create: rendergraph.CreatedExternally}}, decl.Outputs[0].Alternatives)

	task.Outputs[0].Alternatives[0].Create = "nobody"
	_, err = builder.Declaration(task)
	assert.Error(t, err)
}

func TestAssemble_InputFallsBackWhenProducerDisabled(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	model := deferredModel()
	tonemap := model.FindTask("tonemap")
	tonemap.Requires = []string{"bloom"}
	tonemap.Optional = nil
	tonemap.Fallbacks = map[string][]string{"bloom": {"hdr"}}
	pool := rendergraph.NewPool()
	asm, err := builder.New(newRegistry(t), hcl.NewConverter()).Assemble(ctx, model, pool)
	require.NoError(t, err)
	g := rendergraph.NewGraph(pool, "")
	builder.Apply(ctx, g, asm)

	// Act
	require.NoError(t, g.Execute(ctx, rendergraph.FrameInfo{Index: 0}))

	// Assert
	assert.Equal(t, uint32(2), g.Timeline().Step("screen"))
	res, ok := pool.Get("screen")
	require.True(t, ok)
	assert.Equal(t, []string{"tonemap: tonemap op=aces exposure=1.50 inputs=hdr"}, res.(*swapframe.Frame).Commands())
	_, made := pool.Get("bloom")
	assert.False(t, made, "the disabled producer's resource is never created")
}

func TestWithDefaultResourceKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := builder.New(newRegistry(t), hcl.NewConverter(), builder.WithDefaultResourceKind("missing"))
	pool := rendergraph.NewPool()
	asm, err := b.Assemble(ctx, deferredModel(), pool)
	require.NoError(t, err)
	builder.Apply(ctx, rendergraph.NewGraph(pool, ""), asm)

	assert.Equal(t, "gbuffer", pool.Kind("gbuffer"), "no declaration without a registered default kind")
}
