package hcl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type tonemapArgs struct {
	Exposure float64   `cty:"exposure"`
	Curve    string    `cty:"curve"`
	Weights  []float64 `cty:"weights"`
	Samples  int       `cty:"samples"`
	Extra    cty.Value `cty:"extra"`
	internal int
}

func TestConverter_Decode(t *testing.T) {
	t.Parallel()

	t.Run("converts and keeps defaults", func(t *testing.T) {
		args := tonemapArgs{Curve: "aces", Samples: 4}
		err := NewConverter().Decode(context.Background(), map[string]cty.Value{
			"exposure": cty.StringVal("1.25"),
			"weights":  cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberFloatVal(0.5)}),
			"extra":    cty.BoolVal(true),
		}, &args)

		require.NoError(t, err)
		assert.InDelta(t, 1.25, args.Exposure, 1e-9)
		assert.Equal(t, "aces", args.Curve)
		assert.Equal(t, []float64{1, 0.5}, args.Weights)
		assert.Equal(t, 4, args.Samples)
		assert.True(t, args.Extra.True())
	})

	t.Run("null keeps the default", func(t *testing.T) {
		args := tonemapArgs{Curve: "aces"}
		err := NewConverter().Decode(context.Background(), map[string]cty.Value{
			"curve": cty.NullVal(cty.String),
		}, &args)
		require.NoError(t, err)
		assert.Equal(t, "aces", args.Curve)
	})

	t.Run("unknown argument", func(t *testing.T) {
		var args tonemapArgs
		err := NewConverter().Decode(context.Background(), map[string]cty.Value{
			"gamma": cty.NumberIntVal(2),
		}, &args)
		require.ErrorContains(t, err, `unsupported argument "gamma"`)
	})

	t.Run("type mismatch", func(t *testing.T) {
		var args tonemapArgs
		err := NewConverter().Decode(context.Background(), map[string]cty.Value{
			"samples": cty.StringVal("many"),
		}, &args)
		require.ErrorContains(t, err, "samples")
	})

	t.Run("target must be a struct pointer", func(t *testing.T) {
		var n int
		err := NewConverter().Decode(context.Background(), nil, &n)
		require.Error(t, err)
	})
}

func TestConverter_ToCtyValue(t *testing.T) {
	t.Parallel()

	v, err := NewConverter().ToCtyValue("hello")
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("hello"), v)

	v, err = NewConverter().ToCtyValue(nil)
	require.NoError(t, err)
	assert.Equal(t, cty.NilVal, v)
}
