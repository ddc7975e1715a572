package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads every pipeline file reachable from paths, translates it into
	// the format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds evaluated arguments to the Go structs declared by modules.
type Converter interface {
	// Decode populates target, a non-nil pointer to a struct, from args.
	// Fields are matched by their `cty` tag. Arguments without a matching
	// field are an error; fields without an argument keep their value.
	Decode(ctx context.Context, args map[string]cty.Value, target any) error

	// ToCtyValue converts a native Go value into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)
}
