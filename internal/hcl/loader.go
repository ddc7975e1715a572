package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/framegraph/internal/config"
	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

type decodedFile struct {
	path string
	root fileRoot
}

// Load parses every .hcl file reachable from paths and merges all blocks
// into one model. Arguments are evaluated once every file has been decoded,
// so the pipeline block may live in any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(hclFiles) == 0 {
		return nil, nil, fmt.Errorf("no .hcl pipeline files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	decoded := make([]decodedFile, 0, len(hclFiles))
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		decoded = append(decoded, decodedFile{path: file, root: root})
	}

	model := &config.Model{Files: hclFiles}
	for _, df := range decoded {
		for _, p := range df.root.Pipelines {
			if model.Pipeline != nil {
				return nil, nil, fmt.Errorf("%s: duplicate pipeline block", df.path)
			}
			model.Pipeline = &config.Pipeline{Final: p.Final, Width: p.Width, Height: p.Height}
		}
	}
	if model.Pipeline == nil {
		return nil, nil, fmt.Errorf("no pipeline block found in %d file(s)", len(hclFiles))
	}

	evalCtx := pipelineEvalContext(model.Pipeline)
	for _, df := range decoded {
		for _, r := range df.root.Resources {
			res, err := l.translateResource(r, evalCtx)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", df.path, err)
			}
			model.Resources = append(model.Resources, res)
		}
		for _, t := range df.root.Tasks {
			task, err := l.translateTask(ctx, t, evalCtx)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", df.path, err)
			}
			model.Tasks = append(model.Tasks, task)
		}
	}

	logger.Debug("HCL loading complete.",
		"final", model.Pipeline.Final,
		"resources", len(model.Resources),
		"tasks", len(model.Tasks),
	)
	return model, NewConverter(), nil
}

// pipelineEvalContext exposes the pipeline settings to argument expressions.
func pipelineEvalContext(p *config.Pipeline) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pipeline": cty.ObjectVal(map[string]cty.Value{
				"final":  cty.StringVal(p.Final),
				"width":  cty.NumberIntVal(int64(p.Width)),
				"height": cty.NumberIntVal(int64(p.Height)),
			}),
		},
	}
}

func (l *Loader) translateResource(r *resourceBlock, evalCtx *hcl.EvalContext) (*config.Resource, error) {
	args, err := evaluateArguments(r.Arguments, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Tag, err)
	}
	kind := r.Kind
	if kind == "" {
		kind = r.Tag
	}
	return &config.Resource{
		Tag:       r.Tag,
		Kind:      kind,
		Ownership: r.Ownership,
		External:  r.External,
		Arguments: args,
	}, nil
}

func (l *Loader) translateTask(ctx context.Context, t *taskBlock, evalCtx *hcl.EvalContext) (*config.Task, error) {
	args, err := evaluateArguments(t.Arguments, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", t.ID, err)
	}
	task := &config.Task{
		ID:        t.ID,
		Kind:      t.Kind,
		Requires:  t.Requires,
		Optional:  t.Optional,
		Sidecars:  t.Sidecars,
		Fallbacks: t.Fallbacks,
		Enabled:   t.Enabled == nil || *t.Enabled,
		Arguments: args,
	}
	for _, o := range t.Outputs {
		order, err := orderString(ctx, o.Order)
		if err != nil {
			return nil, fmt.Errorf("task %q output %q: %w", t.ID, o.Tag, err)
		}
		out := &config.Output{
			Tag:        o.Tag,
			Create:     o.Create,
			Order:      order,
			After:      o.After,
			SharedWith: o.SharedWith,
		}
		for _, alt := range o.Alternatives {
			out.Alternatives = append(out.Alternatives, &config.Alternative{Tag: alt.Tag, Create: alt.Create})
		}
		task.Outputs = append(task.Outputs, out)
	}
	return task, nil
}

// orderString accepts `order = "last"` as well as `order = 15`.
func orderString(ctx context.Context, expr hcl.Expression) (string, error) {
	if !isExprDefined(ctx, expr, "order") {
		return "", nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("order must be a string or a number, got %s", val.Type().FriendlyName())
	}
	return s.AsString(), nil
}

// evaluateArguments evaluates every attribute of an arguments block.
func evaluateArguments(block *argumentsBlock, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]cty.Value, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("argument %q: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}

// findAllHCLFiles walks all given paths and returns a flat, sorted list of
// the .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && filepath.Ext(p) == ".hcl" {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}

// isExprDefined reports whether an optional attribute was actually written.
// gohcl fills omitted expression fields with a zero-width placeholder.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	defined := rng.End.Byte > rng.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", rng.String(),
		"is_defined", defined,
	)
	return defined
}
