package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// argumentsBlock keeps the raw body of an `arguments` block. Its attributes
// are evaluated after every file has been decoded.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type pipelineBlock struct {
	Final  string `hcl:"final"`
	Width  int    `hcl:"width,optional"`
	Height int    `hcl:"height,optional"`
}

type resourceBlock struct {
	Tag       string          `hcl:"tag,label"`
	Kind      string          `hcl:"kind,optional"`
	Ownership string          `hcl:"ownership,optional"`
	External  bool            `hcl:"external,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

type outputBlock struct {
	Tag    string `hcl:"tag,label"`
	Create string `hcl:"create,optional"`
	// Order is either a keyword string or a number.
	Order        hcl.Expression      `hcl:"order,optional"`
	After        []string            `hcl:"after,optional"`
	SharedWith   []string            `hcl:"shared_with,optional"`
	Alternatives []*alternativeBlock `hcl:"alternative,block"`
}

type alternativeBlock struct {
	Tag    string `hcl:"tag,label"`
	Create string `hcl:"create,optional"`
}

type taskBlock struct {
	ID        string              `hcl:"id,label"`
	Kind      string              `hcl:"kind"`
	Requires  []string            `hcl:"requires,optional"`
	Optional  []string            `hcl:"optional,optional"`
	Sidecars  []string            `hcl:"sidecars,optional"`
	Fallbacks map[string][]string `hcl:"fallbacks,optional"`
	Enabled   *bool               `hcl:"enabled,optional"`
	Outputs   []*outputBlock      `hcl:"output,block"`
	Arguments *argumentsBlock     `hcl:"arguments,block"`
}

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Resources []*resourceBlock `hcl:"resource,block"`
	Tasks     []*taskBlock     `hcl:"task,block"`
	Remain    hcl.Body         `hcl:",remain"`
}
