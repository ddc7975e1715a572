package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a pipeline: which
// resource node is the final output, which resources exist and which tasks
// read and write them.
type Model struct {
	Pipeline  *Pipeline
	Resources []*Resource
	Tasks     []*Task
	// Files lists the files the model was read from, in load order.
	Files []string
}

// Pipeline holds the settings of the `pipeline` block.
type Pipeline struct {
	Final  string
	Width  int
	Height int
}

// Resource is the format-agnostic representation of a `resource` block.
type Resource struct {
	Tag       string
	Kind      string
	Ownership string
	External  bool
	Arguments map[string]cty.Value
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	ID        string
	Kind      string
	Requires  []string
	Optional  []string
	Sidecars  []string
	// Fallbacks lists, per input tag, the tags read instead when nothing
	// produces the input.
	Fallbacks map[string][]string
	Enabled   bool
	Outputs   []*Output
	Arguments map[string]cty.Value
}

// Output is one `output` block of a task.
type Output struct {
	Tag          string
	Create       string
	Order        string
	After        []string
	Alternatives []*Alternative
	SharedWith   []string
}

// Alternative is an `alternative` block nested in an output.
type Alternative struct {
	Tag    string
	Create string
}

// FindTask returns the task with the given id, or nil.
func (m *Model) FindTask(id string) *Task {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindResource returns the resource with the given tag, or nil.
func (m *Model) FindResource(tag string) *Resource {
	for _, r := range m.Resources {
		if r.Tag == tag {
			return r
		}
	}
	return nil
}

// EnabledTasks returns the tasks that take part in the graph.
func (m *Model) EnabledTasks() []*Task {
	out := make([]*Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}
