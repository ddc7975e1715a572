package rendergraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unset marks a resource whose first available step has not been computed.
const Unset uint32 = math.MaxUint32

// CreationPolicy states who materializes a resource written by a task output.
type CreationPolicy int

const (
	// CreatedByThisTask means the writing task may create the resource through
	// the pool's provider for the resource kind.
	CreatedByThisTask CreationPolicy = iota
	// CreatedByOtherTask means the task only writes into a resource that some
	// other producer creates.
	CreatedByOtherTask
	// CreatedExternally means the resource is put into the pool by the owner
	// of the graph (the swapframe, scene data).
	CreatedExternally
)

// String returns the configuration spelling of the policy.
func (p CreationPolicy) String() string {
	switch p {
	case CreatedByThisTask:
		return "this_task"
	case CreatedByOtherTask:
		return "other_task"
	case CreatedExternally:
		return "external"
	default:
		return "unknown"
	}
}

// strength ranks policies when several producers declare the same resource.
func (p CreationPolicy) strength() int {
	switch p {
	case CreatedExternally:
		return 2
	case CreatedByThisTask:
		return 1
	default:
		return 0
	}
}

// ParseCreationPolicy converts a configuration string into a CreationPolicy.
func ParseCreationPolicy(s string) (CreationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "this_task":
		return CreatedByThisTask, nil
	case "other_task":
		return CreatedByOtherTask, nil
	case "external":
		return CreatedExternally, nil
	default:
		return CreatedByThisTask, fmt.Errorf("unknown creation policy %q", s)
	}
}

// Ownership states whether several tasks may legally write a resource in the
// same frame.
type Ownership int

const (
	// Shared resources accept order-insensitive writes from several producers.
	Shared Ownership = iota
	// Exclusive resources are written in a strict, declared order.
	Exclusive
)

// String returns the configuration spelling of the ownership.
func (o Ownership) String() string {
	if o == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// ParseOwnership converts a configuration string into an Ownership.
func ParseOwnership(s string) (Ownership, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return Shared, nil
	case "exclusive":
		return Exclusive, nil
	default:
		return Shared, fmt.Errorf("unknown ownership %q", s)
	}
}

// Order ranks tasks that write the same output. Lower ranks run first; any
// integer is accepted, the named values are the conventional anchors.
type Order int

const (
	First     Order = 0
	Unordered Order = 10
	Last      Order = 20
)

// String returns the name of well-known orders and the number otherwise.
func (o Order) String() string {
	switch o {
	case First:
		return "first"
	case Unordered:
		return "unordered"
	case Last:
		return "last"
	default:
		return strconv.Itoa(int(o))
	}
}

// ParseOrder accepts "first", "unordered", "last" or a decimal rank.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first":
		return First, nil
	case "", "unordered", "middle":
		return Unordered, nil
	case "last":
		return Last, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Unordered, fmt.Errorf("unknown order %q", s)
	}
	return Order(n), nil
}

// Output declares one resource written by a task.
type Output struct {
	Tag    string
	Create CreationPolicy
	Order  Order
	// After lists ids of tasks that must appear earlier in this output's group.
	After []string
	// Alternatives are written instead of Tag when nothing wants Tag. The
	// first option some reader or the pool wants wins.
	Alternatives []OutputOption
	// SharedWith, when not empty, lists the only task ids allowed to write
	// the same resource as this output.
	SharedWith []string
}

// OutputOption is an alternative tag for an output, with its own creation
// policy.
type OutputOption struct {
	Tag    string
	Create CreationPolicy
}

// options returns the primary tag followed by the alternatives.
func (o Output) options() []OutputOption {
	return append([]OutputOption{{Tag: o.Tag, Create: o.Create}}, o.Alternatives...)
}

// Declaration is everything the builder needs to know about a task's data flow.
type Declaration struct {
	Required []string
	Optional []string
	// Fallbacks maps an input tag to the tags read instead, in order, when no
	// task writes the input and the pool holds no external instance of it.
	Fallbacks map[string][]string
	Outputs   []Output
	// Sidecars are managed alongside the outputs but never create an edge.
	Sidecars []string
}

// inputs returns required inputs followed by optional ones.
func (d Declaration) inputs() []string {
	all := make([]string, 0, len(d.Required)+len(d.Optional))
	all = append(all, d.Required...)
	return append(all, d.Optional...)
}
