package rendergraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreachableFinal is returned when no seed task reaches the final resource.
	ErrUnreachableFinal = errors.New("final resource is unreachable")
	// ErrMissingInput is returned when a required input has no producer and no
	// external instance, or when its producers were never reached.
	ErrMissingInput = errors.New("required input is missing")
	// ErrResourceCreate wraps failures to materialize a resource.
	ErrResourceCreate = errors.New("resource creation failed")
	// ErrCycle is returned when leveling does not converge or when explicit
	// predecessors within a group form a loop.
	ErrCycle = errors.New("dependency cycle detected")
	ErrDuplicateTask = errors.New("duplicate task id")
	// ErrNoCreator is returned when every producer of a resource declares
	// that some other task creates it.
	ErrNoCreator = errors.New("resource has no creator")
	// ErrUnknownResource is returned when the pool can neither find nor
	// provide an instance for a tag.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrNotShareable is returned when a task writes a resource whose other
	// producer restricts sharing to a list that does not name it.
	ErrNotShareable = errors.New("resource is not shared with task")
	// ErrNotBuilt is returned by Graph.Execute when there is no timeline.
	ErrNotBuilt = errors.New("graph has not been built")
)

// BuildError is the error returned by Build. It names the task and resource
// involved when they are known.
type BuildError struct {
	TaskID   string
	Resource string
	Err      error
}

func (e *BuildError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task %q", e.TaskID))
	}
	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource %q", e.Resource))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("render graph build: %v", e.Err)
	}
	return fmt.Sprintf("render graph build: %s: %v", strings.Join(parts, ", "), e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(taskID, resource string, err error) *BuildError {
	return &BuildError{TaskID: taskID, Resource: resource, Err: err}
}
