package rendergraph

// Task is a unit of per-frame work with declared inputs and outputs.
type Task interface {
	ID() string
	Declaration() Declaration
	// OnGraphInit hands the task its concrete resources. It is called once
	// per successful build, after the timeline is complete.
	OnGraphInit(b Bindings)
	// PrepareInputs runs once per frame for every stage the task appears in,
	// before any group of that stage executes.
	PrepareInputs(ec *ExecutionContext)
	// Execute writes one output. It runs inside out's StartOutput/EndOutput.
	Execute(ec *ExecutionContext, out Resource)
}

// Updater is implemented by tasks that evolve with wall-clock time.
type Updater interface {
	Update(dt float64)
}

// Kinded is implemented by tasks that belong to a named family. Graph uses it
// for AddUniqueTask and RemoveTasks.
type Kinded interface {
	Kind() string
}

// Bindings maps the tags a task declared to the instances chosen by the
// builder. Absent optional inputs are present with a nil value. Inputs and
// outputs stay keyed by the declared tag when a fallback or an alternative
// was bound instead.
type Bindings struct {
	Inputs   map[string]Resource
	Outputs  map[string]Resource
	Sidecars map[string]Resource
	// Resolved maps declared tags to the fallback or alternative bound to them.
	Resolved map[string]string
	// First is true when none of the task's inputs has a producer.
	First bool
}

// Tag returns the resource tag bound for the declared tag.
func (b Bindings) Tag(declared string) string {
	if r, ok := b.Resolved[declared]; ok {
		return r
	}
	return declared
}

// Input returns the bound input for tag, or nil.
func (b Bindings) Input(tag string) Resource { return b.Inputs[tag] }

// Output returns the bound output for tag, or nil.
func (b Bindings) Output(tag string) Resource { return b.Outputs[tag] }

// Sidecar returns the bound sidecar for tag, or nil.
func (b Bindings) Sidecar(tag string) Resource { return b.Sidecars[tag] }

// BaseTask implements the bookkeeping part of Task. Embed it and provide
// Execute.
type BaseTask struct {
	TaskID   string
	TaskKind string
	Decl     Declaration
	Bound    Bindings
}

func (t *BaseTask) ID() string { return t.TaskID }
func (t *BaseTask) Kind() string { return t.TaskKind }
func (t *BaseTask) Declaration() Declaration { return t.Decl }
func (t *BaseTask) OnGraphInit(b Bindings) { t.Bound = b }

// PrepareInputs calls PrepareForInput once on every bound input that
// supports it, in declaration order.
func (t *BaseTask) PrepareInputs(ec *ExecutionContext) {
	prepared := make(map[string]struct{}, len(t.Bound.Inputs))
	for _, tag := range t.Decl.inputs() {
		r := t.Bound.Inputs[tag]
		if r == nil {
			continue
		}
		bound := t.Bound.Tag(tag)
		if _, done := prepared[bound]; done {
			continue
		}
		prepared[bound] = struct{}{}
		if p, ok := r.(InputPreparer); ok {
			p.PrepareForInput(ec)
		}
	}
}
