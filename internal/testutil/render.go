package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/framegraph/internal/rendergraph"
)

// Trace records callback names in call order. Safe for concurrent use.
type Trace struct {
	mu     sync.Mutex
	events []string
}

// Add appends a formatted event.
func (t *Trace) Add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

// Reset drops every recorded event.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// StubResource counts materializations and records output windows.
type StubResource struct {
	Tag string
	// Fail makes Create return this error.
	Fail  error
	Trace *Trace
	// TraceWindows adds start(tag)/end(tag) events to Trace.
	TraceWindows bool

	created  atomic.Bool
	Creates  atomic.Int32
	Allocs   atomic.Int32
	Prepared atomic.Int32
	Released atomic.Int32
	Width    int
	Height   int
}

// NewStubResource returns a resource tracing into tr.
func NewStubResource(tag string, tr *Trace) *StubResource {
	return &StubResource{Tag: tag, Trace: tr}
}

func (r *StubResource) Create(rendergraph.InitContext) (bool, error) {
	r.Creates.Add(1)
	if r.Fail != nil {
		return false, r.Fail
	}
	if r.created.Swap(true) {
		return false, nil
	}
	r.Allocs.Add(1)
	return true, nil
}

func (r *StubResource) StartOutput(*rendergraph.ExecutionContext) {
	if r.TraceWindows && r.Trace != nil {
		r.Trace.Add("start(%s)", r.Tag)
	}
}

func (r *StubResource) EndOutput(*rendergraph.ExecutionContext) {
	if r.TraceWindows && r.Trace != nil {
		r.Trace.Add("end(%s)", r.Tag)
	}
}

func (r *StubResource) PrepareForInput(*rendergraph.ExecutionContext) { r.Prepared.Add(1) }

func (r *StubResource) OnResize(w, h int) { r.Width, r.Height = w, h }

func (r *StubResource) Release() {
	r.Released.Add(1)
	r.created.Store(false)
}

// StubFactory returns a factory building StubResources and remembering them
// by tag.
func StubFactory(tr *Trace, made map[string]*StubResource) rendergraph.ResourceFactory {
	var mu sync.Mutex
	return func(tag string) (rendergraph.Resource, error) {
		mu.Lock()
		defer mu.Unlock()
		r := NewStubResource(tag, tr)
		if made != nil {
			made[tag] = r
		}
		return r, nil
	}
}

// StubTask records prepare(id) and exec(id,tag) into a Trace.
type StubTask struct {
	rendergraph.BaseTask
	Trace   *Trace
	Inits   atomic.Int32
	Elapsed float64
}

// NewStubTask declares a task with the given required inputs and outputs. Each
// output is created by the task with Unordered order.
func NewStubTask(tr *Trace, id string, inputs []string, outputs ...string) *StubTask {
	t := &StubTask{Trace: tr}
	t.TaskID = id
	t.TaskKind = id
	t.Decl.Required = inputs
	for _, o := range outputs {
		t.Decl.Outputs = append(t.Decl.Outputs, rendergraph.Output{
			Tag:    o,
			Create: rendergraph.CreatedByThisTask,
			Order:  rendergraph.Unordered,
		})
	}
	return t
}

func (t *StubTask) OnGraphInit(b rendergraph.Bindings) {
	t.Inits.Add(1)
	t.BaseTask.OnGraphInit(b)
}

func (t *StubTask) PrepareInputs(ec *rendergraph.ExecutionContext) {
	t.Trace.Add("prepare(%s)", t.TaskID)
	t.BaseTask.PrepareInputs(ec)
}

func (t *StubTask) Execute(_ *rendergraph.ExecutionContext, out rendergraph.Resource) {
	tag := "?"
	if r, ok := out.(*StubResource); ok {
		tag = r.Tag
	}
	t.Trace.Add("exec(%s,%s)", t.TaskID, tag)
}

func (t *StubTask) Update(dt float64) { t.Elapsed += dt }
