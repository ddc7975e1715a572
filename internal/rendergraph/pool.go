package rendergraph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Pool holds resource instances across builds. Externally created resources
// are put into it by the graph owner; task-created resources are obtained
// from factories registered per resource kind.
type Pool struct {
	mu        sync.Mutex
	factories map[string]ResourceFactory
	kinds     map[string]string
	ownership map[string]Ownership
	external  map[string]Resource
	created   map[string]Resource
	version   atomic.Uint64
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		factories: make(map[string]ResourceFactory),
		kinds:     make(map[string]string),
		ownership: make(map[string]Ownership),
		external:  make(map[string]Resource),
		created:   make(map[string]Resource),
	}
}

// RegisterFactory installs the factory used for resources of the given kind.
func (p *Pool) RegisterFactory(kind string, f ResourceFactory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[kind] = f
}

// Declare records the kind and ownership of a tag. Undeclared tags use their
// own name as kind and are Shared.
func (p *Pool) Declare(tag, kind string, own Ownership) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if kind != "" {
		p.kinds[tag] = kind
	}
	p.ownership[tag] = own
	p.version.Add(1)
}

// Put registers an externally created resource. It bumps the pool version so
// that graphs built against the pool rebuild before their next frame.
func (p *Pool) Put(tag string, r Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external[tag] = r
	p.version.Add(1)
}

// Remove forgets an externally created resource.
func (p *Pool) Remove(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.external[tag]; !ok {
		return
	}
	delete(p.external, tag)
	p.version.Add(1)
}

// Get returns the instance currently held for tag, external or task-created.
func (p *Pool) Get(tag string) (Resource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.external[tag]; ok {
		return r, true
	}
	r, ok := p.created[tag]
	return r, ok
}

// HasExternal reports whether tag was put into the pool by the graph owner.
func (p *Pool) HasExternal(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.external[tag]
	return ok
}

// Ownership returns the declared ownership of tag.
func (p *Pool) Ownership(tag string) Ownership {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ownership[tag]
}

// Kind returns the resource kind of tag.
func (p *Pool) Kind(tag string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kindLocked(tag)
}

func (p *Pool) kindLocked(tag string) string {
	if k, ok := p.kinds[tag]; ok {
		return k
	}
	return tag
}

// Version changes every time the set of available resources changes.
func (p *Pool) Version() uint64 { return p.version.Load() }

// Tags lists every tag with a live instance, sorted.
func (p *Pool) Tags() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	tags := make([]string, 0, len(p.external)+len(p.created))
	for t := range p.external {
		tags = append(tags, t)
	}
	for t := range p.created {
		if _, dup := p.external[t]; !dup {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// acquire returns the instance for tag under the given creation policy,
// asking the kind's factory when the task is responsible for creating it.
func (p *Pool) acquire(tag string, policy CreationPolicy) (Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.external[tag]; ok {
		return r, nil
	}
	if policy == CreatedExternally {
		return nil, fmt.Errorf("%w: external resource %q was never put into the pool", ErrUnknownResource, tag)
	}
	if r, ok := p.created[tag]; ok {
		return r, nil
	}
	kind := p.kindLocked(tag)
	f, ok := p.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no factory for kind %q", ErrUnknownResource, kind)
	}
	r, err := f(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreate, err)
	}
	p.created[tag] = r
	return r, nil
}

// Resize forwards the new output size to every instance implementing Resizer.
func (p *Pool) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.external {
		if rz, ok := r.(Resizer); ok {
			rz.OnResize(width, height)
		}
	}
	for _, r := range p.created {
		if rz, ok := r.(Resizer); ok {
			rz.OnResize(width, height)
		}
	}
}

// Reset releases every task-created instance. External resources stay.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for tag, r := range p.created {
		if rel, ok := r.(Releaser); ok {
			rel.Release()
		}
		delete(p.created, tag)
	}
	p.version.Add(1)
}
