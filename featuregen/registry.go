package featuregen

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory produces a fresh generator instance.
type Factory func() Generator

// Registry maps names to generator factories. By default a factory is
// invoked once and the instance shared by all lookups (singleton semantics),
// so a generator fitted once is fitted for every model referencing it by
// name. Factories registered as transient produce a new instance per lookup.
type Registry struct {
	mu         sync.Mutex
	factories  map[string]Factory
	transient  map[string]bool
	singletons map[string]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		transient:  make(map[string]bool),
		singletons: make(map[string]Generator),
	}
}

// Register adds a singleton factory under name. Registering a name twice is
// an error.
func (r *Registry) Register(name string, factory Factory) error {
	return r.register(name, factory, false)
}

// RegisterTransient adds a factory whose generator is re-created on every
// lookup.
func (r *Registry) RegisterTransient(name string, factory Factory) error {
	return r.register(name, factory, true)
}

func (r *Registry) register(name string, factory Factory, transient bool) error {
	if factory == nil {
		return fmt.Errorf("featuregen: nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("featuregen: generator %q is already registered", name)
	}
	r.factories[name] = factory
	r.transient[name] = transient
	return nil
}

// Generator resolves a name to an instance.
func (r *Registry) Generator(name string) (Generator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("featuregen: no generator registered under %q (known: %s)", name, strings.Join(r.namesLocked(), ", "))
	}
	if r.transient[name] {
		return factory(), nil
	}
	if g, ok := r.singletons[name]; ok {
		return g, nil
	}
	g := factory()
	r.singletons[name] = g
	return g, nil
}

// Names lists the registered generator names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Collector assembles a combined generator from registry names and ad-hoc
// generators. It is the convenience layer models use to declare their
// feature set.
type Collector struct {
	registry *Registry
	names    []string
	extra    []Generator
	combined *MultiGenerator
}

// NewCollector builds a collector over a registry and an initial name list.
func NewCollector(registry *Registry, names ...string) *Collector {
	return &Collector{registry: registry, names: names}
}

// AddNames appends registry names to collect.
func (c *Collector) AddNames(names ...string) *Collector {
	c.names = append(c.names, names...)
	return c
}

// Add appends ad-hoc generators to collect.
func (c *Collector) Add(generators ...Generator) *Collector {
	c.extra = append(c.extra, generators...)
	return c
}

// Generator resolves all names and combines everything into a single
// MultiGenerator.
func (c *Collector) Generator() (Generator, error) {
	gens := make([]Generator, 0, len(c.names)+len(c.extra))
	for _, name := range c.names {
		g, err := c.registry.Generator(name)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	gens = append(gens, c.extra...)
	if len(gens) == 0 {
		return nil, fmt.Errorf("featuregen: collector has nothing to collect")
	}
	c.combined = Multi(gens...)
	return c.combined, nil
}

// CollectedColumns names the columns the combined generator produced on its
// most recent Generate. Empty before the generator has run.
func (c *Collector) CollectedColumns() []string {
	if c.combined == nil {
		return nil
	}
	return c.combined.GeneratedColumns()
}
