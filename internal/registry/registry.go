// Package registry implements the process-wide plugin catalog described in
// spec.md §4.1: a mapping from (item kind, name) to a schema + factory pair.
// Grounded on the Rust ENV: Lazy<Mutex<HashMap<ItemType, HashMap<String,
// RegisteredItem>>>> in lib/src/config/mod.rs, and on the
// Constructors = map[string]TypeSpec{} convention used throughout the real
// Benthos component packages (see other_examples' vendored input/output
// constructor.go files). Concurrent readers are lock-free against each
// other via sync.RWMutex; writers are serialized and disallowed entirely
// once the registry is frozen.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/schema"
)

// Kind enumerates the plugin categories the registry tracks. Batch variants
// are optional extensions (spec.md §4.1, §9) carrying the same lifecycle
// contract as their non-batch counterparts.
type Kind int

const (
	Input Kind = iota
	Output
	Processor
	InputBatch
	OutputBatch
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	case Processor:
		return "processor"
	case InputBatch:
		return "input_batch"
	case OutputBatch:
		return "output_batch"
	default:
		return "unknown"
	}
}

// Factory is the effectful constructor a plugin registers: given a
// configuration value already validated against the plugin's schema, it
// returns a constructed plugin instance (one of Input/Output/Processor/
// BatchInput/BatchOutput from package plugin, returned here as `any` to
// keep this package free of a dependency on the runtime it feeds). ctx
// carries a Binder handle so switch/try factories can recurse into nested
// sub-configurations (spec.md §4.3).
type Factory func(conf any, ctx Context) (any, error)

// Context is the minimal recursive-binding surface a Factory receives. It is
// implemented by internal/config.Binder; defined here, not there, so this
// package has no import cycle back onto the binder.
type Context interface {
	// Bind parses and constructs a single stanza of the given kind,
	// returning the constructed plugin instance.
	Bind(kind Kind, stanza map[string]any) (any, error)
}

// Entry is a registered plugin: its compiled schema and its factory.
type Entry struct {
	Kind    Kind
	Name    string
	Schema  *schema.Validator
	Factory Factory
}

// Registry is the process-wide catalog. The zero value is not usable; use
// New.
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]Entry
	frozen  atomic.Bool
}

// New returns an empty, writable Registry.
func New() *Registry {
	r := &Registry{entries: make(map[Kind]map[string]Entry)}
	for _, k := range []Kind{Input, Output, Processor, InputBatch, OutputBatch} {
		r.entries[k] = make(map[string]Entry)
	}
	return r
}

// Register atomically inserts a new plugin entry. It fails with
// DuplicateRegisteredName if (kind, name) is already present, or if the
// registry has been frozen by a prior Freeze call.
func (r *Registry) Register(kind Kind, name string, sch *schema.Validator, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return &ferrors.DuplicateRegisteredName{Name: name}
	}
	if _, exists := r.entries[kind][name]; exists {
		return &ferrors.DuplicateRegisteredName{Name: name}
	}
	r.entries[kind][name] = Entry{Kind: kind, Name: name, Schema: sch, Factory: factory}
	return nil
}

// Lookup returns the registered entry for (kind, name), or
// ConfigurationItemNotFound if none is registered.
func (r *Registry) Lookup(kind Kind, name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[kind][name]
	if !ok {
		return Entry{}, &ferrors.ConfigurationItemNotFound{Name: name}
	}
	return e, nil
}

// Freeze disallows further writes. The binder calls it after every
// successful BoundPipeline construction; the first call freezes the
// registry and later calls change nothing (spec.md §4.1).
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether the registry currently rejects writes.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Names returns the registered plugin names for a kind, for diagnostics and
// tests; order is unspecified.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries[kind]))
	for name := range r.entries[kind] {
		out = append(out, name)
	}
	return out
}
