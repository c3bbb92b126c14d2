package patch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

// Context is what a factory receives: the server to register on and the
// node's parameters with references already resolved.
type Context struct {
	Server *ugen.Server
	Params Params
}

// Factory builds the generator for one node.
type Factory func(ctx Context) (ugen.Generator, error)

// Registry maps generator type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateType = errors.New("duplicate generator type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given generator type.
func (r *Registry) Register(typ string, factory Factory) error {
	if typ == "" {
		return errors.New("empty generator type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[typ]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, typ)
	}

	r.factories[typ] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typ string, factory Factory) {
	err := r.Register(typ, factory)
	if err != nil {
		panic("patch registry: " + err.Error())
	}
}

// Lookup returns the factory for the given generator type, or nil.
func (r *Registry) Lookup(typ string) Factory {
	return r.factories[typ]
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	return sortedKeys(r.factories)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
