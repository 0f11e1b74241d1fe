package loader

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/weft/pkg/core"
)

// Registry holds the definitions built from one file.
type Registry struct {
	defs   map[string]*core.Definition
	names  []string
	mixins map[string]*core.Options
}

// Get returns the component declared under name.
func (r *Registry) Get(name string) (*core.Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns component names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// MixinNames returns the declared mixin names, sorted.
func (r *Registry) MixinNames() []string {
	return slices.Sorted(maps.Keys(r.mixins))
}

// Roots returns the components that extend nothing, in declaration order.
func (r *Registry) Roots() []*core.Definition {
	var roots []*core.Definition
	for _, name := range r.names {
		if def := r.defs[name]; def.Super() == nil {
			roots = append(roots, def)
		}
	}
	return roots
}

// Mixin merges opts into every root component after publication. Components
// extending a root pick the change up on their next resolution.
func (r *Registry) Mixin(opts *core.Options) error {
	for _, name := range r.names {
		def := r.defs[name]
		if def.Super() != nil {
			continue
		}
		if err := def.Mixin(opts); err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
	}
	return nil
}

// ApplyMixin merges the declared mixin name into every root component.
func (r *Registry) ApplyMixin(name string) error {
	m, ok := r.mixins[name]
	if !ok {
		return fmt.Errorf("%w: mixin %q", ErrUnknownReference, name)
	}
	return r.Mixin(m)
}
