package core

import (
	"maps"
	"slices"
)

// Assets is a named registry (components, directives, filters) whose lookups
// fall back to a parent registry. Writes only touch the registry's own
// entries, so a descendant can shadow an ancestor entry without changing it.
type Assets[T any] struct {
	parent *Assets[T]
	own    map[string]T
}

// NewAssets returns an empty registry backed by parent, which may be nil.
func NewAssets[T any](parent *Assets[T]) *Assets[T] {
	return &Assets[T]{parent: parent, own: make(map[string]T)}
}

// AssetsOf returns a root registry holding entries.
func AssetsOf[T any](entries map[string]T) *Assets[T] {
	a := NewAssets[T](nil)
	maps.Copy(a.own, entries)
	return a
}

// Parent returns the registry lookups fall back to.
func (a *Assets[T]) Parent() *Assets[T] {
	if a == nil {
		return nil
	}
	return a.parent
}

// Set registers v under name in a's own entries.
func (a *Assets[T]) Set(name string, v T) {
	a.own[name] = v
}

// Get looks name up in a, then along the parent chain.
func (a *Assets[T]) Get(name string) (T, bool) {
	for cur := a; cur != nil; cur = cur.parent {
		if v, ok := cur.own[name]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Resolve looks name up the way templates reference assets: as written, then
// camelized, then capitalized.
func (a *Assets[T]) Resolve(name string) (T, bool) {
	if v, ok := a.Get(name); ok {
		return v, true
	}
	camel := camelize(name)
	if v, ok := a.Get(camel); ok {
		return v, true
	}
	return a.Get(capitalize(camel))
}

// HasOwn reports whether name is registered directly on a.
func (a *Assets[T]) HasOwn(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.own[name]
	return ok
}

// OwnNames returns a's own entry names, sorted.
func (a *Assets[T]) OwnNames() []string {
	if a == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(a.own))
}

// Names returns every visible name, own and inherited, sorted.
func (a *Assets[T]) Names() []string {
	seen := make(map[string]struct{})
	for cur := a; cur != nil; cur = cur.parent {
		for name := range cur.own {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// flatten copies every visible entry into a new parentless registry.
func (a *Assets[T]) flatten() *Assets[T] {
	out := NewAssets[T](nil)
	var chain []*Assets[T]
	for cur := a; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out.own, chain[i].own)
	}
	return out
}
