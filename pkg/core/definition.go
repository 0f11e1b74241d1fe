package core

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var cidCounter atomic.Uint64

// Definition is a component blueprint. Definitions form single-inheritance
// chains through [Definition.Extend]; their resolved options are cached and
// only recomputed when an ancestor's resolved options change identity.
type Definition struct {
	mu  sync.Mutex
	cid uint64

	super         *Definition
	extendOptions *Options

	// options is the latest resolved record; sealed is the record as of the
	// last (re)publication. They differ only by late modifications.
	options      *Options
	superOptions *Options
	sealed       *Options

	// pending collects late modifications that must survive a recompute
	// triggered by an ancestor change.
	pending  *Options
	modified keySet

	extended map[*Options]*Definition
}

// NewDefinition publishes a root definition.
func NewDefinition(opts *Options) (*Definition, error) {
	d := &Definition{cid: cidCounter.Add(1), extendOptions: opts}
	resolved, err := MergeOptions(nil, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("core: define %s: %w", nameOf(opts), err)
	}
	d.registerSelf(resolved)
	d.options = resolved
	d.sealed = resolved
	return d, nil
}

// MustDefine is like NewDefinition but panics on invalid options.
func MustDefine(opts *Options) *Definition {
	d, err := NewDefinition(opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Extend publishes a child definition inheriting from d. Extending d twice
// with the same *Options returns the same child.
func (d *Definition) Extend(opts *Options) (*Definition, error) {
	if d == nil {
		return nil, ErrNilDefinition
	}
	if opts == nil {
		opts = &Options{}
	}

	d.mu.Lock()
	if cached, ok := d.extended[opts]; ok {
		d.mu.Unlock()
		return cached, nil
	}
	d.mu.Unlock()

	superOpts, err := Resolve(d)
	if err != nil {
		return nil, err
	}
	resolved, err := MergeOptions(superOpts, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("core: extend %s: %w", nameOf(opts), err)
	}

	child := &Definition{
		cid:           cidCounter.Add(1),
		super:         d,
		extendOptions: opts,
		superOptions:  superOpts,
	}
	child.registerSelf(resolved)
	child.options = resolved
	child.sealed = resolved

	d.mu.Lock()
	if d.extended == nil {
		d.extended = make(map[*Options]*Definition)
	}
	d.extended[opts] = child
	d.mu.Unlock()
	return child, nil
}

// MustExtend is like Extend but panics on invalid options.
func (d *Definition) MustExtend(opts *Options) *Definition {
	child, err := d.Extend(opts)
	if err != nil {
		panic(err)
	}
	return child
}

// Mixin merges m into d's options after publication. Descendants pick the
// change up on their next resolution.
func (d *Definition) Mixin(m *Options) error {
	if m == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	latest, err := MergeOptions(d.options, m, nil)
	if err != nil {
		return fmt.Errorf("core: mixin into %s: %w", d.nameLocked(), err)
	}
	if d.super != nil {
		if d.pending, err = mergeOptions(d.pending, m, nil, modeFold); err != nil {
			return err
		}
	}
	d.options = latest
	d.modified |= keysOf(m)
	return nil
}

// Resolve returns the resolved options of d, recomputing them only when an
// ancestor's resolution changed since d last resolved. Repeated calls with no
// change return the same *Options.
func Resolve(d *Definition) (*Options, error) {
	if d == nil {
		return nil, ErrNilDefinition
	}
	if d.super == nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.options, nil
	}

	superOpts, err := Resolve(d.super)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if superOpts == d.superOptions {
		return d.options, nil
	}

	ext := d.extendOptions
	if d.pending != nil {
		// Apply ext's own mixins before folding; they only run on the child side.
		if ext, err = mergeOptions(nil, ext, nil, modeFold); err == nil {
			ext, err = mergeOptions(ext, d.pending, nil, modeFold)
		}
		if err != nil {
			return nil, fmt.Errorf("core: resolve %s: %w", d.nameLocked(), err)
		}
	}
	resolved, err := MergeOptions(superOpts, ext, nil)
	if err != nil {
		return nil, fmt.Errorf("core: resolve %s: %w", d.nameLocked(), err)
	}
	d.registerSelf(resolved)

	d.extendOptions = ext
	d.pending = nil
	d.modified = 0
	d.superOptions = superOpts
	d.options = resolved
	d.sealed = resolved
	return resolved, nil
}

func (d *Definition) registerSelf(resolved *Options) {
	if resolved.Name != "" {
		resolved.Components.Set(resolved.Name, d)
	}
}

// CID returns the process-unique id of the definition.
func (d *Definition) CID() uint64 { return d.cid }

// Super returns the definition d extends, or nil for a root.
func (d *Definition) Super() *Definition { return d.super }

// Name returns the resolved component name.
func (d *Definition) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nameLocked()
}

func (d *Definition) nameLocked() string {
	if d.options != nil && d.options.Name != "" {
		return d.options.Name
	}
	return nameOf(d.extendOptions)
}

// Sealed returns the options snapshot taken when d was last published.
func (d *Definition) Sealed() *Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sealed
}

// Modified lists the keys changed by late modifications since d was sealed.
func (d *Definition) Modified() []Key {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modified.keys()
}

func nameOf(o *Options) string {
	if o == nil || o.Name == "" {
		return "anonymous component"
	}
	return fmt.Sprintf("component %q", o.Name)
}
