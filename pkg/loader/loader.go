package loader

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-drift/weft/pkg/core"
)

var (
	// ErrCycle is wrapped when components extend or register each other in a
	// cycle, or mixins include each other.
	ErrCycle = errors.New("loader: dependency cycle")

	// ErrUnknownReference is wrapped when a name does not resolve to a
	// declared component, mixin or hook handler.
	ErrUnknownReference = errors.New("loader: unknown reference")
)

// HookTable maps handler names used in definition files to hook functions.
type HookTable map[string]core.HookFunc

// Load reads a definition file and builds its components. The decoder is
// chosen by extension: .yaml/.yml, .toml or .hcl.
func Load(path string, hooks HookTable) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(filepath.Base(path), src, hooks)
}

// Parse builds components from src. filename selects the decoder and is used
// in error messages.
func Parse(filename string, src []byte, hooks HookTable) (*Registry, error) {
	var (
		doc *document
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		doc, err = decodeYAML(filename, src)
	case ".toml":
		doc, err = decodeTOML(filename, src)
	case ".hcl":
		doc, err = decodeHCL(filename, src)
	default:
		return nil, fmt.Errorf("unsupported definition format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return build(doc, hooks)
}

const (
	unvisited = iota
	visiting
	done
)

type builder struct {
	hooks HookTable

	components map[string]*Spec
	mixins     map[string]*Spec

	defs       map[string]*core.Definition
	state      map[string]int
	mixinOpts  map[string]*core.Options
	mixinState map[string]int
	path       []string
}

func build(doc *document, hooks HookTable) (*Registry, error) {
	b := &builder{
		hooks:      hooks,
		components: make(map[string]*Spec, len(doc.Components)),
		mixins:     make(map[string]*Spec, len(doc.Mixins)),
		defs:       make(map[string]*core.Definition, len(doc.Components)),
		state:      make(map[string]int),
		mixinOpts:  make(map[string]*core.Options),
		mixinState: make(map[string]int),
	}

	names := make([]string, 0, len(doc.Components))
	for i := range doc.Components {
		spec := &doc.Components[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("component #%d has no name", i+1)
		}
		if _, dup := b.components[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate component %q", spec.Name)
		}
		b.components[spec.Name] = spec
		names = append(names, spec.Name)
	}
	for i := range doc.Mixins {
		spec := &doc.Mixins[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("mixin #%d has no name", i+1)
		}
		if _, dup := b.mixins[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate mixin %q", spec.Name)
		}
		b.mixins[spec.Name] = spec
	}

	for _, name := range names {
		if _, err := b.component(name); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(b.mixins)) {
		if _, err := b.mixin(name); err != nil {
			return nil, err
		}
	}

	return &Registry{defs: b.defs, names: names, mixins: b.mixinOpts}, nil
}

// component builds the named component after everything it extends or
// registers.
func (b *builder) component(name string) (*core.Definition, error) {
	switch b.state[name] {
	case done:
		return b.defs[name], nil
	case visiting:
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(b.path, name), " -> "))
	}
	spec, ok := b.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrUnknownReference, name)
	}

	b.state[name] = visiting
	b.path = append(b.path, name)
	defer func() { b.path = b.path[:len(b.path)-1] }()

	var super *core.Definition
	if spec.Extends != "" {
		var err error
		if super, err = b.component(spec.Extends); err != nil {
			return nil, err
		}
	}

	opts, err := b.options(spec, "component")
	if err != nil {
		return nil, err
	}

	if len(spec.Components) > 0 {
		local := make(map[string]*core.Definition, len(spec.Components))
		for _, ref := range spec.Components {
			def, err := b.component(ref)
			if err != nil {
				return nil, err
			}
			local[ref] = def
		}
		opts.Components = core.AssetsOf(local)
	}

	var def *core.Definition
	if super != nil {
		def, err = super.Extend(opts)
	} else {
		def, err = core.NewDefinition(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", name, err)
	}

	b.defs[name] = def
	b.state[name] = done
	return def, nil
}

func (b *builder) mixin(name string) (*core.Options, error) {
	switch b.mixinState[name] {
	case done:
		return b.mixinOpts[name], nil
	case visiting:
		return nil, fmt.Errorf("%w: mixin %s", ErrCycle, name)
	}
	spec, ok := b.mixins[name]
	if !ok {
		return nil, fmt.Errorf("%w: mixin %q", ErrUnknownReference, name)
	}
	if spec.Extends != "" || len(spec.Components) > 0 {
		return nil, fmt.Errorf("mixin %q: extends and components are only valid on components", name)
	}

	b.mixinState[name] = visiting
	opts, err := b.options(spec, "mixin")
	if err != nil {
		return nil, err
	}
	b.mixinOpts[name] = opts
	b.mixinState[name] = done
	return opts, nil
}

// options translates the format-independent parts of spec.
func (b *builder) options(spec *Spec, kind string) (*core.Options, error) {
	opts := &core.Options{
		Name:     spec.Name,
		Abstract: spec.Abstract,
		Template: spec.Template,
	}
	if kind == "mixin" {
		opts.Name = ""
	}

	for _, ref := range spec.Mixins {
		m, err := b.mixin(ref)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, spec.Name, err)
		}
		opts.Mixins = append(opts.Mixins, m)
	}

	if len(spec.Props) > 0 {
		opts.Props = make(map[string]core.Prop, len(spec.Props))
		for name, p := range spec.Props {
			opts.Props[name] = core.Prop{Type: p.Type, Required: p.Required, Default: p.Default}
		}
	}

	if spec.Data != nil {
		data := spec.Data
		opts.Data = func(*core.Instance) map[string]any {
			return deepCopy(data)
		}
	}
	if spec.Provide != nil {
		opts.Provide = core.ProvideValues(deepCopy(spec.Provide))
	}

	for _, inj := range spec.Inject {
		opts.Inject = append(opts.Inject, core.Injection{
			Key:        inj.Key,
			From:       inj.From,
			Default:    inj.Default,
			HasDefault: inj.Default != nil,
		})
	}

	for _, hookName := range slices.Sorted(maps.Keys(spec.Hooks)) {
		if !slices.Contains(core.LifecycleHooks, core.Hook(hookName)) {
			return nil, fmt.Errorf("%s %q: %w: unknown lifecycle hook %q", kind, spec.Name, core.ErrInvalidOptions, hookName)
		}
		for _, handler := range spec.Hooks[hookName] {
			fn, ok := b.hooks[handler]
			if !ok || fn == nil {
				return nil, fmt.Errorf("%s %q: %w: hook handler %q", kind, spec.Name, ErrUnknownReference, handler)
			}
			opts.On(core.Hook(hookName), fn)
		}
	}
	return opts, nil
}

func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
