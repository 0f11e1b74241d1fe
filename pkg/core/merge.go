package core

import (
	stderrors "errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
)

var (
	// ErrInvalidOptions is wrapped by every fatal configuration error.
	ErrInvalidOptions = stderrors.New("core: invalid options")

	// ErrNilDefinition is returned when instantiating or extending a nil definition.
	ErrNilDefinition = stderrors.New("core: nil definition")
)

// Key identifies one configuration key of [Options].
type Key int

const (
	KeyName Key = iota
	KeyAbstract
	KeyHooks
	KeyErrorCaptured
	KeyWatch
	KeyProps
	KeyMethods
	KeyComputed
	KeyData
	KeyInject
	KeyProvide
	KeyComponents
	KeyDirectives
	KeyFilters
	KeyEl
	KeyTemplate
	KeyRender
	KeyExtra
	numKeys
)

var keyNames = [numKeys]string{
	KeyName:          "name",
	KeyAbstract:      "abstract",
	KeyHooks:         "hooks",
	KeyErrorCaptured: "errorCaptured",
	KeyWatch:         "watch",
	KeyProps:         "props",
	KeyMethods:       "methods",
	KeyComputed:      "computed",
	KeyData:          "data",
	KeyInject:        "inject",
	KeyProvide:       "provide",
	KeyComponents:    "components",
	KeyDirectives:    "directives",
	KeyFilters:       "filters",
	KeyEl:            "el",
	KeyTemplate:      "template",
	KeyRender:        "render",
	KeyExtra:         "extra",
}

func (k Key) String() string {
	if k < 0 || k >= numKeys {
		return "unknown"
	}
	return keyNames[k]
}

// Strategy is how a key combines an ancestor value with an own value.
type Strategy int

const (
	// StrategyOwnWins keeps the own value when set, else the ancestor value.
	StrategyOwnWins Strategy = iota
	// StrategyConcat appends own entries after ancestor entries.
	StrategyConcat
	// StrategyExtend lets own entries replace ancestor entries of the same
	// name and keeps the rest.
	StrategyExtend
	// StrategyChain builds a registry that falls back to the ancestor's.
	StrategyChain
)

func (s Strategy) String() string {
	switch s {
	case StrategyConcat:
		return "concat"
	case StrategyExtend:
		return "extend"
	case StrategyChain:
		return "chain"
	default:
		return "own-wins"
	}
}

// StrategyOf returns the merge strategy of k.
func StrategyOf(k Key) Strategy {
	if k < 0 || k >= numKeys {
		return StrategyOwnWins
	}
	return mergeFields[k].strategy
}

// mergeMode selects how registries are combined. Folding a late
// modification into a definition's own options flattens registries because
// only own entries survive the next chain merge.
type mergeMode int

const (
	modeChain mergeMode = iota
	modeFold
)

type mergeField struct {
	strategy Strategy
	present  func(o *Options) bool
	merge    func(dst, parent, child *Options, mode mergeMode)
}

var mergeFields = [numKeys]mergeField{
	KeyName: {StrategyOwnWins,
		func(o *Options) bool { return o.Name != "" },
		func(dst, parent, child *Options, _ mergeMode) { dst.Name = ownWins(parent.Name, child.Name) }},
	KeyAbstract: {StrategyOwnWins,
		func(o *Options) bool { return o.Abstract },
		func(dst, parent, child *Options, _ mergeMode) { dst.Abstract = parent.Abstract || child.Abstract }},
	KeyHooks: {StrategyConcat,
		func(o *Options) bool { return len(o.Hooks) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Hooks = concatTable(parent.Hooks, child.Hooks) }},
	KeyErrorCaptured: {StrategyConcat,
		func(o *Options) bool { return len(o.ErrorCaptured) > 0 },
		func(dst, parent, child *Options, _ mergeMode) {
			dst.ErrorCaptured = concat(parent.ErrorCaptured, child.ErrorCaptured)
		}},
	KeyWatch: {StrategyConcat,
		func(o *Options) bool { return len(o.Watch) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Watch = concatTable(parent.Watch, child.Watch) }},
	KeyProps: {StrategyExtend,
		func(o *Options) bool { return len(o.Props) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Props = extend(parent.Props, child.Props) }},
	KeyMethods: {StrategyExtend,
		func(o *Options) bool { return len(o.Methods) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Methods = extend(parent.Methods, child.Methods) }},
	KeyComputed: {StrategyExtend,
		func(o *Options) bool { return len(o.Computed) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Computed = extend(parent.Computed, child.Computed) }},
	KeyData: {StrategyExtend,
		func(o *Options) bool { return o.Data != nil },
		func(dst, parent, child *Options, _ mergeMode) { dst.Data = mergeDataFunc(parent.Data, child.Data) }},
	KeyInject: {StrategyExtend,
		func(o *Options) bool { return len(o.Inject) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Inject = mergeInject(parent.Inject, child.Inject) }},
	KeyProvide: {StrategyExtend,
		func(o *Options) bool { return o.Provide != nil },
		func(dst, parent, child *Options, _ mergeMode) { dst.Provide = mergeProvide(parent.Provide, child.Provide) }},
	KeyComponents: {StrategyChain,
		func(o *Options) bool { return o.Components != nil },
		func(dst, parent, child *Options, mode mergeMode) {
			dst.Components = chain(parent.Components, child.Components, mode)
		}},
	KeyDirectives: {StrategyChain,
		func(o *Options) bool { return o.Directives != nil },
		func(dst, parent, child *Options, mode mergeMode) {
			dst.Directives = chain(parent.Directives, child.Directives, mode)
		}},
	KeyFilters: {StrategyChain,
		func(o *Options) bool { return o.Filters != nil },
		func(dst, parent, child *Options, mode mergeMode) {
			dst.Filters = chain(parent.Filters, child.Filters, mode)
		}},
	KeyEl: {StrategyOwnWins,
		func(o *Options) bool { return o.El != "" },
		func(dst, parent, child *Options, _ mergeMode) { dst.El = ownWins(parent.El, child.El) }},
	KeyTemplate: {StrategyOwnWins,
		func(o *Options) bool { return o.Template != "" },
		func(dst, parent, child *Options, _ mergeMode) { dst.Template = ownWins(parent.Template, child.Template) }},
	KeyRender: {StrategyOwnWins,
		func(o *Options) bool { return o.Render != nil || o.StaticRenderFns != nil },
		func(dst, parent, child *Options, _ mergeMode) {
			dst.Render = parent.Render
			dst.StaticRenderFns = parent.StaticRenderFns
			if child.Render != nil {
				dst.Render = child.Render
			}
			if child.StaticRenderFns != nil {
				dst.StaticRenderFns = child.StaticRenderFns
			}
		}},
	KeyExtra: {StrategyOwnWins,
		func(o *Options) bool { return len(o.Extra) > 0 },
		func(dst, parent, child *Options, _ mergeMode) { dst.Extra = extend(parent.Extra, child.Extra) }},
}

// MergeOptions combines ancestor options with own options key by key and
// returns a new Options. Neither argument is modified. vm is the instance
// being created, or nil when merging for a definition.
func MergeOptions(parent, child *Options, vm *Instance) (*Options, error) {
	return mergeOptions(parent, child, vm, modeChain)
}

func mergeOptions(parent, child *Options, vm *Instance, mode mergeMode) (*Options, error) {
	if parent == nil {
		parent = &Options{}
	}
	if child == nil {
		child = &Options{}
	}
	if err := validateOptions(child); err != nil {
		return nil, err
	}
	if vm == nil && child.El != "" && DebugMode {
		warnf(nil, `option "el" can only be used during instance creation`)
	}

	// Mixins of an already merged record were applied when it was built.
	if !child.merged {
		for _, mixin := range child.Mixins {
			if mixin == nil {
				continue
			}
			var err error
			if parent, err = mergeOptions(parent, mixin, vm, mode); err != nil {
				return nil, err
			}
		}
	}

	out := &Options{merged: true}
	for k := range numKeys {
		mergeFields[k].merge(out, parent, child, mode)
	}
	return out, nil
}

// keysOf returns the keys o sets.
func keysOf(o *Options) keySet {
	var set keySet
	if o == nil {
		return set
	}
	for k := range numKeys {
		if mergeFields[k].present(o) {
			set = set.with(k)
		}
	}
	for _, mixin := range o.Mixins {
		set |= keysOf(mixin)
	}
	return set
}

type keySet uint32

func (s keySet) with(k Key) keySet { return s | 1<<uint(k) }
func (s keySet) has(k Key) bool    { return s&(1<<uint(k)) != 0 }

func (s keySet) keys() []Key {
	var out []Key
	for k := range numKeys {
		if s.has(k) {
			out = append(out, k)
		}
	}
	return out
}

var componentNamePattern = regexp.MustCompile(`^[a-zA-Z][\w.\-]*$`)

var reservedComponentNames = map[string]bool{
	"slot":      true,
	"component": true,
}

func validateComponentName(name string) error {
	if !componentNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid component name %q: should start with a letter and contain only letters, digits, '-', '.' or '_'", ErrInvalidOptions, name)
	}
	if reservedComponentNames[name] {
		return fmt.Errorf("%w: do not use built-in or reserved name %q as component id", ErrInvalidOptions, name)
	}
	return nil
}

func validateOptions(o *Options) error {
	if o.merged {
		return nil
	}
	if o.Name != "" {
		if err := validateComponentName(o.Name); err != nil {
			return err
		}
	}
	for _, name := range o.Components.OwnNames() {
		if err := validateComponentName(name); err != nil {
			return err
		}
	}
	for h := range o.Hooks {
		if !slices.Contains(LifecycleHooks, h) {
			return fmt.Errorf("%w: unknown lifecycle hook %q", ErrInvalidOptions, h)
		}
	}
	seen := make(map[string]bool, len(o.Inject))
	for _, inj := range o.Inject {
		if inj.Key == "" {
			return fmt.Errorf("%w: inject entry without a key", ErrInvalidOptions)
		}
		if seen[inj.Key] {
			return fmt.Errorf("%w: duplicate inject key %q", ErrInvalidOptions, inj.Key)
		}
		seen[inj.Key] = true
	}
	return nil
}

func ownWins[T comparable](parent, child T) T {
	var zero T
	if child != zero {
		return child
	}
	return parent
}

func concat[T any](parent, child []T) []T {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	out := make([]T, 0, len(parent)+len(child))
	out = append(out, parent...)
	return append(out, child...)
}

func concatTable[K comparable, T any](parent, child map[K][]T) map[K][]T {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	out := make(map[K][]T, len(parent)+len(child))
	for k, v := range parent {
		out[k] = slices.Clone(v)
	}
	for k, v := range child {
		out[k] = concat(out[k], v)
	}
	return out
}

func extend[K comparable, V any](parent, child map[K]V) map[K]V {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	out := make(map[K]V, len(parent)+len(child))
	maps.Copy(out, parent)
	maps.Copy(out, child)
	return out
}

func chain[T any](parent, child *Assets[T], mode mergeMode) *Assets[T] {
	if mode == modeFold {
		out := parent.flatten()
		if child != nil {
			maps.Copy(out.own, child.flatten().own)
		}
		return out
	}
	out := NewAssets(parent)
	if child != nil {
		maps.Copy(out.own, child.own)
	}
	return out
}

func mergeInject(parent, child []Injection) []Injection {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	out := slices.Clone(parent)
	for _, inj := range child {
		if inj.From == "" {
			inj.From = inj.Key
		}
		i := slices.IndexFunc(out, func(cur Injection) bool { return cur.Key == inj.Key })
		if i >= 0 {
			out[i] = inj
		} else {
			out = append(out, inj)
		}
	}
	return out
}

// mergeData merges child data over parent data. Nested maps present on both
// sides are merged recursively; otherwise the child value wins.
func mergeData(child, parent map[string]any) map[string]any {
	if child == nil {
		return parent
	}
	if parent == nil {
		return child
	}
	out := make(map[string]any, len(child)+len(parent))
	maps.Copy(out, parent)
	for k, v := range child {
		if pv, ok := parent[k]; ok {
			cm, childIsMap := v.(map[string]any)
			pm, parentIsMap := pv.(map[string]any)
			if childIsMap && parentIsMap {
				out[k] = mergeData(cm, pm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func mergeDataFunc(parent, child DataFunc) DataFunc {
	switch {
	case child == nil:
		return parent
	case parent == nil:
		return child
	}
	return func(vm *Instance) map[string]any {
		return mergeData(child(vm), parent(vm))
	}
}

func mergeProvide(parent, child *Provide) *Provide {
	switch {
	case child == nil:
		return parent
	case parent == nil:
		return child
	}
	if parent.Fn == nil && child.Fn == nil {
		return &Provide{Values: mergeData(child.Values, parent.Values)}
	}
	return &Provide{Fn: func(vm *Instance) map[string]any {
		return mergeData(child.resolve(vm), parent.resolve(vm))
	}}
}
