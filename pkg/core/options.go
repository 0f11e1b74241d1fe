package core

import "github.com/go-drift/weft/pkg/events"

// Hook names a lifecycle hook.
type Hook string

const (
	BeforeCreate   Hook = "beforeCreate"
	Created        Hook = "created"
	BeforeMount    Hook = "beforeMount"
	Mounted        Hook = "mounted"
	BeforeUpdate   Hook = "beforeUpdate"
	Updated        Hook = "updated"
	BeforeDestroy  Hook = "beforeDestroy"
	Destroyed      Hook = "destroyed"
	Activated      Hook = "activated"
	Deactivated    Hook = "deactivated"
	ServerPrefetch Hook = "serverPrefetch"
)

// LifecycleHooks lists every hook that [Options.Hooks] accepts, in the order
// an instance normally reaches them.
var LifecycleHooks = []Hook{
	BeforeCreate, Created,
	BeforeMount, Mounted,
	BeforeUpdate, Updated,
	BeforeDestroy, Destroyed,
	Activated, Deactivated,
	ServerPrefetch,
}

// HookFunc is a lifecycle callback. A returned error or a panic is reported
// and does not stop sibling hooks.
type HookFunc func(vm *Instance) error

// ErrorCapturedFunc is called on ancestors of an instance whose hook or
// handler failed. Returning false stops the error from propagating further.
type ErrorCapturedFunc func(vm *Instance, err error, source *Instance, info string) bool

// WatchFunc is called after a watched binding changes.
type WatchFunc func(vm *Instance, newValue, oldValue any) error

// Method is an instance method.
type Method func(vm *Instance, args ...any) (any, error)

// Computed derives a value from instance state each time it is read.
type Computed func(vm *Instance) any

// DataFunc produces an instance's initial data.
type DataFunc func(vm *Instance) map[string]any

// RenderFunc produces the instance's render output. Its shape belongs to the
// renderer collaborator.
type RenderFunc func(vm *Instance) any

// Filter transforms a value for display.
type Filter func(value any, args ...any) any

// Directive holds the callbacks of a custom directive.
type Directive struct {
	Bind   func(vm *Instance, value any)
	Update func(vm *Instance, value, oldValue any)
	Unbind func(vm *Instance)
}

// Prop declares an input property.
type Prop struct {
	Type     string
	Required bool
	// Default is used when the parent passes no value. A func(*Instance) any
	// is called with the instance to produce the value.
	Default any
}

// Injection declares a value looked up from ancestor providers.
type Injection struct {
	// Key is the local name of the injected value.
	Key string
	// From is the provider key to look up. Empty means Key.
	From string
	// Default is used when no ancestor provides From. A func(*Instance) any
	// is called with the instance as receiver. Only consulted when
	// HasDefault is set.
	Default    any
	HasDefault bool
}

// Provide declares values exported to descendants. Fn takes precedence over
// Values.
type Provide struct {
	Values map[string]any
	Fn     func(vm *Instance) map[string]any
}

// ProvideValues returns a Provide backed by a fixed mapping.
func ProvideValues(values map[string]any) *Provide {
	return &Provide{Values: values}
}

// ProvideFunc returns a Provide evaluated per instance.
func ProvideFunc(fn func(vm *Instance) map[string]any) *Provide {
	return &Provide{Fn: fn}
}

func (p *Provide) resolve(vm *Instance) map[string]any {
	if p == nil {
		return nil
	}
	if p.Fn != nil {
		return p.Fn(vm)
	}
	return p.Values
}

// Options is a component configuration. Each field is one configuration key
// with a fixed merge strategy (see [StrategyOf]).
type Options struct {
	Name     string
	Abstract bool

	Hooks         map[Hook][]HookFunc
	ErrorCaptured []ErrorCapturedFunc
	Watch         map[string][]WatchFunc

	Props    map[string]Prop
	Methods  map[string]Method
	Computed map[string]Computed
	Data     DataFunc
	Inject   []Injection
	Provide  *Provide

	Components *Assets[*Definition]
	Directives *Assets[Directive]
	Filters    *Assets[Filter]

	El              string
	Template        string
	Render          RenderFunc
	StaticRenderFns []RenderFunc

	// Extra carries keys the engine does not interpret. Each entry merges
	// with own-wins semantics.
	Extra map[string]any

	// Mixins are merged into the ancestor side, in order, before the
	// options themselves.
	Mixins []*Options

	merged bool
}

// On appends hooks for h and returns o for chaining.
func (o *Options) On(h Hook, fns ...HookFunc) *Options {
	if o.Hooks == nil {
		o.Hooks = make(map[Hook][]HookFunc)
	}
	o.Hooks[h] = append(o.Hooks[h], fns...)
	return o
}

// InjectKeys returns the injected keys in declaration order.
func (o *Options) InjectKeys() []string {
	keys := make([]string, 0, len(o.Inject))
	for _, inj := range o.Inject {
		keys = append(keys, inj.Key)
	}
	return keys
}

// VNode is the slice of the renderer's virtual node that instantiation reads.
type VNode struct {
	Tag              string
	Slot             string
	ComponentOptions *VNodeComponentOptions
}

// VNodeComponentOptions is what a parent render passes to a child component.
type VNodeComponentOptions struct {
	PropsData map[string]any
	Listeners events.Listeners
	Children  []*VNode
	Tag       string
}

// InstanceOptions is the configuration seen by one instance. The embedded
// Options may be shared with other instances of the same definition and must
// be treated as read-only; the remaining fields belong to the instance.
type InstanceOptions struct {
	*Options

	Parent          *Instance
	ParentVNode     *VNode
	PropsData       map[string]any
	ParentListeners events.Listeners
	RenderChildren  []*VNode
	ComponentTag    string
	Render          RenderFunc
	StaticRenderFns []RenderFunc
}

// CreationOptions are the arguments of [Runtime.New].
type CreationOptions struct {
	// IsComponent marks an instance created by a parent render. Such
	// instances skip the full merge and read the definition's resolved
	// options directly.
	IsComponent     bool
	Parent          *Instance
	ParentVNode     *VNode
	Render          RenderFunc
	StaticRenderFns []RenderFunc

	// Options are merged over the definition's resolved options for
	// user-facing instantiation.
	Options   *Options
	PropsData map[string]any
}
