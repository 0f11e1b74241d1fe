package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-drift/weft/pkg/errors"
	"github.com/go-drift/weft/pkg/events"
)

var uidCounter atomic.Uint64

// Handle addresses an instance inside its [Runtime]. The zero Handle refers
// to no instance.
type Handle uint64

// Instance is one node of the component tree. Parents own their children
// through handles; a child refers back to its parent by handle only.
type Instance struct {
	uid     uint64
	handle  Handle
	runtime *Runtime
	def     *Definition
	opts    *InstanceOptions

	parent   Handle
	root     Handle
	children []Handle
	depth    int

	provided    map[string]any
	hasProvided bool
	injected    map[string]any

	bindings map[string]*binding
	watchers map[string][]*watcher
	slots    map[string][]*VNode

	events       map[string][]*events.Invoker
	hasHookEvent bool
	listeners    events.Listeners

	isMounted        bool
	isBeingDestroyed bool
	isDestroyed      bool
	inactive         bool

	disposers []func()
}

// UID returns the process-unique id assigned when the instance was created.
func (vm *Instance) UID() uint64 { return vm.uid }

// Handle returns the instance's handle in its runtime.
func (vm *Instance) Handle() Handle { return vm.handle }

// Runtime returns the runtime that owns the instance.
func (vm *Instance) Runtime() *Runtime { return vm.runtime }

// Definition returns the definition the instance was created from.
func (vm *Instance) Definition() *Definition { return vm.def }

// Options returns the instance's configuration.
func (vm *Instance) Options() *InstanceOptions { return vm.opts }

// Parent returns the parent instance, or nil for a root or a detached instance.
func (vm *Instance) Parent() *Instance {
	if vm.parent == 0 {
		return nil
	}
	return vm.runtime.Get(vm.parent)
}

// Root returns the root of the instance's tree.
func (vm *Instance) Root() *Instance {
	if vm.root == vm.handle {
		return vm
	}
	if root := vm.runtime.Get(vm.root); root != nil {
		return root
	}
	return vm
}

// Children returns the live child instances in attach order.
func (vm *Instance) Children() []*Instance {
	out := make([]*Instance, 0, len(vm.children))
	for _, h := range vm.children {
		if child := vm.runtime.Get(h); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// Depth returns the distance from the root; roots have depth 0.
func (vm *Instance) Depth() int { return vm.depth }

// IsMounted reports whether the instance has been mounted.
func (vm *Instance) IsMounted() bool { return vm.isMounted }

// IsDestroyed reports whether Destroy has completed.
func (vm *Instance) IsDestroyed() bool { return vm.isDestroyed }

// Provided returns the values the instance exports to its descendants.
func (vm *Instance) Provided() map[string]any { return vm.provided }

// Injected returns the value injected under key.
func (vm *Instance) Injected(key string) (any, bool) {
	v, ok := vm.injected[key]
	return v, ok
}

// InjectedKeys returns the injected keys, sorted.
func (vm *Instance) InjectedKeys() []string {
	return slices.Sorted(maps.Keys(vm.injected))
}

// Slots returns the render children grouped by slot name.
func (vm *Instance) Slots() map[string][]*VNode { return vm.slots }

// Listeners returns the listener mapping last reconciled from the parent.
func (vm *Instance) Listeners() events.Listeners { return vm.listeners }

// Get reads a binding (prop, data or injection) or evaluates a computed
// property.
func (vm *Instance) Get(key string) (any, bool) {
	if c, ok := vm.opts.Computed[key]; ok && c != nil {
		return c(vm), true
	}
	return vm.runtime.reactive().Get(vm, key)
}

// Set writes a binding and runs the watchers registered for key.
func (vm *Instance) Set(key string, value any) {
	old := vm.runtime.reactive().Set(vm, key, value)
	vm.notify(key, value, old)
}

// Call invokes a method declared in the instance's options.
func (vm *Instance) Call(method string, args ...any) (any, error) {
	fn, ok := vm.opts.Methods[method]
	if !ok || fn == nil {
		return nil, fmt.Errorf("core: %s has no method %q", vm.Name(), method)
	}
	var res any
	err := invokeWithErrorHandling(vm, errors.KindHandler, fmt.Sprintf("method %q", method), func() error {
		var err error
		res, err = fn(vm, args...)
		return err
	})
	return res, err
}

// Filter resolves a filter from the instance's registries and applies it.
func (vm *Instance) Filter(name string, value any, args ...any) any {
	f, ok := vm.opts.Filters.Resolve(name)
	if !ok || f == nil {
		vm.warn(errors.KindUnknown, fmt.Sprintf("Failed to resolve filter: %s", name))
		return value
	}
	return f(value, args...)
}

// Component resolves a nested component definition by name.
func (vm *Instance) Component(name string) (*Definition, bool) {
	return vm.opts.Components.Resolve(name)
}

// OnDispose registers cleanup to run, in reverse registration order, when
// the instance is destroyed. The returned function unregisters it.
func (vm *Instance) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}
	if vm.isDestroyed {
		cleanup()
		return func() {}
	}
	index := len(vm.disposers)
	vm.disposers = append(vm.disposers, cleanup)
	return func() {
		if index < len(vm.disposers) {
			vm.disposers[index] = nil
		}
	}
}

func (vm *Instance) runDisposers() {
	for i := len(vm.disposers) - 1; i >= 0; i-- {
		if vm.disposers[i] != nil {
			vm.disposers[i]()
		}
	}
	vm.disposers = nil
}

// Name formats the instance for diagnostics, e.g. "<TodoItem>".
func (vm *Instance) Name() string {
	if vm == nil {
		return ""
	}
	if vm.parent == 0 && vm.handle != 0 && vm.root == vm.handle {
		return "<Root>"
	}
	name := ""
	if vm.opts != nil {
		name = vm.opts.Name
		if name == "" {
			name = vm.opts.ComponentTag
		}
	}
	if name == "" {
		return "<Anonymous>"
	}
	return "<" + classify(name) + ">"
}

func (vm *Instance) String() string {
	return fmt.Sprintf("%s#%d", vm.Name(), vm.uid)
}

// HandleError reports err raised by a callback owned by vm.
func (vm *Instance) HandleError(err error, info string) {
	handleError(err, vm, info, errors.KindHandler)
}

// Warn reports a non-fatal diagnostic attributed to vm.
func (vm *Instance) Warn(msg string) {
	vm.warn(errors.KindListener, msg)
}

func (vm *Instance) warn(kind errors.ErrorKind, msg string) {
	if !DebugMode {
		return
	}
	errors.Warn(&errors.Diagnostic{Kind: kind, Message: msg, Component: vm.Name()})
}

func warnf(vm *Instance, format string, args ...any) {
	if !DebugMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if vm != nil {
		vm.warn(errors.KindUnknown, msg)
		return
	}
	errors.Warn(&errors.Diagnostic{Message: msg})
}

// classify turns kebab-case or snake_case names into PascalCase.
func classify(name string) string {
	return capitalize(camelize(name))
}

func camelize(name string) string {
	if !strings.ContainsAny(name, "-_") {
		return name
	}
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i := 1; i < len(parts); i++ {
		parts[i] = capitalize(parts[i])
	}
	return strings.Join(parts, "")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
