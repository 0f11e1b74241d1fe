package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/weft/pkg/errors"
)

// StateInitializer populates an instance's props, methods, data, computed
// properties and watchers. Returned errors and panics are reported, never
// propagated out of instantiation.
type StateInitializer interface {
	InitState(vm *Instance) error
}

// RenderScaffold prepares the context a render function reads and performs
// re-renders on update.
type RenderScaffold interface {
	InitRender(vm *Instance)
	Update(vm *Instance) error
}

// Mounter attaches an instance to a target surface.
type Mounter interface {
	Mount(vm *Instance, target string) error
}

// StateInitializerFunc adapts a function to StateInitializer.
type StateInitializerFunc func(vm *Instance) error

func (f StateInitializerFunc) InitState(vm *Instance) error { return f(vm) }

// MounterFunc adapts a function to Mounter.
type MounterFunc func(vm *Instance, target string) error

func (f MounterFunc) Mount(vm *Instance, target string) error { return f(vm, target) }

// DefaultState seeds bindings from props, data and watch options.
type DefaultState struct{}

func (DefaultState) InitState(vm *Instance) error {
	opts := vm.Options()
	reactive := vm.runtime.reactive()

	for _, name := range slices.Sorted(maps.Keys(opts.Props)) {
		prop := opts.Props[name]
		value, ok := opts.PropsData[name]
		switch {
		case ok:
		case prop.Required:
			handleError(fmt.Errorf("missing required prop %q", name), vm, "initState", errors.KindState)
		default:
			value = propDefault(vm, prop)
		}
		reactive.DefineReactive(vm, name, value, nil)
	}

	for name := range opts.Methods {
		if _, isProp := opts.Props[name]; isProp {
			vm.warn(errors.KindState, fmt.Sprintf("Method %q has already been defined as a prop.", name))
		}
	}

	if opts.Data != nil {
		data := opts.Data(vm)
		for _, key := range slices.Sorted(maps.Keys(data)) {
			if _, isProp := opts.Props[key]; isProp {
				vm.warn(errors.KindState, fmt.Sprintf("The data property %q is already declared as a prop. Use prop default value instead.", key))
				continue
			}
			if _, isMethod := opts.Methods[key]; isMethod {
				vm.warn(errors.KindState, fmt.Sprintf("Method %q has already been defined as a data property.", key))
			}
			reactive.DefineReactive(vm, key, data[key], nil)
		}
	}

	for name := range opts.Computed {
		if _, ok := reactive.Get(vm, name); ok {
			vm.warn(errors.KindState, fmt.Sprintf("The computed property %q is already defined in data or props.", name))
		}
	}

	for _, key := range slices.Sorted(maps.Keys(opts.Watch)) {
		for _, cb := range opts.Watch[key] {
			vm.Watch(key, cb)
		}
	}
	return nil
}

func propDefault(vm *Instance, prop Prop) any {
	if fn, ok := prop.Default.(func(*Instance) any); ok {
		return fn(vm)
	}
	return prop.Default
}

// SlotRender is the default RenderScaffold. It groups render children by
// slot name and re-renders through the options' render function.
type SlotRender struct{}

func (SlotRender) InitRender(vm *Instance) {
	vm.slots = resolveSlots(vm.opts.RenderChildren)
}

func (SlotRender) Update(vm *Instance) error {
	if vm.opts.Render == nil {
		return nil
	}
	vm.opts.Render(vm)
	return nil
}

func resolveSlots(children []*VNode) map[string][]*VNode {
	if len(children) == 0 {
		return map[string][]*VNode{}
	}
	slots := make(map[string][]*VNode)
	for _, child := range children {
		if child == nil {
			continue
		}
		name := child.Slot
		if name == "" {
			name = "default"
		}
		slots[name] = append(slots[name], child)
	}
	return slots
}

// HookMounter is the default Mounter. It runs beforeMount and mounted around
// marking the instance mounted; the target is not interpreted.
type HookMounter struct{}

func (HookMounter) Mount(vm *Instance, target string) error {
	callHook(vm, BeforeMount)
	vm.isMounted = true
	callHook(vm, Mounted)
	return nil
}
