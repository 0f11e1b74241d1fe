package core

import (
	"fmt"

	"github.com/go-drift/weft/pkg/errors"
)

// New creates an instance of def and runs it through creation: options,
// lifecycle links, events, render scaffold, beforeCreate, injections, state,
// provide, created, and mount when the options name a mount target.
//
// A non-nil error means options could not be resolved; the instance was not
// created and nothing was attached to the runtime. Failures after that point
// are reported and never returned.
func (r *Runtime) New(def *Definition, creation CreationOptions) (*Instance, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}

	vm := &Instance{uid: uidCounter.Add(1), runtime: r, def: def}

	opts, err := resolveInstanceOptions(vm, def, creation)
	if err != nil {
		return nil, err
	}
	vm.opts = opts

	initLifecycle(vm)
	initEvents(vm)
	r.renderScaffold().InitRender(vm)
	callHook(vm, BeforeCreate)
	initInjections(vm)
	initState(vm)
	initProvide(vm)
	callHook(vm, Created)

	if vm.opts.El != "" {
		if err := vm.Mount(vm.opts.El); err != nil {
			handleError(err, vm, "mount", errors.KindInit)
		}
	}
	return vm, nil
}

// MustNew is like New but panics when options cannot be resolved.
func (r *Runtime) MustNew(def *Definition, creation CreationOptions) *Instance {
	vm, err := r.New(def, creation)
	if err != nil {
		panic(err)
	}
	return vm
}

func resolveInstanceOptions(vm *Instance, def *Definition, creation CreationOptions) (*InstanceOptions, error) {
	resolved, err := Resolve(def)
	if err != nil {
		return nil, err
	}

	if creation.IsComponent {
		return internalComponentOptions(resolved, creation)
	}

	merged, err := MergeOptions(resolved, creation.Options, vm)
	if err != nil {
		return nil, fmt.Errorf("core: instantiate %s: %w", nameOf(resolved), err)
	}
	opts := &InstanceOptions{
		Options:     merged,
		Parent:      creation.Parent,
		ParentVNode: creation.ParentVNode,
		PropsData:   creation.PropsData,
		Render:      merged.Render,
	}
	if creation.Render != nil {
		opts.Render = creation.Render
		opts.StaticRenderFns = creation.StaticRenderFns
	} else {
		opts.StaticRenderFns = merged.StaticRenderFns
	}
	return opts, nil
}

// internalComponentOptions shares the definition's resolved options instead
// of merging. The parent vnode must carry component options.
func internalComponentOptions(resolved *Options, creation CreationOptions) (*InstanceOptions, error) {
	vnode := creation.ParentVNode
	if vnode == nil || vnode.ComponentOptions == nil {
		return nil, fmt.Errorf("%w: internal component %s created without parent vnode component options",
			ErrInvalidOptions, nameOf(resolved))
	}
	co := vnode.ComponentOptions
	opts := &InstanceOptions{
		Options:         resolved,
		Parent:          creation.Parent,
		ParentVNode:     vnode,
		PropsData:       co.PropsData,
		ParentListeners: co.Listeners,
		RenderChildren:  co.Children,
		ComponentTag:    co.Tag,
		Render:          resolved.Render,
		StaticRenderFns: resolved.StaticRenderFns,
	}
	if creation.Render != nil {
		opts.Render = creation.Render
		opts.StaticRenderFns = creation.StaticRenderFns
	}
	return opts, nil
}

func initEvents(vm *Instance) {
	if len(vm.opts.ParentListeners) > 0 {
		vm.UpdateListeners(vm.opts.ParentListeners)
	}
}

func initState(vm *Instance) {
	state := vm.runtime.State
	if state == nil {
		state = DefaultState{}
	}
	_ = invokeWithErrorHandling(vm, errors.KindState, "initState", func() error {
		return state.InitState(vm)
	})
}

func (r *Runtime) renderScaffold() RenderScaffold {
	if r.Render == nil {
		return SlotRender{}
	}
	return r.Render
}
