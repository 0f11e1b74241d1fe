package core

import (
	"fmt"
	"sync/atomic"

	"github.com/go-drift/weft/pkg/errors"
)

// Reactive is the reactive-property layer the engine writes bindings through.
// The engine only defines bindings and toggles dependency tracking; how
// reads are tracked and how writes schedule re-renders is up to the
// implementation.
type Reactive interface {
	// DefineReactive creates the binding key on vm. onIllegalWrite, when
	// non-nil, runs before every external write to the binding.
	DefineReactive(vm *Instance, key string, value any, onIllegalWrite func())
	Get(vm *Instance, key string) (any, bool)
	// Set writes the binding and returns the previous value.
	Set(vm *Instance, key string, value any) any
	// SetTracking enables or disables dependency collection.
	SetTracking(enabled bool)
}

type binding struct {
	value          any
	onIllegalWrite func()
}

// BindingLayer is the default Reactive implementation. It stores bindings on
// the instance and records whether dependency tracking is enabled, without
// scheduling re-renders itself.
type BindingLayer struct {
	disabled atomic.Int32
}

// NewBindingLayer returns a BindingLayer with tracking enabled.
func NewBindingLayer() *BindingLayer {
	return &BindingLayer{}
}

func (b *BindingLayer) DefineReactive(vm *Instance, key string, value any, onIllegalWrite func()) {
	if vm.bindings == nil {
		vm.bindings = make(map[string]*binding)
	}
	vm.bindings[key] = &binding{value: value, onIllegalWrite: onIllegalWrite}
}

func (b *BindingLayer) Get(vm *Instance, key string) (any, bool) {
	bd, ok := vm.bindings[key]
	if !ok {
		return nil, false
	}
	return bd.value, true
}

func (b *BindingLayer) Set(vm *Instance, key string, value any) any {
	bd, ok := vm.bindings[key]
	if !ok {
		b.DefineReactive(vm, key, value, nil)
		return nil
	}
	if bd.onIllegalWrite != nil {
		bd.onIllegalWrite()
	}
	old := bd.value
	bd.value = value
	return old
}

// SetTracking nests: every SetTracking(false) must be paired with a
// SetTracking(true).
func (b *BindingLayer) SetTracking(enabled bool) {
	if enabled {
		b.disabled.Add(-1)
	} else {
		b.disabled.Add(1)
	}
}

// Tracking reports whether dependency collection is currently enabled.
func (b *BindingLayer) Tracking() bool {
	return b.disabled.Load() <= 0
}

type watcher struct {
	fn WatchFunc
}

// Watch runs cb after every Set of key. The returned function stops the
// watcher; it is also stopped when the instance is destroyed.
func (vm *Instance) Watch(key string, cb WatchFunc) (unwatch func()) {
	if cb == nil {
		return func() {}
	}
	w := &watcher{fn: cb}
	if vm.watchers == nil {
		vm.watchers = make(map[string][]*watcher)
	}
	vm.watchers[key] = append(vm.watchers[key], w)

	stop := func() {
		list := vm.watchers[key]
		for i, cur := range list {
			if cur == w {
				vm.watchers[key] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
	unregister := vm.OnDispose(stop)
	return func() {
		stop()
		unregister()
	}
}

func (vm *Instance) notify(key string, value, old any) {
	list := vm.watchers[key]
	if len(list) == 0 {
		return
	}
	snapshot := append([]*watcher(nil), list...)
	info := fmt.Sprintf("callback for watcher %q", key)
	for _, w := range snapshot {
		_ = invokeWithErrorHandling(vm, errors.KindHandler, info, func() error {
			return w.fn(vm, value, old)
		})
	}
}
