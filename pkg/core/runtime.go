package core

import (
	"slices"
	"sync"

	"github.com/go-drift/weft/pkg/errors"
)

// Runtime owns every instance of a component tree and the collaborators used
// to initialize them. Instances refer to each other by [Handle] and are
// resolved through the runtime.
type Runtime struct {
	mu        sync.Mutex
	instances map[Handle]*Instance
	next      Handle

	dirty    []*Instance
	dirtySet map[Handle]bool

	State    StateInitializer
	Render   RenderScaffold
	Reactive Reactive
	Mounter  Mounter

	// OnNeedsFlush is called when an instance is first scheduled for update
	// since the last Flush.
	OnNeedsFlush func()
}

// NewRuntime returns a runtime wired with the default collaborators.
func NewRuntime() *Runtime {
	return &Runtime{
		instances: make(map[Handle]*Instance),
		State:     DefaultState{},
		Render:    SlotRender{},
		Reactive:  NewBindingLayer(),
		Mounter:   HookMounter{},
	}
}

// Get returns the live instance addressed by h, or nil.
func (r *Runtime) Get(h Handle) *Instance {
	if h == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[h]
}

// Len returns the number of live instances.
func (r *Runtime) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Roots returns the live instances without a parent, in creation order.
func (r *Runtime) Roots() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roots []*Instance
	for _, vm := range r.instances {
		if vm.parent == 0 {
			roots = append(roots, vm)
		}
	}
	slices.SortFunc(roots, func(a, b *Instance) int {
		return int(a.handle) - int(b.handle)
	})
	return roots
}

func (r *Runtime) attach(vm *Instance) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instances == nil {
		r.instances = make(map[Handle]*Instance)
	}
	r.next++
	vm.handle = r.next
	r.instances[vm.handle] = vm
	return vm.handle
}

func (r *Runtime) release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, h)
	delete(r.dirtySet, h)
}

func (r *Runtime) reactive() Reactive {
	if r.Reactive == nil {
		r.Reactive = NewBindingLayer()
	}
	return r.Reactive
}

// ScheduleUpdate queues vm for re-render on the next Flush.
func (r *Runtime) ScheduleUpdate(vm *Instance) {
	added := func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.dirtySet[vm.handle] {
			return false
		}
		if r.dirtySet == nil {
			r.dirtySet = make(map[Handle]bool)
		}
		r.dirtySet[vm.handle] = true
		r.dirty = append(r.dirty, vm)
		return true
	}()

	if added && r.OnNeedsFlush != nil {
		r.OnNeedsFlush()
	}
}

// NeedsFlush reports whether any instance is waiting for update.
func (r *Runtime) NeedsFlush() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirty) > 0
}

// Flush re-renders queued instances, parents before children. Instances
// scheduled during the flush are processed in the same call.
func (r *Runtime) Flush() {
	for {
		r.mu.Lock()
		if len(r.dirty) == 0 {
			r.mu.Unlock()
			return
		}

		slices.SortStableFunc(r.dirty, func(a, b *Instance) int {
			return a.depth - b.depth
		})

		dirty := r.dirty
		r.dirty = nil
		clear(r.dirtySet)
		r.mu.Unlock()

		for _, vm := range dirty {
			if vm.isDestroyed || !vm.isMounted {
				continue
			}
			callHook(vm, BeforeUpdate)
			render := r.renderScaffold()
			_ = invokeWithErrorHandling(vm, errors.KindHandler, "render", func() error {
				return render.Update(vm)
			})
			callHook(vm, Updated)
		}
	}
}
