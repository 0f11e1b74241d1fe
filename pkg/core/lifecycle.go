package core

import (
	"fmt"
	"time"

	"github.com/go-drift/weft/pkg/errors"
	"github.com/go-drift/weft/pkg/events"
)

// initLifecycle links vm into its parent's children, skipping abstract
// ancestors, and registers it with the runtime.
func initLifecycle(vm *Instance) {
	vm.runtime.attach(vm)
	vm.root = vm.handle

	parent := vm.opts.Parent
	if parent != nil && !vm.opts.Abstract {
		for parent.opts.Abstract {
			next := parent.Parent()
			if next == nil {
				break
			}
			parent = next
		}
		parent.children = append(parent.children, vm.handle)
	}
	if parent != nil {
		vm.parent = parent.handle
		vm.root = parent.Root().handle
		vm.depth = parent.depth + 1
	}
}

// callHook runs every handler for hook in order with dependency tracking
// disabled. A failing handler is reported and does not stop the next one.
func callHook(vm *Instance, hook Hook) {
	handlers := vm.opts.Hooks[hook]
	if len(handlers) == 0 && !vm.hasHookEvent {
		return
	}
	reactive := vm.runtime.reactive()
	reactive.SetTracking(false)
	defer reactive.SetTracking(true)

	info := string(hook) + " hook"
	for _, fn := range handlers {
		if fn == nil {
			continue
		}
		_ = invokeWithErrorHandling(vm, errors.KindHook, info, func() error {
			return fn(vm)
		})
	}
	if vm.hasHookEvent {
		vm.Emit("hook:" + string(hook))
	}
}

// invokeWithErrorHandling runs fn, converting a panic into an error. Any
// failure is routed through handleError and returned.
func invokeWithErrorHandling(vm *Instance, kind errors.ErrorKind, info string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.PanicError{Op: info, Value: r, StackTrace: errors.CaptureStack()}
			handleError(err, vm, info, kind)
		}
	}()
	if err = fn(); err != nil {
		handleError(err, vm, info, kind)
	}
	return err
}

// handleError offers err to the errorCaptured hooks of vm's ancestors,
// nearest first. A hook returning false stops propagation; otherwise the
// error is reported globally.
func handleError(err error, vm *Instance, info string, kind errors.ErrorKind) {
	if err == nil {
		return
	}
	if vm != nil {
		reactive := vm.runtime.reactive()
		reactive.SetTracking(false)
		defer reactive.SetTracking(true)

		for cur := vm.Parent(); cur != nil; cur = cur.Parent() {
			for _, hook := range cur.opts.ErrorCaptured {
				if hook == nil {
					continue
				}
				capture := true
				hookErr := func() (hookErr error) {
					defer func() {
						if r := recover(); r != nil {
							hookErr = &errors.PanicError{Op: "errorCaptured hook", Value: r}
						}
					}()
					capture = hook(cur, err, vm, info)
					return nil
				}()
				if hookErr != nil {
					globalReport(hookErr, cur, "errorCaptured hook", errors.KindHook)
				}
				if !capture {
					return
				}
			}
		}
	}
	globalReport(err, vm, info, kind)
}

func globalReport(err error, vm *Instance, info string, kind errors.ErrorKind) {
	if _, isPanic := err.(*errors.PanicError); isPanic {
		kind = errors.KindPanic
	}
	errors.Report(&errors.RuntimeError{
		Op:         "core." + kind.String(),
		Kind:       kind,
		Err:        err,
		Component:  vm.Name(),
		Info:       info,
		StackTrace: stackOf(err),
		Timestamp:  time.Now(),
	})
}

func stackOf(err error) string {
	if pe, ok := err.(*errors.PanicError); ok {
		return pe.StackTrace
	}
	return ""
}

// Mount attaches vm to target through the runtime's Mounter. Mounting an
// already mounted instance is a no-op.
func (vm *Instance) Mount(target string) error {
	if vm.isDestroyed {
		return fmt.Errorf("core: mount %s: instance destroyed", vm.Name())
	}
	if vm.isMounted {
		return nil
	}
	m := vm.runtime.Mounter
	if m == nil {
		m = HookMounter{}
	}
	if err := m.Mount(vm, target); err != nil {
		return fmt.Errorf("core: mount %s: %w", vm.Name(), err)
	}
	vm.isMounted = true
	return nil
}

// ForceUpdate schedules vm for re-render on the next [Runtime.Flush].
func (vm *Instance) ForceUpdate() {
	if vm.isDestroyed {
		return
	}
	vm.runtime.ScheduleUpdate(vm)
}

// UpdateFromParent applies new props, listeners and render children passed
// by a re-rendering parent.
func (vm *Instance) UpdateFromParent(vnode *VNode) {
	if vm.isDestroyed || vnode == nil {
		return
	}
	vm.opts.ParentVNode = vnode
	co := vnode.ComponentOptions
	if co == nil {
		return
	}

	reactive := vm.runtime.reactive()
	reactive.SetTracking(false)
	for name := range vm.opts.Props {
		if value, ok := co.PropsData[name]; ok {
			vm.Set(name, value)
		}
	}
	reactive.SetTracking(true)
	vm.opts.PropsData = co.PropsData

	vm.UpdateListeners(co.Listeners)

	if len(co.Children) > 0 || len(vm.opts.RenderChildren) > 0 {
		vm.opts.RenderChildren = co.Children
		vm.slots = resolveSlots(co.Children)
		vm.ForceUpdate()
	}
}

// Destroy tears vm and its subtree down. Calling it again is a no-op.
func (vm *Instance) Destroy() {
	if vm.isBeingDestroyed || vm.isDestroyed {
		return
	}
	callHook(vm, BeforeDestroy)
	vm.isBeingDestroyed = true

	if parent := vm.Parent(); parent != nil && !parent.isBeingDestroyed && !vm.opts.Abstract {
		parent.removeChild(vm.handle)
	}

	for _, child := range vm.Children() {
		child.Destroy()
	}
	vm.children = nil

	vm.runDisposers()
	vm.isDestroyed = true

	events.RemoveAll(vm.listeners, vm.busTarget())
	vm.listeners = nil

	callHook(vm, Destroyed)
	vm.Off("", nil)

	vm.runtime.release(vm.handle)
}

func (vm *Instance) removeChild(h Handle) {
	for i, c := range vm.children {
		if c == h {
			vm.children = append(vm.children[:i:i], vm.children[i+1:]...)
			return
		}
	}
}
