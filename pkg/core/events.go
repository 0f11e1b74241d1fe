package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-drift/weft/pkg/errors"
	"github.com/go-drift/weft/pkg/events"
)

// On registers l for event on vm's own bus and returns the registered
// invoker, which can later be passed to Off.
func (vm *Instance) On(event string, l events.Listener) *events.Invoker {
	inv, ok := l.(*events.Invoker)
	if !ok {
		inv = events.NewInvoker(l, vm)
	}
	vm.addListener(event, inv)
	return inv
}

// Once registers l for a single delivery of event.
func (vm *Instance) Once(event string, l events.Listener) *events.Invoker {
	inner, ok := l.(*events.Invoker)
	if !ok {
		inner = events.NewInvoker(l, vm)
	}
	inv := events.NewOnce(inner, func(w *events.Invoker) {
		vm.Off(event, w)
	})
	vm.addListener(event, inv)
	return inv
}

func (vm *Instance) addListener(event string, inv *events.Invoker) {
	if vm.events == nil {
		vm.events = make(map[string][]*events.Invoker)
	}
	vm.events[event] = append(vm.events[event], inv)
	if strings.HasPrefix(event, "hook:") {
		vm.hasHookEvent = true
	}
}

// Off removes listeners. An empty event removes every listener; a nil inv
// removes every listener for event.
func (vm *Instance) Off(event string, inv *events.Invoker) {
	if event == "" {
		vm.events = nil
		vm.hasHookEvent = false
		return
	}
	if inv == nil {
		delete(vm.events, event)
		return
	}
	list := vm.events[event]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == inv || list[i].Inner() == inv {
			vm.events[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(vm.events[event]) == 0 {
		delete(vm.events, event)
	}
}

// Emit delivers args to every listener registered for event, in
// registration order. Listeners added or removed during delivery take effect
// on the next Emit.
func (vm *Instance) Emit(event string, args ...any) {
	if DebugMode {
		lower := strings.ToLower(event)
		if lower != event && len(vm.events[lower]) > 0 {
			vm.warn(errors.KindListener, fmt.Sprintf(
				"Event %q is emitted in component %s but the handler is registered for %q. "+
					"Event names are case sensitive; use kebab-case names for listeners.",
				lower, vm.Name(), event))
		}
	}
	snapshot := slices.Clone(vm.events[event])
	for _, inv := range snapshot {
		_, _ = inv.Invoke(args...)
	}
}

// HasListeners reports whether anything is registered for event.
func (vm *Instance) HasListeners(event string) bool {
	return len(vm.events[event]) > 0
}

// UpdateListeners reconciles the listeners supplied by the parent against
// the previous set, registering on vm's own bus.
func (vm *Instance) UpdateListeners(next events.Listeners) {
	old := vm.listeners
	if next == nil {
		next = events.Listeners{}
	} else {
		next = cloneListeners(next)
	}
	events.Reconcile(next, old, vm.busTarget(), vm)
	vm.listeners = next
}

func cloneListeners(src events.Listeners) events.Listeners {
	dst := make(events.Listeners, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (vm *Instance) busTarget() events.Target {
	return events.TargetFuncs{
		AddFunc: func(event string, inv *events.Invoker, _, _ bool, _ []any) {
			vm.addListener(event, inv)
		},
		RemoveFunc: func(event string, inv *events.Invoker, _ bool) {
			if inv != nil {
				vm.Off(event, inv)
			}
		},
		OnceFunc: func(event string, inv *events.Invoker, _ bool) *events.Invoker {
			return events.NewOnce(inv, func(w *events.Invoker) {
				vm.Off(event, w)
			})
		},
	}
}
