package core

import (
	"fmt"
	"slices"

	"github.com/go-drift/weft/pkg/errors"
)

// observerKey marks the reactive layer's bookkeeping entry; it is never
// treated as an injection.
const observerKey = "__ob__"

// ResolveInject looks up every injection for vm. Each From key is searched
// on vm first, then on its ancestors by handle; the first provider holding
// it wins. Unresolved keys fall back to their default, and keys with neither
// a provider nor a default are left out of the result.
func ResolveInject(inject []Injection, vm *Instance) map[string]any {
	if len(inject) == 0 {
		return nil
	}
	result := make(map[string]any, len(inject))
	for _, inj := range inject {
		if inj.Key == observerKey {
			continue
		}
		from := inj.From
		if from == "" {
			from = inj.Key
		}

		found := false
		for source := vm; source != nil; source = source.Parent() {
			if !source.hasProvided {
				continue
			}
			if v, ok := source.provided[from]; ok {
				result[inj.Key] = v
				found = true
				break
			}
		}
		if found {
			continue
		}

		if inj.HasDefault {
			v, err := injectDefault(vm, inj)
			if err != nil {
				handleError(err, vm, fmt.Sprintf("default for injection %q", inj.Key), errors.KindInject)
				continue
			}
			result[inj.Key] = v
			continue
		}
		vm.warn(errors.KindInject, fmt.Sprintf("Injection %q not found", inj.Key))
	}
	return result
}

func injectDefault(vm *Instance, inj Injection) (v any, err error) {
	fn, ok := inj.Default.(func(*Instance) any)
	if !ok {
		return inj.Default, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &errors.PanicError{Op: "inject default", Value: r, StackTrace: errors.CaptureStack()}
		}
	}()
	return fn(vm), nil
}

// RegisterInjections binds each resolved value on vm as a reactive property.
// Tracking is disabled while the bindings are defined so that defining them
// does not subscribe the running computation.
func RegisterInjections(vm *Instance, resolved map[string]any) {
	if len(resolved) == 0 {
		return
	}
	reactive := vm.runtime.reactive()
	reactive.SetTracking(false)
	defer reactive.SetTracking(true)

	for _, key := range registrationOrder(vm, resolved) {
		var onIllegalWrite func()
		if DebugMode {
			onIllegalWrite = func() {
				vm.warn(errors.KindInject, fmt.Sprintf(
					"Avoid mutating an injected value directly since the changes will be "+
						"overwritten whenever the provided component re-renders. "+
						"injection being mutated: %q", key))
			}
		}
		reactive.DefineReactive(vm, key, resolved[key], onIllegalWrite)
	}
	vm.injected = resolved
}

// registrationOrder lists the keys of resolved in declaration order. Keys
// vm does not declare follow, sorted.
func registrationOrder(vm *Instance, resolved map[string]any) []string {
	var declared []string
	if vm.opts != nil && vm.opts.Options != nil {
		declared = vm.opts.InjectKeys()
	}
	keys := make([]string, 0, len(resolved))
	for _, key := range declared {
		if _, ok := resolved[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range resolved {
		if !slices.Contains(keys, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

func initInjections(vm *Instance) {
	RegisterInjections(vm, ResolveInject(vm.opts.Inject, vm))
}

// initProvide captures the values vm exports. A failing provide function
// is reported and leaves vm with nothing provided.
func initProvide(vm *Instance) {
	p := vm.opts.Provide
	if p == nil {
		return
	}
	var provided map[string]any
	err := invokeWithErrorHandling(vm, errors.KindInject, "provide", func() error {
		provided = p.resolve(vm)
		return nil
	})
	if err != nil {
		return
	}
	vm.provided = provided
	vm.hasProvided = true
}
