package events

import (
	"fmt"
	"maps"
	"slices"
)

// Target is the event surface listeners are registered on.
type Target interface {
	Add(event string, inv *Invoker, capture, passive bool, params []any)
	Remove(event string, inv *Invoker, capture bool)
	// Once wraps inv so it unregisters itself after its first invocation.
	Once(event string, inv *Invoker, capture bool) *Invoker
}

// TargetFuncs adapts plain functions to [Target]. A nil OnceFunc falls back
// to [NewOnce] with RemoveFunc as the unregister step.
type TargetFuncs struct {
	AddFunc    func(event string, inv *Invoker, capture, passive bool, params []any)
	RemoveFunc func(event string, inv *Invoker, capture bool)
	OnceFunc   func(event string, inv *Invoker, capture bool) *Invoker
}

func (t TargetFuncs) Add(event string, inv *Invoker, capture, passive bool, params []any) {
	if t.AddFunc != nil {
		t.AddFunc(event, inv, capture, passive, params)
	}
}

func (t TargetFuncs) Remove(event string, inv *Invoker, capture bool) {
	if t.RemoveFunc != nil {
		t.RemoveFunc(event, inv, capture)
	}
}

func (t TargetFuncs) Once(event string, inv *Invoker, capture bool) *Invoker {
	if t.OnceFunc != nil {
		return t.OnceFunc(event, inv, capture)
	}
	return NewOnce(inv, func(w *Invoker) {
		t.Remove(event, w, capture)
	})
}

// Reconcile brings target in line with on, given that old is what the
// previous call registered. Entries of on are rewritten to the registered
// *Invoker so that on can be passed as old next time.
//
// New names are wrapped and added; names whose value changed keep their
// invoker and only swap its payload; names missing from on are removed after
// every addition has been processed. Names are visited in sorted order.
func Reconcile(on, old Listeners, target Target, scope Scope) {
	for _, name := range slices.Sorted(maps.Keys(on)) {
		cur := on[name]
		ev := Parse(name)
		var params []any
		if spec, ok := cur.(Spec); ok {
			params = spec.Params
			cur = spec.Handler
		}

		if isUndef(cur) {
			warn(scope, fmt.Sprintf("Invalid handler for event %q: got %s", ev.Name, describe(cur)))
			continue
		}

		prev := old[name]
		prevInv, registered := prev.(*Invoker)
		if isUndef(prev) || !registered {
			inv, ok := cur.(*Invoker)
			if !ok {
				inv = NewInvoker(cur, scope)
			}
			if ev.Once {
				inv = target.Once(ev.Name, inv, ev.Capture)
			}
			on[name] = inv
			target.Add(ev.Name, inv, ev.Capture, ev.Passive, params)
			continue
		}

		if inv, ok := cur.(*Invoker); ok && inv == prevInv {
			continue
		}
		prevInv.SetPayload(cur)
		on[name] = prevInv
	}

	for _, name := range slices.Sorted(maps.Keys(old)) {
		if !isUndef(on[name]) {
			continue
		}
		ev := Parse(name)
		inv, _ := old[name].(*Invoker)
		target.Remove(ev.Name, inv, ev.Capture)
	}
}

// RemoveAll unregisters every invoker in on from target.
func RemoveAll(on Listeners, target Target) {
	Reconcile(Listeners{}, on, target, nil)
}

func isUndef(l Listener) bool {
	switch v := l.(type) {
	case nil:
		return true
	case Handler:
		return v == nil
	case Handlers:
		return v == nil
	case *Invoker:
		return v == nil
	case Spec:
		return isUndef(v.Handler)
	}
	return false
}
