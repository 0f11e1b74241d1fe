// Package events reconciles declarative listener mappings against an event
// target while keeping registered handler identity stable across updates.
//
// A listener mapping ([Listeners]) associates event names with listener
// values. Names may carry modifier markers that are stripped before
// registration:
//
//	&  passive
//	~  once
//	!  capture
//
// Markers are checked in that order, so "~!click" is a once+capture listener
// for "click" and "&~!scroll" sets all three flags.
//
// # Invokers
//
// Every registered listener is wrapped in an [Invoker]. An invoker holds a
// payload that is either a single [Handler] or an ordered [Handlers] list.
// When a later render produces a different handler for the same name,
// [Reconcile] swaps the payload in place instead of unregistering and
// registering again, so the target keeps seeing the same *Invoker.
//
//	on := events.Listeners{"click": events.Handler(onClick)}
//	events.Reconcile(on, nil, target, scope)
//	// on["click"] is now the registered *Invoker
//
//	next := events.Listeners{"click": events.Handler(onClickV2)}
//	events.Reconcile(next, on, target, scope) // no Add or Remove calls
package events
