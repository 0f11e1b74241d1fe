// Package core provides component definitions, options resolution and the
// instance lifecycle.
//
// This package defines the foundational types of a component tree:
// Options, Definition, Instance and Runtime. Definitions describe what a
// component is; instances are live nodes created from them and owned by a
// Runtime.
//
// # Definitions
//
// A Definition is built from Options and may be extended into child
// definitions. Resolved options are computed once and cached:
//
//	base := core.MustDefine(&core.Options{Name: "base-button"})
//	primary := base.MustExtend(&core.Options{Name: "primary-button"})
//
// Each Options field merges with a fixed strategy (see StrategyOf): hooks and
// watchers concatenate, props and methods extend by name, registries chain to
// the ancestor's registry, and everything else lets the child win.
//
// # Instances
//
// Runtime.New runs creation in a fixed order:
//
//	rt := core.NewRuntime()
//	vm, err := rt.New(primary, core.CreationOptions{})
//
// A returned error means the options could not be resolved and nothing was
// created. Hook, handler and state failures are isolated, offered to the
// ancestors' ErrorCaptured hooks, and then reported through the errors
// package.
//
// # Injection
//
// Provide exports values to descendants and Inject looks them up by walking
// ancestors. Injected values are defined as reactive bindings that warn on
// direct mutation.
//
// # Events
//
// Every instance has an event bus (On, Once, Off, Emit). Listeners declared
// by a parent are reconciled onto the bus with UpdateListeners, which reuses
// registered invokers so that only new or removed names touch the bus.
//
// # Collaborators
//
// State, render scaffolding, the reactive layer and mounting are pluggable
// through the StateInitializer, RenderScaffold, Reactive and Mounter fields of
// Runtime. NewRuntime wires defaults for all four.
package core
