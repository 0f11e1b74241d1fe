// Package errors provides structured error and diagnostic reporting for weft.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInit indicates a fatal construction error (options resolution or
	// the internal component fast path).
	KindInit
	// KindHook indicates a failure inside a lifecycle hook.
	KindHook
	// KindHandler indicates a failure inside an event handler.
	KindHandler
	// KindState indicates a failure reported by the state initializer.
	KindState
	// KindInject indicates a non-fatal injection resolution problem.
	KindInject
	// KindListener indicates a non-fatal listener registration problem.
	KindListener
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindHook:
		return "hook"
	case KindHandler:
		return "handler"
	case KindState:
		return "state"
	case KindInject:
		return "inject"
	case KindListener:
		return "listener"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// RuntimeError represents a structured error raised while wiring or running
// a component instance.
type RuntimeError struct {
	// Op is the operation that failed (e.g., "core.callHook").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Component is the formatted name of the originating instance, if any.
	Component string
	// Info is a short context label such as `created hook` or `v-on handler`.
	Info string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RuntimeError) Error() string {
	if e.Info != "" {
		return fmt.Sprintf("%s [%s] in %s: %v", e.Op, e.Kind, e.Info, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "events.Invoker").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Diagnostic is a non-fatal warning about how a component is wired, such as a
// missing injection or an invalid listener value.
type Diagnostic struct {
	// Kind categorizes the diagnostic.
	Kind ErrorKind
	// Message is the human readable warning.
	Message string
	// Component is the formatted name of the originating instance, if any.
	Component string
	// Timestamp is when the diagnostic was raised.
	Timestamp time.Time
}

func (d *Diagnostic) Error() string {
	if d.Component != "" {
		return fmt.Sprintf("%s (found in %s)", d.Message, d.Component)
	}
	return d.Message
}

// ErrorHandler receives errors reported by weft.
type ErrorHandler interface {
	// HandleError is called when an isolated hook or handler error occurs.
	HandleError(err *RuntimeError)
	// HandlePanic is called when a panic is recovered outside a component.
	HandlePanic(err *PanicError)
	// HandleDiagnostic is called for non-fatal wiring warnings.
	HandleDiagnostic(d *Diagnostic)
}
