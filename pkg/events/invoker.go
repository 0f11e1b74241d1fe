package events

import (
	"fmt"

	"github.com/go-drift/weft/pkg/errors"
)

const handlerInfo = "event handler"

// Handler is a single event callback. The returned value is handed back to
// the emitter when the handler is the only payload of its invoker.
type Handler func(args ...any) (any, error)

// Handlers is an ordered list of callbacks registered under one name.
type Handlers []Handler

// Spec attaches registration parameters to a listener.
type Spec struct {
	Handler Listener
	Params  []any
}

// Listener is a listener mapping value: a [Handler], [Handlers], [Spec] or an
// already registered [*Invoker].
type Listener interface {
	isListener()
}

func (Handler) isListener()  {}
func (Handlers) isListener() {}
func (Spec) isListener()     {}
func (*Invoker) isListener() {}

// Listeners maps event names (with optional modifier markers) to listeners.
type Listeners map[string]Listener

// Scope receives failures and warnings raised while dispatching or
// reconciling. Component instances implement it so that errors are attributed
// to the instance that owns the listener.
type Scope interface {
	HandleError(err error, info string)
	Warn(msg string)
}

// Invoker is the stable object registered with an event target. Its payload
// can be replaced in place without re-registration.
type Invoker struct {
	single Handler
	list   Handlers
	isList bool

	// inner is set on once wrappers; payload updates are forwarded to it.
	inner    *Invoker
	dispatch func(args ...any) (any, error)

	scope Scope
}

// NewInvoker wraps l in an invoker that reports failures to scope.
// A nil scope reports to the global errors handler.
func NewInvoker(l Listener, scope Scope) *Invoker {
	iv := &Invoker{scope: scope}
	iv.SetPayload(l)
	return iv
}

// NewOnce wraps inner so that done runs after the first invocation that
// returns without error. done typically removes the wrapper from its target.
func NewOnce(inner *Invoker, done func(wrapper *Invoker)) *Invoker {
	w := &Invoker{inner: inner, scope: inner.scope}
	fired := false
	w.dispatch = func(args ...any) (any, error) {
		if fired {
			return nil, nil
		}
		res, err := inner.Invoke(args...)
		if err == nil {
			fired = true
			if done != nil {
				done(w)
			}
		}
		return res, err
	}
	return w
}

// SetPayload replaces the callbacks run by the invoker.
func (iv *Invoker) SetPayload(l Listener) {
	if iv.inner != nil {
		iv.inner.SetPayload(l)
		return
	}
	iv.single, iv.list, iv.isList = nil, nil, false
	switch v := l.(type) {
	case Handler:
		iv.single = v
	case Handlers:
		iv.list = v
		iv.isList = true
	case Spec:
		iv.SetPayload(v.Handler)
	case *Invoker:
		if v != nil && v != iv {
			iv.single = v.Invoke
		}
	}
}

// Inner returns the wrapped invoker of a once wrapper, or iv itself.
func (iv *Invoker) Inner() *Invoker {
	if iv.inner != nil {
		return iv.inner
	}
	return iv
}

// Len reports how many callbacks the payload holds.
func (iv *Invoker) Len() int {
	target := iv.Inner()
	if target.isList {
		return len(target.list)
	}
	if target.single != nil {
		return 1
	}
	return 0
}

// Invoke runs the payload. A list payload runs a snapshot of its entries in
// order; a failing entry is reported and the next one still runs, and the
// call itself returns (nil, nil). A single payload returns the handler's
// value and error to the caller after reporting any failure.
func (iv *Invoker) Invoke(args ...any) (any, error) {
	if iv.dispatch != nil {
		return iv.dispatch(args...)
	}
	if iv.isList {
		cloned := make(Handlers, len(iv.list))
		copy(cloned, iv.list)
		for _, h := range cloned {
			_, _ = invokeWithErrorHandling(h, args, iv.scope)
		}
		return nil, nil
	}
	if iv.single == nil {
		return nil, nil
	}
	return invokeWithErrorHandling(iv.single, args, iv.scope)
}

func invokeWithErrorHandling(h Handler, args []any, scope Scope) (res any, err error) {
	if h == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &errors.PanicError{Op: handlerInfo, Value: r, StackTrace: errors.CaptureStack()}
			report(scope, err)
		}
	}()
	res, err = h(args...)
	if err != nil {
		report(scope, err)
	}
	return res, err
}

func report(scope Scope, err error) {
	if scope != nil {
		scope.HandleError(err, handlerInfo)
		return
	}
	if pe, ok := err.(*errors.PanicError); ok {
		errors.ReportPanic(pe)
		return
	}
	errors.Report(&errors.RuntimeError{
		Op:   "events.Invoker",
		Kind: errors.KindHandler,
		Err:  err,
		Info: handlerInfo,
	})
}

func warn(scope Scope, msg string) {
	if scope != nil {
		scope.Warn(msg)
		return
	}
	errors.Warn(&errors.Diagnostic{Kind: errors.KindListener, Message: msg})
}

func describe(l Listener) string {
	if l == nil {
		return "undefined"
	}
	return fmt.Sprintf("%T(nil)", l)
}
