package events

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/weft/pkg/errors"
)

type call struct {
	Op      string
	Event   string
	Capture bool
	Passive bool
}

// recordingTarget is a minimal event bus that records registration calls.
type recordingTarget struct {
	calls      []call
	registered map[string][]*Invoker
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{registered: map[string][]*Invoker{}}
}

func (t *recordingTarget) Add(event string, inv *Invoker, capture, passive bool, params []any) {
	t.calls = append(t.calls, call{Op: "add", Event: event, Capture: capture, Passive: passive})
	t.registered[event] = append(t.registered[event], inv)
}

func (t *recordingTarget) Remove(event string, inv *Invoker, capture bool) {
	t.calls = append(t.calls, call{Op: "remove", Event: event, Capture: capture})
	list := t.registered[event]
	for i, cur := range list {
		if cur == inv {
			t.registered[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
}

func (t *recordingTarget) Once(event string, inv *Invoker, capture bool) *Invoker {
	return NewOnce(inv, func(w *Invoker) { t.Remove(event, w, capture) })
}

func (t *recordingTarget) emit(event string, args ...any) (any, error) {
	var res any
	var err error
	for _, inv := range append([]*Invoker(nil), t.registered[event]...) {
		res, err = inv.Invoke(args...)
	}
	return res, err
}

type recordingScope struct {
	errs  []error
	warns []string
}

func (s *recordingScope) HandleError(err error, info string) { s.errs = append(s.errs, err) }
func (s *recordingScope) Warn(msg string)                    { s.warns = append(s.warns, msg) }

func handlerReturning(v any, hits *[]any) Handler {
	return func(args ...any) (any, error) {
		*hits = append(*hits, v)
		return v, nil
	}
}

func TestReconcile_AddsOnlyNewNames(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	f1 := handlerReturning("f1", &hits)
	f2 := handlerReturning("f2", &hits)

	old := Listeners{"click": f1}
	Reconcile(old, nil, target, nil)
	clickInvoker := old["click"].(*Invoker)
	target.calls = nil

	next := Listeners{"click": f1, "hover": f2}
	Reconcile(next, old, target, nil)

	assert.Equal(t, []call{{Op: "add", Event: "hover"}}, target.calls)
	assert.Same(t, clickInvoker, next["click"])
}

func TestReconcile_RemovesMissingNames(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	old := Listeners{"click": handlerReturning("f1", &hits)}
	Reconcile(old, nil, target, nil)
	target.calls = nil

	Reconcile(Listeners{}, old, target, nil)

	assert.Equal(t, []call{{Op: "remove", Event: "click"}}, target.calls)
	assert.Empty(t, target.registered["click"])
}

func TestReconcile_SwapsPayloadInPlace(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	old := Listeners{"click": handlerReturning("f1", &hits)}
	Reconcile(old, nil, target, nil)
	registered := target.registered["click"][0]
	target.calls = nil

	next := Listeners{"click": handlerReturning("f2", &hits)}
	Reconcile(next, old, target, nil)

	assert.Empty(t, target.calls)
	require.Same(t, registered, next["click"])

	res, err := target.emit("click")
	require.NoError(t, err)
	assert.Equal(t, "f2", res)
	assert.Equal(t, []any{"f2"}, hits)
}

func TestReconcile_SameInvokerIsNoop(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	old := Listeners{"click": handlerReturning("f1", &hits)}
	Reconcile(old, nil, target, nil)
	inv := old["click"].(*Invoker)
	target.calls = nil

	Reconcile(Listeners{"click": inv}, old, target, nil)

	assert.Empty(t, target.calls)
	assert.Equal(t, 1, inv.Len())
}

func TestReconcile_OnceCaptureUnregistersAfterFirstCall(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	on := Listeners{"~!click": handlerReturning("once", &hits)}
	Reconcile(on, nil, target, nil)

	require.Equal(t, []call{{Op: "add", Event: "click", Capture: true}}, target.calls)

	_, err := target.emit("click")
	require.NoError(t, err)
	_, err = target.emit("click")
	require.NoError(t, err)

	assert.Equal(t, []any{"once"}, hits)
	assert.Equal(t, "remove", target.calls[len(target.calls)-1].Op)
	assert.Empty(t, target.registered["click"])
}

func TestReconcile_OnceWrapperForwardsPayloadUpdates(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	old := Listeners{"~tick": handlerReturning("v1", &hits)}
	Reconcile(old, nil, target, nil)

	next := Listeners{"~tick": handlerReturning("v2", &hits)}
	Reconcile(next, old, target, nil)

	_, err := target.emit("tick")
	require.NoError(t, err)
	assert.Equal(t, []any{"v2"}, hits)
}

func TestReconcile_InvalidHandlerWarns(t *testing.T) {
	target := newRecordingTarget()
	scope := &recordingScope{}

	Reconcile(Listeners{"click": Handler(nil), "focus": nil}, nil, target, scope)

	assert.Empty(t, target.calls)
	require.Len(t, scope.warns, 2)
	assert.Contains(t, scope.warns[0], `Invalid handler for event "click"`)
	assert.Contains(t, scope.warns[1], `Invalid handler for event "focus"`)
}

func TestReconcile_PassesModifiersAndParams(t *testing.T) {
	var gotParams []any
	var got call
	target := TargetFuncs{
		AddFunc: func(event string, inv *Invoker, capture, passive bool, params []any) {
			got = call{Op: "add", Event: event, Capture: capture, Passive: passive}
			gotParams = params
		},
	}
	var hits []any
	Reconcile(Listeners{"&scroll": Spec{Handler: handlerReturning(1, &hits), Params: []any{"x"}}}, nil, target, nil)

	assert.Equal(t, call{Op: "add", Event: "scroll", Passive: true}, got)
	assert.Equal(t, []any{"x"}, gotParams)
}

func TestReconcile_AdditionsBeforeRemovals(t *testing.T) {
	var hits []any
	target := newRecordingTarget()
	old := Listeners{"a": handlerReturning(1, &hits), "z": handlerReturning(2, &hits)}
	Reconcile(old, nil, target, nil)
	target.calls = nil

	Reconcile(Listeners{"m": handlerReturning(3, &hits)}, old, target, nil)

	want := []call{
		{Op: "add", Event: "m"},
		{Op: "remove", Event: "a"},
		{Op: "remove", Event: "z"},
	}
	if diff := cmp.Diff(want, target.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoker_ListPayloadIsolatesFailures(t *testing.T) {
	scope := &recordingScope{}
	var ran []string
	f1 := Handler(func(args ...any) (any, error) {
		ran = append(ran, "f1")
		panic("f1 exploded")
	})
	f2 := Handler(func(args ...any) (any, error) {
		ran = append(ran, "f2")
		return nil, nil
	})
	inv := NewInvoker(Handlers{f1, f2}, scope)

	res, err := inv.Invoke()

	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, []string{"f1", "f2"}, ran)
	require.Len(t, scope.errs, 1)
	assert.Contains(t, scope.errs[0].Error(), "f1 exploded")
}

func TestInvoker_ListPayloadRunsSnapshot(t *testing.T) {
	var ran []string
	var inv *Invoker
	f1 := Handler(func(args ...any) (any, error) {
		ran = append(ran, "f1")
		inv.SetPayload(Handlers{})
		return nil, nil
	})
	f2 := Handler(func(args ...any) (any, error) {
		ran = append(ran, "f2")
		return nil, nil
	})
	inv = NewInvoker(Handlers{f1, f2}, nil)

	_, _ = inv.Invoke()

	assert.Equal(t, []string{"f1", "f2"}, ran)
	assert.Equal(t, 0, inv.Len())
}

func TestInvoker_SinglePayloadReturnsResultAndError(t *testing.T) {
	scope := &recordingScope{}
	boom := stderrors.New("boom")

	inv := NewInvoker(Handler(func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}), scope)
	res, err := inv.Invoke(21)
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	inv.SetPayload(Handler(func(args ...any) (any, error) { return nil, boom }))
	_, err = inv.Invoke()
	assert.ErrorIs(t, err, boom)
	assert.Len(t, scope.errs, 1)
}

type panicLog struct {
	errs   []*errors.RuntimeError
	panics []*errors.PanicError
}

func (l *panicLog) HandleError(err *errors.RuntimeError) { l.errs = append(l.errs, err) }
func (l *panicLog) HandlePanic(err *errors.PanicError)   { l.panics = append(l.panics, err) }
func (l *panicLog) HandleDiagnostic(*errors.Diagnostic)  {}

func TestInvoker_UnscopedPanicReportedAsPanic(t *testing.T) {
	log := &panicLog{}
	errors.SetHandler(log)
	t.Cleanup(func() { errors.SetHandler(nil) })

	inv := NewInvoker(Handlers{
		func(args ...any) (any, error) { panic("detached") },
		func(args ...any) (any, error) { return nil, stderrors.New("plain") },
	}, nil)
	_, err := inv.Invoke()
	require.NoError(t, err)

	require.Len(t, log.panics, 1)
	assert.Equal(t, "detached", log.panics[0].Value)
	require.Len(t, log.errs, 1)
	assert.Equal(t, errors.KindHandler, log.errs[0].Kind)
}
