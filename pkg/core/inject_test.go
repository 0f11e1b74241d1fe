package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/weft/pkg/errors"
)

func newProvider(t *testing.T, rt *Runtime, parent *Instance, values map[string]any) *Instance {
	t.Helper()
	vm, err := rt.New(MustDefine(&Options{Provide: ProvideValues(values)}), CreationOptions{Parent: parent})
	require.NoError(t, err)
	return vm
}

func TestResolveInject_NearestProviderWins(t *testing.T) {
	captureReports(t)
	rt := NewRuntime()
	root := newProvider(t, rt, nil, map[string]any{"theme": "light", "locale": "en"})
	mid := newProvider(t, rt, root, map[string]any{"theme": "dark"})

	vm := rt.MustNew(MustDefine(&Options{Inject: []Injection{
		{Key: "theme"},
		{Key: "lang", From: "locale"},
	}}), CreationOptions{Parent: mid})

	theme, ok := vm.Injected("theme")
	require.True(t, ok)
	assert.Equal(t, "dark", theme)
	lang, ok := vm.Injected("lang")
	require.True(t, ok)
	assert.Equal(t, "en", lang)
	assert.Equal(t, []string{"lang", "theme"}, vm.InjectedKeys())

	got, ok := vm.Get("lang")
	require.True(t, ok, "injections are bound on the instance")
	assert.Equal(t, "en", got)
}

func TestResolveInject_ProviderWithNilValue(t *testing.T) {
	captureReports(t)
	rt := NewRuntime()
	root := newProvider(t, rt, nil, map[string]any{"store": nil})

	vm := rt.MustNew(MustDefine(&Options{Inject: []Injection{
		{Key: "store", Default: "fallback", HasDefault: true},
	}}), CreationOptions{Parent: root})

	v, ok := vm.Injected("store")
	require.True(t, ok)
	assert.Nil(t, v, "a provided nil still counts as provided")
}

func TestResolveInject_Defaults(t *testing.T) {
	log := captureReports(t)
	rt := NewRuntime()
	root := rt.MustNew(MustDefine(&Options{Name: "app"}), CreationOptions{})

	vm := rt.MustNew(MustDefine(&Options{
		Name: "panel",
		Inject: []Injection{
			{Key: "size", Default: 12, HasDefault: true},
			{Key: "owner", Default: func(vm *Instance) any { return vm.Name() }, HasDefault: true},
			{Key: "broken", Default: func(*Instance) any { panic("no default") }, HasDefault: true},
		},
	}), CreationOptions{Parent: root})

	size, _ := vm.Injected("size")
	owner, _ := vm.Injected("owner")
	assert.Equal(t, 12, size)
	assert.Equal(t, "<Panel>", owner)
	_, ok := vm.Injected("broken")
	assert.False(t, ok)

	require.Len(t, log.errs, 1)
	assert.Equal(t, `default for injection "broken"`, log.errs[0].Info)
	assert.Equal(t, errors.KindPanic, log.errs[0].Kind)
}

func TestResolveInject_MissingWarnsInDebugOnly(t *testing.T) {
	log := captureReports(t)
	rt := NewRuntime()
	def := MustDefine(&Options{Inject: []Injection{{Key: "missing"}}})

	SetDebugMode(true)
	vm := rt.MustNew(def, CreationOptions{})
	_, ok := vm.Injected("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{`Injection "missing" not found`}, log.messages())
	assert.Equal(t, errors.KindInject, log.diagnostics[0].Kind)

	SetDebugMode(false)
	rt.MustNew(def, CreationOptions{})
	assert.Len(t, log.diagnostics, 1)
}

func TestResolveInject_SkipsObserverKey(t *testing.T) {
	log := captureReports(t)
	rt := NewRuntime()
	root := newProvider(t, rt, nil, map[string]any{"__ob__": "marker"})
	vm := rt.MustNew(MustDefine(&Options{}), CreationOptions{Parent: root})

	got := ResolveInject([]Injection{{Key: "__ob__"}}, vm)
	assert.Empty(t, got)
	assert.Empty(t, log.diagnostics)
	assert.Nil(t, ResolveInject(nil, vm))
}

func TestRegisterInjections_TrackingDisabled(t *testing.T) {
	captureReports(t)
	layer := newTrackingLayer()
	rt := NewRuntime()
	rt.Reactive = layer
	vm := rt.MustNew(MustDefine(&Options{}), CreationOptions{})
	layer.toggles = nil

	RegisterInjections(vm, map[string]any{"a": 1, "b": 2})

	assert.Equal(t, []bool{false, true}, layer.toggles)
	assert.Equal(t, map[string]bool{"a": false, "b": false}, layer.definedWhileOn)
	assert.True(t, layer.Tracking())
}

func TestRegisterInjections_DeclarationOrder(t *testing.T) {
	captureReports(t)
	layer := newTrackingLayer()
	rt := NewRuntime()
	rt.Reactive = layer
	root := newProvider(t, rt, nil, map[string]any{"zoom": 2, "accent": "red", "mode": "dark"})
	layer.defined = nil

	inject := []Injection{{Key: "zoom"}, {Key: "accent"}, {Key: "mode"}}
	rt.MustNew(MustDefine(&Options{Inject: inject}), CreationOptions{Parent: root})
	assert.Equal(t, []string{"zoom", "accent", "mode"}, layer.defined)

	vm := rt.MustNew(MustDefine(&Options{Inject: []Injection{{Key: "mode"}}}), CreationOptions{Parent: root})
	layer.defined = nil
	RegisterInjections(vm, map[string]any{"mode": 1, "beta": 2, "alpha": 3})
	assert.Equal(t, []string{"mode", "alpha", "beta"}, layer.defined)
}

func TestRegisterInjections_IllegalWriteWarns(t *testing.T) {
	log := captureReports(t)
	rt := NewRuntime()
	root := newProvider(t, rt, nil, map[string]any{"theme": "light"})

	SetDebugMode(true)
	vm := rt.MustNew(MustDefine(&Options{Inject: []Injection{{Key: "theme"}}}), CreationOptions{Parent: root})
	vm.Set("theme", "dark")

	require.Len(t, log.diagnostics, 1)
	assert.Contains(t, log.diagnostics[0].Message, "Avoid mutating an injected value directly")
	assert.Contains(t, log.diagnostics[0].Message, `injection being mutated: "theme"`)
	v, _ := vm.Get("theme")
	assert.Equal(t, "dark", v)

	SetDebugMode(false)
	quiet := rt.MustNew(MustDefine(&Options{Inject: []Injection{{Key: "theme"}}}), CreationOptions{Parent: root})
	quiet.Set("theme", "dark")
	assert.Len(t, log.diagnostics, 1)
}

func TestProvide_FuncFailureIsolated(t *testing.T) {
	log := captureReports(t)
	rt := NewRuntime()
	rec := &recorder{}

	vm := rt.MustNew(MustDefine((&Options{
		Provide: ProvideFunc(func(*Instance) map[string]any { panic("provide broke") }),
	}).On(Created, rec.hook("created"))), CreationOptions{})

	assert.Nil(t, vm.Provided())
	assert.Equal(t, []string{"created"}, rec.calls)
	assert.Equal(t, []string{"provide"}, log.infos())
}

func TestProvide_FuncSeesState(t *testing.T) {
	captureReports(t)
	rt := NewRuntime()
	vm := rt.MustNew(MustDefine(&Options{
		Data: func(*Instance) map[string]any { return map[string]any{"count": 3} },
		Provide: ProvideFunc(func(vm *Instance) map[string]any {
			count, _ := vm.Get("count")
			return map[string]any{"count": count}
		}),
	}), CreationOptions{})

	assert.Equal(t, map[string]any{"count": 3}, vm.Provided())
}
