package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyOf(t *testing.T) {
	cases := map[Key]Strategy{
		KeyName:          StrategyOwnWins,
		KeyHooks:         StrategyConcat,
		KeyErrorCaptured: StrategyConcat,
		KeyWatch:         StrategyConcat,
		KeyProps:         StrategyExtend,
		KeyMethods:       StrategyExtend,
		KeyComputed:      StrategyExtend,
		KeyInject:        StrategyExtend,
		KeyProvide:       StrategyExtend,
		KeyData:          StrategyExtend,
		KeyComponents:    StrategyChain,
		KeyDirectives:    StrategyChain,
		KeyFilters:       StrategyChain,
		KeyEl:            StrategyOwnWins,
		KeyTemplate:      StrategyOwnWins,
		KeyRender:        StrategyOwnWins,
		Key(-1):          StrategyOwnWins,
	}
	for k, want := range cases {
		assert.Equal(t, want, StrategyOf(k), "key %s", k)
	}
	assert.Equal(t, "unknown", Key(99).String())
	assert.Equal(t, "chain", StrategyChain.String())
}

func TestMergeOptions_HooksConcatParentMixinsChild(t *testing.T) {
	rec := &recorder{}
	parent := (&Options{}).On(Created, rec.hook("parent"))
	mixinA := (&Options{}).On(Created, rec.hook("mixinA"))
	mixinB := (&Options{}).On(Created, rec.hook("mixinB"))
	child := (&Options{Mixins: []*Options{mixinA, mixinB}}).On(Created, rec.hook("child"))

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)
	for _, fn := range merged.Hooks[Created] {
		require.NoError(t, fn(nil))
	}
	assert.Equal(t, []string{"parent", "mixinA", "mixinB", "child"}, rec.calls)
}

func TestMergeOptions_MixinsAppliedOnce(t *testing.T) {
	rec := &recorder{}
	mixin := (&Options{}).On(Created, rec.hook("mixin"))
	child := &Options{Mixins: []*Options{mixin}}

	once, err := MergeOptions(nil, child, nil)
	require.NoError(t, err)
	again, err := MergeOptions(nil, once, nil)
	require.NoError(t, err)

	assert.Len(t, again.Hooks[Created], 1)
}

func TestMergeOptions_DoesNotModifyInputs(t *testing.T) {
	parent := &Options{Props: map[string]Prop{"a": {Type: "string"}}}
	child := &Options{Props: map[string]Prop{"b": {Type: "number"}}}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)

	assert.Len(t, merged.Props, 2)
	assert.Len(t, parent.Props, 1)
	assert.Len(t, child.Props, 1)
}

func TestMergeOptions_ExtendByName(t *testing.T) {
	parent := &Options{
		Props: map[string]Prop{"size": {Type: "string", Default: "md"}, "label": {Type: "string"}},
		Methods: map[string]Method{
			"greet": func(*Instance, ...any) (any, error) { return "parent", nil },
			"keep":  func(*Instance, ...any) (any, error) { return "keep", nil },
		},
	}
	child := &Options{
		Props:   map[string]Prop{"size": {Type: "number", Default: 3}},
		Methods: map[string]Method{"greet": func(*Instance, ...any) (any, error) { return "child", nil }},
	}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)

	want := map[string]Prop{"size": {Type: "number", Default: 3}, "label": {Type: "string"}}
	if diff := cmp.Diff(want, merged.Props); diff != "" {
		t.Errorf("props mismatch (-want +got):\n%s", diff)
	}
	greet, _ := merged.Methods["greet"](nil)
	keep, _ := merged.Methods["keep"](nil)
	assert.Equal(t, "child", greet)
	assert.Equal(t, "keep", keep)
}

func TestMergeOptions_OwnWins(t *testing.T) {
	merged, err := MergeOptions(
		&Options{Name: "base", Template: "<div/>", Extra: map[string]any{"a": 1, "b": 1}},
		&Options{Name: "leaf", Extra: map[string]any{"b": 2}},
		&Instance{},
	)
	require.NoError(t, err)
	assert.Equal(t, "leaf", merged.Name)
	assert.Equal(t, "<div/>", merged.Template)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged.Extra)
}

func TestMergeOptions_DataDeepMerge(t *testing.T) {
	parent := &Options{Data: func(*Instance) map[string]any {
		return map[string]any{
			"count": 1,
			"user":  map[string]any{"name": "ada", "role": "admin"},
		}
	}}
	child := &Options{Data: func(*Instance) map[string]any {
		return map[string]any{
			"user":  map[string]any{"name": "grace"},
			"extra": true,
		}
	}}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)

	want := map[string]any{
		"count": 1,
		"user":  map[string]any{"name": "grace", "role": "admin"},
		"extra": true,
	}
	if diff := cmp.Diff(want, merged.Data(nil)); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeOptions_InjectNormalizedAndOrdered(t *testing.T) {
	parent := &Options{Inject: []Injection{{Key: "theme"}, {Key: "locale"}}}
	child := &Options{Inject: []Injection{{Key: "locale", From: "lang"}, {Key: "store"}}}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)

	want := []Injection{{Key: "theme"}, {Key: "locale", From: "lang"}, {Key: "store", From: "store"}}
	if diff := cmp.Diff(want, merged.Inject); diff != "" {
		t.Errorf("inject mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"theme", "locale", "store"}, merged.InjectKeys())
}

func TestMergeOptions_ProvideMerge(t *testing.T) {
	parent := &Options{Provide: ProvideValues(map[string]any{"a": 1, "b": 1})}
	child := &Options{Provide: ProvideFunc(func(vm *Instance) map[string]any {
		return map[string]any{"b": 2}
	})}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged.Provide.resolve(nil))
}

func TestMergeOptions_RegistriesChain(t *testing.T) {
	parentDirective := Directive{}
	parent := &Options{Directives: AssetsOf(map[string]Directive{"focus": parentDirective})}
	child := &Options{Filters: AssetsOf(map[string]Filter{"upper": func(v any, _ ...any) any { return v }})}

	merged, err := MergeOptions(parent, child, nil)
	require.NoError(t, err)

	_, ok := merged.Directives.Get("focus")
	assert.True(t, ok, "directive visible through chain")
	assert.False(t, merged.Directives.HasOwn("focus"), "directive must not be copied")
	assert.Same(t, parent.Directives, merged.Directives.Parent())
	assert.True(t, merged.Filters.HasOwn("upper"))
}

func TestMergeOptions_Validation(t *testing.T) {
	cases := []struct {
		name string
		opts *Options
	}{
		{"bad name", &Options{Name: "1button"}},
		{"reserved name", &Options{Name: "slot"}},
		{"bad component", &Options{Components: AssetsOf(map[string]*Definition{"component": nil})}},
		{"unknown hook", &Options{Hooks: map[Hook][]HookFunc{"mountd": nil}}},
		{"empty inject key", &Options{Inject: []Injection{{From: "x"}}}},
		{"duplicate inject", &Options{Inject: []Injection{{Key: "x"}, {Key: "x"}}}},
		{"bad mixin", &Options{Mixins: []*Options{{Name: "-x"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MergeOptions(nil, tc.opts, nil)
			require.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestMergeOptions_ElOutsideInstanceWarns(t *testing.T) {
	log := captureReports(t)
	SetDebugMode(true)

	_, err := MergeOptions(nil, &Options{El: "#app"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`option "el" can only be used during instance creation`}, log.messages())
}

func TestKeysOf(t *testing.T) {
	set := keysOf(&Options{
		Name:   "x",
		Props:  map[string]Prop{"a": {}},
		Mixins: []*Options{{Filters: NewAssets[Filter](nil)}},
	})
	assert.Equal(t, []Key{KeyName, KeyProps, KeyFilters}, set.keys())
}
