package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

func decodeYAML(filename string, src []byte) (*document, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return &doc, nil
}

func decodeTOML(filename string, src []byte) (*document, error) {
	var doc document
	meta, err := toml.Decode(string(src), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	for _, key := range meta.Undecoded() {
		if !freeForm(key) {
			return nil, fmt.Errorf("failed to parse %s: unknown key %q", filename, key.String())
		}
	}
	return &doc, nil
}

// freeForm reports whether key lies inside a field decoded into an untyped
// value. toml leaves keys below map[string]any and any targets undecoded.
func freeForm(key toml.Key) bool {
	if len(key) < 3 {
		return false
	}
	switch key[1] {
	case "data", "provide":
		return true
	case "props":
		return len(key) > 4 && key[3] == "default"
	case "inject":
		return len(key) > 3 && key[2] == "default"
	}
	return false
}

// hclFile is the top-level structure of an HCL definition file.
type hclFile struct {
	Components []*hclSpec `hcl:"component,block"`
	Mixins     []*hclSpec `hcl:"mixin,block"`
}

type hclSpec struct {
	Name       string              `hcl:"name,label"`
	Extends    string              `hcl:"extends,optional"`
	Abstract   bool                `hcl:"abstract,optional"`
	Template   string              `hcl:"template,optional"`
	Mixins     []string            `hcl:"mixins,optional"`
	Components []string            `hcl:"components,optional"`
	Hooks      map[string][]string `hcl:"hooks,optional"`
	Props      cty.Value           `hcl:"props,optional"`
	Data       cty.Value           `hcl:"data,optional"`
	Provide    cty.Value           `hcl:"provide,optional"`
	Inject     []*hclInject        `hcl:"inject,block"`
}

type hclInject struct {
	Key     string    `hcl:"key,label"`
	From    string    `hcl:"from,optional"`
	Default cty.Value `hcl:"default,optional"`
}

func decodeHCL(filename string, src []byte) (*document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	doc := &document{}
	for _, block := range parsed.Components {
		spec, err := block.spec()
		if err != nil {
			return nil, fmt.Errorf("%s: component %q: %w", filename, block.Name, err)
		}
		doc.Components = append(doc.Components, spec)
	}
	for _, block := range parsed.Mixins {
		spec, err := block.spec()
		if err != nil {
			return nil, fmt.Errorf("%s: mixin %q: %w", filename, block.Name, err)
		}
		doc.Mixins = append(doc.Mixins, spec)
	}
	return doc, nil
}

func (b *hclSpec) spec() (Spec, error) {
	s := Spec{
		Name:       b.Name,
		Extends:    b.Extends,
		Abstract:   b.Abstract,
		Template:   b.Template,
		Mixins:     b.Mixins,
		Components: b.Components,
		Hooks:      b.Hooks,
	}

	var err error
	if s.Data, err = objectToNative(b.Data, "data"); err != nil {
		return Spec{}, err
	}
	if s.Provide, err = objectToNative(b.Provide, "provide"); err != nil {
		return Spec{}, err
	}

	props, err := objectToNative(b.Props, "props")
	if err != nil {
		return Spec{}, err
	}
	if len(props) > 0 {
		s.Props = make(map[string]PropSpec, len(props))
		for name, raw := range props {
			p, err := propFromNative(raw)
			if err != nil {
				return Spec{}, fmt.Errorf("prop %q: %w", name, err)
			}
			s.Props[name] = p
		}
	}

	for _, inj := range b.Inject {
		def, err := ctyToNative(inj.Default)
		if err != nil {
			return Spec{}, fmt.Errorf("inject %q: %w", inj.Key, err)
		}
		s.Inject = append(s.Inject, InjectSpec{Key: inj.Key, From: inj.From, Default: def})
	}
	return s, nil
}

func objectToNative(v cty.Value, attr string) (map[string]any, error) {
	native, err := ctyToNative(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr, err)
	}
	if native == nil {
		return nil, nil
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object, got %s", attr, v.Type().FriendlyName())
	}
	return m, nil
}

func propFromNative(raw any) (PropSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return PropSpec{}, fmt.Errorf("expected an object")
	}
	var p PropSpec
	for k, v := range m {
		switch k {
		case "type":
			s, ok := v.(string)
			if !ok {
				return PropSpec{}, fmt.Errorf("type must be a string")
			}
			p.Type = s
		case "required":
			b, ok := v.(bool)
			if !ok {
				return PropSpec{}, fmt.Errorf("required must be a bool")
			}
			p.Required = b
		case "default":
			p.Default = v
		default:
			return PropSpec{}, fmt.Errorf("unknown attribute %q", k)
		}
	}
	return p, nil
}

// ctyToNative converts a cty.Value to its natural Go counterpart. Whole
// numbers become int, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
