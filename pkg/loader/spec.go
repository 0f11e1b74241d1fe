// Package loader builds component definitions from declarative YAML, TOML
// or HCL files.
//
// A file declares components and mixins by name. Components may extend
// another component, apply named mixins and register other components in
// their local registry. Lifecycle hooks are referenced by name and looked up
// in a [HookTable] supplied by the caller.
package loader

// document is the decoded form of a definition file, independent of the
// source format.
type document struct {
	Components []Spec `yaml:"components" toml:"components"`
	Mixins     []Spec `yaml:"mixins" toml:"mixins"`
}

// Spec declares one component or mixin.
type Spec struct {
	Name     string `yaml:"name" toml:"name"`
	Extends  string `yaml:"extends,omitempty" toml:"extends"`
	Abstract bool   `yaml:"abstract,omitempty" toml:"abstract"`
	Template string `yaml:"template,omitempty" toml:"template"`

	Mixins     []string `yaml:"mixins,omitempty" toml:"mixins"`
	Components []string `yaml:"components,omitempty" toml:"components"`

	Props   map[string]PropSpec `yaml:"props,omitempty" toml:"props"`
	Data    map[string]any      `yaml:"data,omitempty" toml:"data"`
	Provide map[string]any      `yaml:"provide,omitempty" toml:"provide"`
	Inject  []InjectSpec        `yaml:"inject,omitempty" toml:"inject"`

	// Hooks maps a lifecycle hook name to handler names in the HookTable.
	Hooks map[string][]string `yaml:"hooks,omitempty" toml:"hooks"`
}

// PropSpec declares an input property.
type PropSpec struct {
	Type     string `yaml:"type,omitempty" toml:"type"`
	Required bool   `yaml:"required,omitempty" toml:"required"`
	Default  any    `yaml:"default,omitempty" toml:"default"`
}

// InjectSpec declares an injection. A nil Default means no default.
type InjectSpec struct {
	Key     string `yaml:"key" toml:"key"`
	From    string `yaml:"from,omitempty" toml:"from"`
	Default any    `yaml:"default,omitempty" toml:"default"`
}
