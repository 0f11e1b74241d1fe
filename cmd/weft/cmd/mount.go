package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/go-drift/weft/pkg/core"
	"github.com/go-drift/weft/pkg/loader"
)

func init() {
	RegisterCommand(&Command{
		Name:  "mount",
		Short: "Instantiate a chain of components",
		Long: `Load a definition file and mount a chain of components, each created as a
child of the previous one.

Child names are looked up in the parent's local component registry first,
then among the file's components. For every instance the command prints its
uid, provided keys and injected values. The tree is destroyed afterwards.`,
		Usage: "weft mount <file> <name>[/<child>...]",
		Run:   runMount,
	})
}

func runMount(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: weft mount <file> <name>[/<child>...]")
	}
	reg, err := loader.Load(args[0], hookTable(env.Log))
	if err != nil {
		return err
	}

	rt := core.NewRuntime()
	var chain []*core.Instance
	for i, name := range strings.Split(args[1], "/") {
		var parent *core.Instance
		if i > 0 {
			parent = chain[i-1]
		}
		def, err := lookup(reg, parent, name)
		if err != nil {
			return err
		}
		vm, err := rt.New(def, core.CreationOptions{Parent: parent})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		chain = append(chain, vm)
	}
	defer chain[0].Destroy()

	for _, vm := range chain {
		if err := vm.Mount(""); err != nil {
			return err
		}
	}
	env.Log.Debug().Int("instances", rt.Len()).Msg("mounted")

	for _, vm := range chain {
		printInstance(env.Out, vm)
	}
	return nil
}

func lookup(reg *loader.Registry, parent *core.Instance, name string) (*core.Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("empty component name in chain")
	}
	if parent != nil {
		if def, ok := parent.Component(name); ok {
			return def, nil
		}
	}
	if def, ok := reg.Get(name); ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: component %q", loader.ErrUnknownReference, name)
}

func printInstance(w io.Writer, vm *core.Instance) {
	indent := strings.Repeat("  ", vm.Depth())
	fmt.Fprintf(w, "%s%s uid=%d\n", indent, vm.Name(), vm.UID())
	if provided := vm.Provided(); len(provided) > 0 {
		fmt.Fprintf(w, "%s  provides: %s\n", indent, strings.Join(slices.Sorted(maps.Keys(provided)), ", "))
	}
	for _, key := range vm.InjectedKeys() {
		v, _ := vm.Injected(key)
		fmt.Fprintf(w, "%s  inject %s = %v\n", indent, key, v)
	}
}
