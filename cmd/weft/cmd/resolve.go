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
		Name:  "resolve",
		Short: "Show the merged options of a component",
		Long: `Load a definition file and print the resolved options of one component.

The summary lists lifecycle hooks with their handler counts, props, the
inject list, provided keys and every component name visible in the local
registry, inherited ones included.`,
		Usage: "weft resolve <file> <name>",
		Run:   runResolve,
	})
}

func runResolve(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: weft resolve <file> <name>")
	}
	reg, err := loader.Load(args[0], hookTable(env.Log))
	if err != nil {
		return err
	}
	def, ok := reg.Get(args[1])
	if !ok {
		return fmt.Errorf("component %q not found in %s (have %s)", args[1], args[0], strings.Join(reg.Names(), ", "))
	}
	resolved, err := core.Resolve(def)
	if err != nil {
		return err
	}
	env.Log.Debug().Str("file", args[0]).Uint64("cid", def.CID()).Msg("resolved component")
	printResolved(env.Out, def, resolved)
	return nil
}

func printResolved(w io.Writer, def *core.Definition, o *core.Options) {
	fmt.Fprintf(w, "Component: %s (cid %d)\n", def.Name(), def.CID())
	if super := def.Super(); super != nil {
		fmt.Fprintf(w, "Extends:   %s\n", super.Name())
	}
	if o.Abstract {
		fmt.Fprintln(w, "Abstract:  yes")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Hooks:")
	for _, h := range core.LifecycleHooks {
		if n := len(o.Hooks[h]); n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", h, n)
		}
	}

	fmt.Fprintln(w, "Props:")
	for _, name := range slices.Sorted(maps.Keys(o.Props)) {
		p := o.Props[name]
		line := fmt.Sprintf("  %-14s %s", name, p.Type)
		if p.Required {
			line += " required"
		}
		if p.Default != nil {
			line += fmt.Sprintf(" default=%v", p.Default)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "Inject:")
	for _, inj := range o.Inject {
		line := fmt.Sprintf("  %-14s <- %s", inj.Key, inj.From)
		if inj.HasDefault {
			line += fmt.Sprintf(" default=%v", inj.Default)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "Provide:")
	switch {
	case o.Provide == nil:
	case o.Provide.Fn != nil:
		fmt.Fprintln(w, "  (computed per instance)")
	default:
		for _, key := range slices.Sorted(maps.Keys(o.Provide.Values)) {
			fmt.Fprintf(w, "  %s\n", key)
		}
	}

	fmt.Fprintln(w, "Components:")
	for _, name := range o.Components.Names() {
		origin := "inherited"
		if o.Components.HasOwn(name) {
			origin = "local"
		}
		fmt.Fprintf(w, "  %-14s %s\n", name, origin)
	}
}
