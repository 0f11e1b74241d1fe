package cmd

import (
	"github.com/rs/zerolog"

	"github.com/go-drift/weft/pkg/core"
	"github.com/go-drift/weft/pkg/loader"
)

// hookTable returns the handlers definition files may reference. Each
// lifecycle hook h has a "log-<h>" handler that logs the instance at debug
// level.
func hookTable(log zerolog.Logger) loader.HookTable {
	table := make(loader.HookTable, len(core.LifecycleHooks))
	for _, h := range core.LifecycleHooks {
		table["log-"+string(h)] = func(vm *core.Instance) error {
			log.Debug().
				Str("hook", string(h)).
				Uint64("uid", vm.UID()).
				Str("instance", vm.Name()).
				Msg("lifecycle hook")
			return nil
		}
	}
	return table
}
