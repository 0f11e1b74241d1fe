package cmd

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the CLI version and the engine version it embeds.",
		Usage: "weft version",
		Run: func(env *Env, args []string) error {
			printVersion(env.Out)
			return nil
		},
	})
}
