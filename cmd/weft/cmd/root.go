// Package cmd implements the weft CLI commands.
//
// The root command dispatches to subcommands (resolve, mount, version).
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-drift/weft/pkg/config"
	wefterrors "github.com/go-drift/weft/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(env *Env, args []string) error
	SubCommands []*Command
}

// Env is what a command runs against: output streams, the resolved
// configuration and a logger built from it.
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Config *config.Resolved
	Log    zerolog.Logger
}

var rootCmd = &Command{
	Name:  "weft",
	Short: "weft - component instantiation and wiring engine",
	Long: `weft resolves component definitions and instantiates them as
component trees, printing merged options, provided values and injections.

Use "weft <command> --help" for more information about a command.`,
	Usage: "weft <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with the given arguments.
func Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printHelp(stdout)
		return nil
	}

	var (
		configPath   string
		filteredArgs []string
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(stdout)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version":
			if len(filteredArgs) == 0 {
				printVersion(stdout)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--config":
			if i+1 >= len(args) {
				return fmt.Errorf("--config requires a file path")
			}
			configPath = args[i+1]
			i++
		default:
			if path, ok := strings.CutPrefix(arg, "--config="); ok {
				configPath = path
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(stdout)
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(stderr)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(stdout, cmd)
			return nil
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Apply(stderr)

	env := &Env{
		Out:    stdout,
		Err:    stderr,
		Config: cfg,
		Log:    cfg.Logger(stderr).With().Str("command", cmd.Name).Logger(),
	}
	return run(cmd, env, cmdArgs)
}

// run executes cmd, reporting a panic that escapes it as a command failure.
func run(cmd *Command, env *Env, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wefterrors.ReportPanic(&wefterrors.PanicError{
				Op:         "weft." + cmd.Name,
				Value:      r,
				StackTrace: wefterrors.CaptureStack(),
			})
			err = fmt.Errorf("%s: panic: %v", cmd.Name, r)
		}
	}()
	return cmd.Run(env, args)
}

// loadConfig reads path when given, otherwise the configuration of the
// project containing the working directory.
func loadConfig(path string) (*config.Resolved, error) {
	if path != "" {
		return config.ResolveFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		root = wd
	}
	return config.Resolve(root)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "weft version %s (engine %s, built %s)\n", Version, config.EngineVersion, BuildTime)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, rootCmd.Long)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s\n", rootCmd.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, sub := range rootCmd.SubCommands {
		fmt.Fprintf(w, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -h, --help           Show help for a command")
	fmt.Fprintln(w, "  -v, --version        Show version information")
	fmt.Fprintln(w, "  --config FILE        Use FILE instead of the project's weft.yaml/weft.toml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  WEFT_DEBUG           Enable or disable development warnings")
	fmt.Fprintln(w, "  WEFT_LOG_LEVEL       Log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  WEFT_LOG_FORMAT      Log format (console, json)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  weft resolve app.yaml panel          Show the merged options of panel")
	fmt.Fprintln(w, "  weft mount app.hcl dashboard/panel   Mount panel inside dashboard")
}

func printCommandHelp(w io.Writer, cmd *Command) {
	fmt.Fprintln(w, cmd.Long)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s\n", cmd.Usage)
}
