// Package config loads the optional weft.yaml / weft.toml settings and
// applies them to the engine.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/weft/pkg/core"
	wefterrors "github.com/go-drift/weft/pkg/errors"
)

// EngineVersion is the version of this engine. Configurations may require a
// minimum version through engine.version.
const EngineVersion = "v0.4.0"

// Environment variables that override file settings.
const (
	EnvDebug        = "WEFT_DEBUG"
	EnvLogLevel     = "WEFT_LOG_LEVEL"
	EnvLogFormat    = "WEFT_LOG_FORMAT"
	EnvLogNoColor   = "WEFT_LOG_NOCOLOR"
	EnvLogVerbose   = "WEFT_LOG_VERBOSE"
	EnvLogTimestamp = "WEFT_LOG_TIMESTAMP"
)

// Candidate file names, in lookup order.
var fileNames = []string{"weft.yaml", "weft.yml", "weft.toml"}

// Config represents the optional weft.yaml or weft.toml configuration.
type Config struct {
	App    AppConfig    `yaml:"app" toml:"app"`
	Engine EngineConfig `yaml:"engine" toml:"engine"`
	Log    LogConfig    `yaml:"log" toml:"log"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty" toml:"name"`
}

// EngineConfig contains engine settings.
type EngineConfig struct {
	// Version is the minimum engine version the project needs, or "latest".
	Version string `yaml:"version,omitempty" toml:"version"`
	// Debug enables non-fatal diagnostics. Defaults to true.
	Debug *bool `yaml:"debug,omitempty" toml:"debug"`
}

// LogConfig contains diagnostics output settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty" toml:"level"`
	Format    string `yaml:"format,omitempty" toml:"format"`
	NoColor   *bool  `yaml:"no_color,omitempty" toml:"no_color"`
	Timestamp *bool  `yaml:"timestamp,omitempty" toml:"timestamp"`
	Verbose   bool   `yaml:"verbose,omitempty" toml:"verbose"`
}

// Log output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LogSettings are resolved logging settings.
type LogSettings struct {
	Level     zerolog.Level
	Format    string
	NoColor   bool
	Timestamp bool
	Verbose   bool
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root          string
	Source        string
	ModulePath    string
	AppName       string
	EngineVersion string
	Debug         bool
	Log           LogSettings
}

// LoadOptional reads the first configuration file found in dir. A missing
// file yields an empty Config and an empty path.
func LoadOptional(dir string) (*Config, string, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to stat %s: %w", name, err)
		}
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return &Config{}, "", nil
}

// LoadFile reads a configuration file, choosing the decoder by extension.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), filepath.Base(path))
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &cfg, nil
}

// Resolve loads the configuration in dir (if present) and resolves defaults
// and environment overrides.
func Resolve(dir string) (*Resolved, error) {
	cfg, source, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return resolve(dir, source, cfg)
}

// ResolveFile is like Resolve but reads the given file. The project root is
// the file's directory.
func ResolveFile(path string) (*Resolved, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return resolve(filepath.Dir(path), path, cfg)
}

func resolve(dir, source string, cfg *Config) (*Resolved, error) {
	modulePath := modulePath(dir)

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	engineVersion, err := resolveEngineVersion(cfg.Engine.Version)
	if err != nil {
		return nil, err
	}

	debug := true
	if cfg.Engine.Debug != nil {
		debug = *cfg.Engine.Debug
	}

	logSettings := LogSettings{
		Level:     zerolog.InfoLevel,
		Format:    FormatConsole,
		Timestamp: true,
		Verbose:   cfg.Log.Verbose,
	}
	if cfg.Log.Level != "" {
		lvl, ok := parseLevel(cfg.Log.Level)
		if !ok {
			return nil, fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
		}
		logSettings.Level = lvl
	}
	if cfg.Log.Format != "" {
		format, ok := parseFormat(cfg.Log.Format)
		if !ok {
			return nil, fmt.Errorf("log.format must be %q or %q (got %q)", FormatConsole, FormatJSON, cfg.Log.Format)
		}
		logSettings.Format = format
	}
	if cfg.Log.NoColor != nil {
		logSettings.NoColor = *cfg.Log.NoColor
	}
	if cfg.Log.Timestamp != nil {
		logSettings.Timestamp = *cfg.Log.Timestamp
	}

	r := &Resolved{
		Root:          dir,
		Source:        source,
		ModulePath:    modulePath,
		AppName:       appName,
		EngineVersion: engineVersion,
		Debug:         debug,
		Log:           logSettings,
	}
	applyEnvOverrides(r)
	return r, nil
}

// resolveEngineVersion validates a required engine version against the
// running engine.
func resolveEngineVersion(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || v == "latest" {
		return "latest", nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("engine.version %q is not a valid semantic version", raw)
	}
	v = semver.Canonical(v)
	if semver.Major(v) != semver.Major(EngineVersion) {
		return "", fmt.Errorf("engine.version %s is incompatible with engine %s", v, EngineVersion)
	}
	if semver.Compare(v, EngineVersion) > 0 {
		return "", fmt.Errorf("engine.version %s is newer than engine %s", v, EngineVersion)
	}
	return v, nil
}

func applyEnvOverrides(r *Resolved) {
	if v, ok := parseBool(os.Getenv(EnvDebug)); ok {
		r.Debug = v
	}
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		r.Log.Level = lvl
	}
	if format, ok := parseFormat(os.Getenv(EnvLogFormat)); ok {
		r.Log.Format = format
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		r.Log.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogVerbose)); ok {
		r.Log.Verbose = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		r.Log.Timestamp = v
	}
}

// Logger builds a zerolog logger writing to w per the resolved settings.
func (r *Resolved) Logger(w io.Writer) zerolog.Logger {
	out := w
	if r.Log.Format == FormatConsole {
		cw := zerolog.ConsoleWriter{Out: w, NoColor: r.Log.NoColor, TimeFormat: time.Kitchen}
		if !r.Log.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}
	ctx := zerolog.New(out).Level(r.Log.Level).With()
	if r.Log.Timestamp {
		ctx = ctx.Timestamp()
	}
	if r.AppName != "" {
		ctx = ctx.Str("app", r.AppName)
	}
	return ctx.Logger()
}

// Apply pushes the settings into the engine: debug diagnostics and the
// global error handler writing to w. With Debug off, non-fatal diagnostics
// are dropped; errors and panics are still logged.
func (r *Resolved) Apply(w io.Writer) {
	core.SetDebugMode(r.Debug)
	wefterrors.SetSilent(!r.Debug)
	wefterrors.SetHandler(wefterrors.NewLogHandlerWithLogger(r.Logger(w), r.Log.Verbose))
}

// FindProjectRoot walks up from dir to the nearest directory holding a
// weft configuration file or go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	markers := append(slices.Clone(fileNames), "go.mod")
	for {
		for _, name := range markers {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no weft configuration or go.mod found")
		}
		dir = parent
	}
}

// modulePath returns the module path declared in dir/go.mod, or "".
func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modName, _, ok := module.SplitPathVersion(modulePath); ok && modName != "" {
		parts := strings.Split(modName, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "weft_app"
	}
	return base
}

// parseLevel accepts zerolog level names plus the aliases warning, off and
// none.
func parseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, false
	case "warning":
		return zerolog.WarnLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

func parseFormat(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FormatConsole, "text":
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return "", false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
