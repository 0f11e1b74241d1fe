package core

// DebugMode controls whether non-fatal diagnostics (missing injections,
// invalid listeners, injected-value mutation) are reported. Fatal
// construction errors and isolated hook or handler errors are always
// reported.
var DebugMode = true

// SetDebugMode enables or disables diagnostics for the engine.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
