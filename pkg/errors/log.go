package errors

import (
	"io"

	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that writes structured log events.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool

	logger zerolog.Logger
}

// NewLogHandler returns a LogHandler writing human-readable console output to w.
func NewLogHandler(w io.Writer, verbose bool) *LogHandler {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return &LogHandler{Verbose: verbose, logger: zerolog.New(out)}
}

// NewLogHandlerWithLogger wraps an already configured zerolog logger.
func NewLogHandlerWithLogger(logger zerolog.Logger, verbose bool) *LogHandler {
	return &LogHandler{Verbose: verbose, logger: logger}
}

// HandleError logs a RuntimeError at error level.
func (h *LogHandler) HandleError(err *RuntimeError) {
	if err == nil {
		return
	}
	ev := h.logger.Error().
		Str("op", err.Op).
		Stringer("kind", err.Kind).
		Err(err.Err)
	if err.Component != "" {
		ev = ev.Str("component", err.Component)
	}
	if err.Info != "" {
		ev = ev.Str("info", err.Info)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("[weft error]")
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.logger.Error().Interface("value", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("[weft panic]")
}

// HandleDiagnostic logs a Diagnostic at warn level.
func (h *LogHandler) HandleDiagnostic(d *Diagnostic) {
	if d == nil {
		return
	}
	ev := h.logger.Warn().Stringer("kind", d.Kind)
	if d.Component != "" {
		ev = ev.Str("component", d.Component)
	}
	ev.Msg("[weft warn] " + d.Message)
}
