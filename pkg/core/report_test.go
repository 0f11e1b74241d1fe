package core

import (
	"sync"
	"testing"

	"github.com/go-drift/weft/pkg/errors"
)

// reportLog collects everything sent to the global error handler.
type reportLog struct {
	mu          sync.Mutex
	errs        []*errors.RuntimeError
	panics      []*errors.PanicError
	diagnostics []*errors.Diagnostic
}

func (r *reportLog) HandleError(err *errors.RuntimeError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reportLog) HandlePanic(err *errors.PanicError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = append(r.panics, err)
}

func (r *reportLog) HandleDiagnostic(d *errors.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

func (r *reportLog) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Message)
	}
	return out
}

func (r *reportLog) infos() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.errs))
	for _, e := range r.errs {
		out = append(out, e.Info)
	}
	return out
}

// captureReports installs a reportLog as the global handler for the rest of
// the test and restores debug mode afterwards.
func captureReports(t *testing.T) *reportLog {
	t.Helper()
	log := &reportLog{}
	errors.SetHandler(log)
	prevDebug := DebugMode
	t.Cleanup(func() {
		errors.SetHandler(nil)
		SetDebugMode(prevDebug)
	})
	return log
}

// recorder appends labels in call order.
type recorder struct {
	calls []string
}

func (r *recorder) hook(label string) HookFunc {
	return func(*Instance) error {
		r.calls = append(r.calls, label)
		return nil
	}
}

// trackingLayer wraps BindingLayer and records every tracking toggle and
// the tracking state observed by each DefineReactive call.
type trackingLayer struct {
	*BindingLayer
	toggles        []bool
	defined        []string
	definedWhileOn map[string]bool
}

func newTrackingLayer() *trackingLayer {
	return &trackingLayer{BindingLayer: NewBindingLayer(), definedWhileOn: map[string]bool{}}
}

func (l *trackingLayer) SetTracking(enabled bool) {
	l.toggles = append(l.toggles, enabled)
	l.BindingLayer.SetTracking(enabled)
}

func (l *trackingLayer) DefineReactive(vm *Instance, key string, value any, onIllegalWrite func()) {
	l.defined = append(l.defined, key)
	l.definedWhileOn[key] = l.Tracking()
	l.BindingLayer.DefineReactive(vm, key, value, onIllegalWrite)
}
