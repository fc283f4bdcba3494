package output

import (
	"fmt"
	"io"
)

// Handler manages output emission. Results go to stdout, warnings and
// errors to stderr. Silent mode suppresses warning output but still
// collects the warnings for inspection.
type Handler struct {
	stdout   io.Writer
	stderr   io.Writer
	silent   bool
	warnings []*Warning
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSilent sets silent mode (suppress warning output to stderr).
func WithSilent(silent bool) HandlerOption {
	return func(h *Handler) {
		h.silent = silent
	}
}

// NewHandler creates a new output handler with the given writers and options.
func NewHandler(stdout, stderr io.Writer, opts ...HandlerOption) *Handler {
	h := &Handler{
		stdout:   stdout,
		stderr:   stderr,
		warnings: make([]*Warning, 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Warn emits a warning to stderr (unless silent) and records it.
func (h *Handler) Warn(w *Warning) {
	h.warnings = append(h.warnings, w)
	if !h.silent {
		_, _ = fmt.Fprintf(h.stderr, "warning: %s\n", w.Message)
	}
}

// Warnf creates and emits a warning with a formatted message.
func (h *Handler) Warnf(code Code, format string, args ...interface{}) {
	h.Warn(NewWarningf(code, format, args...))
}

// Warnings returns all warnings collected so far.
func (h *Handler) Warnings() []*Warning {
	return h.warnings
}

// Error emits an error to stderr, followed by its remediation hint when set.
func (h *Handler) Error(e *Error) {
	_, _ = fmt.Fprintf(h.stderr, "error: %s\n", e.Message)
	if e.Remediation != "" {
		_, _ = fmt.Fprintf(h.stderr, "  hint: %s\n", e.Remediation)
	}
}

// Success emits a success message to stdout.
func (h *Handler) Success(message string) {
	_, _ = fmt.Fprintf(h.stdout, "%s\n", message)
}

// Successf emits a formatted success message to stdout.
func (h *Handler) Successf(format string, args ...interface{}) {
	h.Success(fmt.Sprintf(format, args...))
}

// Info emits an informational line to stderr. It respects silent mode so
// that stdout stays reserved for results.
func (h *Handler) Info(message string) {
	if !h.silent {
		_, _ = fmt.Fprintf(h.stderr, "%s\n", message)
	}
}

// Infof emits a formatted informational line to stderr.
func (h *Handler) Infof(format string, args ...interface{}) {
	h.Info(fmt.Sprintf(format, args...))
}
