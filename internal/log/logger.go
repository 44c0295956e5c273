// Package log is a minimal wrapper around an io.Writer, in the style of
// the teacher repo's own log package, pared down to the two line shapes
// roomsolve actually writes: a free-form formatted line, and a line
// prefixed with the command's own name for reporting a trial's outcome.
package log

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logf logs a formatted string.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// LogTrialfln logs a formatted line, prefixed with `roomsolve: `, used to
// report both trial failures and the driver's final outcome.
func (l *Logger) LogTrialfln(format string, args ...interface{}) {
	fmt.Fprintf(l, "roomsolve: "+format+"\n", args...)
}

// Tracer is the optional trace sink the driver and the solvers write
// progress lines to when enabled (one line per trial, and one per
// exploration round that a solver announces), mirroring the teacher's
// SolveParameters.Trace/TraceLogger split: tracing is off unless a Logger
// is supplied.
type Tracer struct {
	l *Logger
}

// NewTracer wraps l, or returns a no-op Tracer if l is nil.
func NewTracer(l *Logger) *Tracer {
	return &Tracer{l: l}
}

// Tracef writes a trace line if tracing is enabled; it is a no-op otherwise.
func (t *Tracer) Tracef(format string, args ...interface{}) {
	if t == nil || t.l == nil {
		return
	}
	t.l.Logf(format+"\n", args...)
}

// Enabled reports whether this tracer actually writes anywhere.
func (t *Tracer) Enabled() bool {
	return t != nil && t.l != nil
}
