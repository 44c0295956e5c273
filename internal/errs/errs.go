// Package errs classifies the error kinds enumerated in the solver's
// error-handling design: transport/protocol failures, violated solver
// preconditions, rejected guesses, and internal invariant violations.
package errs

import "github.com/pkg/errors"

// Kind distinguishes the error categories the trial loop reasons about.
type Kind int

const (
	// KindTransport covers failures reaching the oracle (dial, timeout, TLS).
	KindTransport Kind = iota
	// KindProtocol covers malformed requests/responses the oracle rejected.
	KindProtocol
	// KindPrecondition covers a solver precondition the oracle's responses
	// failed to satisfy (signature count mismatch, unresolved footprint, ...).
	KindPrecondition
	// KindRejected covers an oracle guess verdict of correct=false.
	KindRejected
	// KindInternal covers a violated invariant that indicates a bug, not
	// bad luck; still surfaced as a value rather than a panic.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindPrecondition:
		return "precondition"
	case KindRejected:
		return "rejected"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classified is an error tagged with a Kind, so a retry loop can decide
// whether to try again with a fresh seed.
type Classified struct {
	kind Kind
	err  error
}

func (c *Classified) Error() string { return c.err.Error() }

// Unwrap lets errors.Is/errors.As see through the classification.
func (c *Classified) Unwrap() error { return c.err }

// Kind reports the error's category.
func (c *Classified) Kind() Kind { return c.kind }

// Retryable reports whether the trial loop should retry with a new seed.
// Every kind is retryable except KindInternal, which signals a bug in the
// solver rather than an unlucky draw.
func (c *Classified) Retryable() bool { return c.kind != KindInternal }

func classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Classified{kind: kind, err: err}
}

// Transport wraps err as a transport-layer failure.
func Transport(err error, msg string) error {
	return classify(KindTransport, errors.Wrap(err, msg))
}

// Transportf wraps err as a transport-layer failure with a formatted message.
func Transportf(err error, format string, args ...interface{}) error {
	return classify(KindTransport, errors.Wrapf(err, format, args...))
}

// Protocol reports a malformed request/response.
func Protocol(format string, args ...interface{}) error {
	return classify(KindProtocol, errors.Errorf(format, args...))
}

// Precondition reports a violated solver precondition.
func Precondition(format string, args ...interface{}) error {
	return classify(KindPrecondition, errors.Errorf(format, args...))
}

// Rejected reports an oracle guess that came back correct=false.
func Rejected(format string, args ...interface{}) error {
	return classify(KindRejected, errors.Errorf(format, args...))
}

// Internal reports a violated invariant: a bug, not bad luck.
func Internal(format string, args ...interface{}) error {
	return classify(KindInternal, errors.Errorf(format, args...))
}

// Wrap re-wraps err under kind, preserving its message with an added
// explanatory prefix. It mirrors the teacher's errors.Wrap call sites.
func Wrap(kind Kind, err error, msg string) error {
	return classify(kind, errors.Wrap(err, msg))
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *Classified, and ok=false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var c *Classified
	if errors.As(err, &c) {
		return c.kind, true
	}
	return 0, false
}

// Retryable reports whether err should be retried with a new seed. An
// unclassified error (one that never passed through this package) is
// treated as retryable, matching the driver's default stance toward
// errors surfaced from the transport it doesn't recognize.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var c *Classified
	if errors.As(err, &c) {
		return c.Retryable()
	}
	return true
}
