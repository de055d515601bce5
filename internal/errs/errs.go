// Package errs defines the fatal error taxonomy shared by both analyzer
// pipelines. Every phase boundary wraps the underlying cause with one of
// these kinds so the top-level driver can print a stable diagnostic and
// pick a non-zero exit code, without the phases needing to know about
// process exit codes themselves.
package errs

import "github.com/pkg/errors"

// Kind classifies a fatal error for reporting purposes.
type Kind int

const (
	// IoError covers missing paths, unreadable files, and archive errors.
	IoError Kind = iota
	// FormatError covers JSON decode failures, missing required log
	// fields, and unparseable timestamps.
	FormatError
	// ConsistencyError covers dangling parents/referees, inconsistent
	// genesis blocks, and empty node sets.
	ConsistencyError
	// UsageError covers missing or malformed required CLI arguments.
	UsageError
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case FormatError:
		return "FormatError"
	case ConsistencyError:
		return "ConsistencyError"
	case UsageError:
		return "UsageError"
	default:
		return "UnknownError"
	}
}

// kindError pairs a Kind with the wrapped cause so the top-level driver can
// classify a fatal error without parsing strings.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *kindError) Cause() error { return e.cause }
func (e *kindError) Unwrap() error { return e.cause }

// Wrap annotates err with a Kind and a message, preserving the causal chain
// via github.com/pkg/errors so %+v still prints a stack trace.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with Printf-style formatting.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.Wrapf(err, format, args...)}
}

// New creates a fatal error of the given kind directly from a message.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, cause: errors.New(msg)}
}

// Newf is New with Printf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, cause: errors.Errorf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to IoError for errors that
// were never classified (defensive default for the top-level driver).
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return IoError
}
