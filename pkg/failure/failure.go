/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: failure.go
Description: Error taxonomy for the fuzz report pipeline. Every error that leaves a
pipeline stage carries a Kind so the command can tell fatal failures (missing files,
malformed tool output, failed commands) from the one recoverable failure: the email
provider rejecting a send.
*/

package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindMissingFile     Kind = "missing_file"
	KindPatternMismatch Kind = "pattern_mismatch"
	KindMissingKey      Kind = "missing_key"
	KindInvalidValue    Kind = "invalid_value"
	KindCommand         Kind = "command_failed"
	KindProvider        Kind = "provider_error"
	KindTransport       Kind = "transport_failed"
	KindInvalidInput    Kind = "invalid_input"
	KindInternal        Kind = "internal"
)

// Error is a classified pipeline error. Source names the file, field or
// command the failure is about.
type Error struct {
	Kind   Kind
	Source string
	cause  error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Source)
	}
	if e.Source == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, source string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Source: source, cause: err}
}

// New creates a classified error from a format string
func New(kind Kind, source string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Source: source, cause: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or an empty Kind when err was never classified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// IsRecoverable reports whether the pipeline may continue after err.
// Only provider-side send failures are recoverable.
func IsRecoverable(err error) bool {
	return KindOf(err) == KindProvider
}
