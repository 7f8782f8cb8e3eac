package importer

import (
	"errors"
	"fmt"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrMalformedShape  = errors.New("malformed bookmarks shape")
	ErrJSONSyntax      = errors.New("invalid JSON")
	ErrReadFailure     = errors.New("file read failed")
)

// Kind classifies an import failure.
type Kind int

const (
	KindFileTooLarge Kind = iota + 1
	KindUnsupportedType
	KindMalformedShape
	KindJSONSyntax
	KindReadFailure
)

func (k Kind) String() string {
	switch k {
	case KindFileTooLarge:
		return "file_too_large"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindMalformedShape:
		return "malformed_shape"
	case KindJSONSyntax:
		return "json_syntax"
	case KindReadFailure:
		return "read_failure"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindFileTooLarge:
		return ErrFileTooLarge
	case KindUnsupportedType:
		return ErrUnsupportedType
	case KindMalformedShape:
		return ErrMalformedShape
	case KindJSONSyntax:
		return ErrJSONSyntax
	case KindReadFailure:
		return ErrReadFailure
	}
	return nil
}

// Error is an import failure carrying the message shown to the user.
// errors.Is matches it against the sentinel of its Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

const genericFailureMessage = "Failed to parse JSON file. Please check the file format."

// UserMessage returns the text to show for an import error.
func UserMessage(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Message
	}
	return genericFailureMessage
}

// Severity tells a surface how to present a message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Severity reports how the failure should be presented. Import failures
// are the user's file, not the program, so they are informational.
func (e *Error) Severity() Severity { return SeverityInfo }
