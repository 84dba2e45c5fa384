package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors for reporting and HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// ParseFailure indicates the captured fragment could not be parsed (HTTP 422).
	ParseFailure
	// EmptySelection indicates no usable form controls or fields remained (HTTP 422).
	EmptySelection
	// ClipboardFailure indicates the platform clipboard rejected the write.
	ClipboardFailure
	// ExportFailure indicates the generated file could not be written.
	ExportFailure
	// NotFound indicates an unknown session (HTTP 404).
	NotFound
	// Unreachable indicates a capture target could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates an action took too long (HTTP 504).
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:          "unknown",
	InvalidInput:     "invalid_input",
	ParseFailure:     "parse_failure",
	EmptySelection:   "empty_selection",
	ClipboardFailure: "clipboard_failure",
	ExportFailure:    "export_failure",
	NotFound:         "not_found",
	Unreachable:      "unreachable",
	Timeout:          "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by a capture target
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// MessageOf returns the user-facing message of the first AppError in err's
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
