// Package errors carries the user-facing errors trainwatch commands return.
// Packages below the CLI return plain wrapped errors and sentinels; the CLI
// converts them into *Error values with a code and a suggestion.
package errors

import (
	"errors"
	"strings"
)

// Codes group errors by the command surface that produced them.
const (
	ErrConfig    = "CONFIG"
	ErrStream    = "STREAM"
	ErrServe     = "SERVE"
	ErrGenerate  = "GENERATE"
	ErrDashboard = "DASHBOARD"
	ErrUsage     = "USAGE"
)

// Error is a failure worth showing to a person. It renders as
//
//	✗ <message>
//
//	  <cause>
//
//	  <suggestion>
//
// with the cause and suggestion blocks omitted when empty.
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates an error without a cause.
func New(code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// Wrap attaches a message to err. Feed failures are the common case, so the
// code defaults to ErrStream.
func Wrap(err error, message string) *Error {
	return &Error{Code: ErrStream, Message: message, Cause: err}
}

// WrapWithCode attaches a code, message and suggestion to err.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("✗ ")
	b.WriteString(e.Message)
	b.WriteByte('\n')
	for _, block := range []string{causeText(e.Cause), e.Suggestion} {
		if block == "" {
			continue
		}
		b.WriteString("\n  ")
		b.WriteString(block)
		b.WriteByte('\n')
	}
	return b.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Unwrap returns the cause so errors.Is and errors.As see through *Error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Code returns the code of the outermost *Error in err's chain, or "".
func Code(err error) string {
	var twErr *Error
	if errors.As(err, &twErr) {
		return twErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Hint pairs a cause with the advice shown when it is in the chain.
type Hint struct {
	Target error
	Text   string
}

// WrapWithHints wraps err like WrapWithCode, taking the suggestion from the
// first hint whose Target matches err (errors.Is). Without a match the
// fallback suggestion is used.
func WrapWithHints(err error, code, message, fallback string, hints ...Hint) *Error {
	suggestion := fallback
	for _, h := range hints {
		if h.Target != nil && errors.Is(err, h.Target) {
			suggestion = h.Text
			break
		}
	}
	return WrapWithCode(err, code, message, suggestion)
}
