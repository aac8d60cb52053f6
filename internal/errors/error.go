package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategoryAssets   Category = "assets"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location represents a position in a source or configuration file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// KinetError is a structured error with a registered code, a fix
// suggestion, and optionally the file position that caused it.
type KinetError struct {
	// Code is a unique error identifier (e.g., "K060").
	Code string

	// Category is the error type (runtime, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains the file lines surrounding Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *KinetError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *KinetError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *KinetError) WithDetail(d string) *KinetError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *KinetError) WithSuggestion(s string) *KinetError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *KinetError) Wrap(err error) *KinetError {
	e.Wrapped = err
	return e
}

// WithOffset attaches the file position for a byte offset into data,
// along with the surrounding lines. JSON decode errors report offsets,
// not positions, so this is how config parse failures get a location.
func (e *KinetError) WithOffset(file string, data []byte, offset int64) *KinetError {
	if offset < 0 {
		return e
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	line, column := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}

	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = contextLines(data, line, 5)
	return e
}

// contextLines returns up to size lines of data centered on targetLine.
func contextLines(data []byte, targetLine, size int) []string {
	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	start := targetLine - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > len(all) {
		end = len(all)
	}
	if start > end {
		return nil
	}
	return all[start-1 : end]
}

// New creates a KinetError from a registered error code.
func New(code string) *KinetError {
	template, ok := registry[code]
	if !ok {
		return &KinetError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &KinetError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new KinetError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *KinetError {
	return &KinetError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a KinetError.
func FromError(err error, code string) *KinetError {
	if err == nil {
		return nil
	}
	if ke, ok := err.(*KinetError); ok {
		return ke
	}
	return New(code).Wrap(err)
}
