package transpile

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrTranspile indicates the snippet could not be parsed or
	// converted for its declared variant.
	ErrTranspile = errors.New("transpile error")

	// ErrInit indicates the adapter failed to initialize. The failure is
	// sticky: every invocation surfaces the same cached error until the
	// process restarts.
	ErrInit = errors.New("transpiler initialization error")

	// ErrVariant indicates an unrecognized source variant.
	ErrVariant = errors.New("unknown source variant")
)

// Error describes a transpilation failure with optional source location.
type Error struct {
	// Message describes the failure.
	Message string

	// Line is the 1-based line number, zero when unknown.
	Line int

	// Column is the 0-based column number reported by the parser.
	Column int
}

// Error returns the message, including line and column if available.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Is reports whether this error matches ErrTranspile, allowing
// sentinel-style checks with errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrTranspile
}
