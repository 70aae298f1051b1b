package cloudy

import (
	"fmt"
	"strings"
)

// ErrorKind names the class of a language error
type ErrorKind string

const (
	IllegalCharError   ErrorKind = "IllegalCharError"   // unrecognized character
	ExpectedCharError  ErrorKind = "ExpectedCharError"  // malformed operator or unterminated string
	InvalidSyntaxError ErrorKind = "InvalidSyntaxError" // grammar or indentation violation
	RTError            ErrorKind = "RTError"            // generic runtime failure
	OutOfRangeError    ErrorKind = "OutOfRangeError"    // index past the end of a string or list
)

// Error is a positioned language error raised by any pipeline stage
type Error struct {
	Kind    ErrorKind
	Start   Position
	End     Position
	Details string
	Context *Context // runtime errors only
	cause   error

	hideTraceback bool
}

func newError(kind ErrorKind, start, end Position, details string) *Error {
	return &Error{Kind: kind, Start: start, End: end, Details: details}
}

// NewRuntimeError creates an RTError attached to the evaluation context
func NewRuntimeError(start, end Position, details string, ctx *Context) *Error {
	return &Error{Kind: RTError, Start: start, End: end, Details: details, Context: ctx}
}

func syntaxError(tok Token, details string) *Error {
	return newError(InvalidSyntaxError, tok.Start, tok.End, details)
}

// WithCause records the error that triggered this one
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// WithoutTraceback renders the error with only the summary and source excerpt
func (e *Error) WithoutTraceback() *Error {
	e.hideTraceback = true
	return e
}

// Unwrap exposes the underlying cause to errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

// IsRuntime reports whether the error was raised during evaluation
func (e *Error) IsRuntime() bool {
	return e.Kind == RTError || e.Kind == OutOfRangeError
}

// Message returns the one-line "Kind: details" summary
func (e *Error) Message() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}

// Error renders the full diagnostic with traceback and source excerpt
func (e *Error) Error() string {
	var b strings.Builder
	if e.IsRuntime() && !e.hideTraceback && e.Context != nil && e.Context.Parent != nil {
		b.WriteString(e.Traceback())
	}
	fmt.Fprintf(&b, "%s\nFile %s, line %d\n", e.Message(), e.Start.Filename, e.Start.Line+1)
	b.WriteString(StringWithArrows(e.Start.Text, e.Start, e.End))
	return b.String()
}

// Traceback lists the call contexts enclosing the error, outermost first
func (e *Error) Traceback() string {
	var frames []string
	pos := e.Start
	for ctx := e.Context; ctx != nil; ctx = ctx.Parent {
		frames = append(frames, fmt.Sprintf("  File %s, line %d, in %s\n", pos.Filename, pos.Line+1, ctx.DisplayName))
		pos = ctx.ParentEntry
	}
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for i := len(frames) - 1; i >= 0; i-- {
		b.WriteString(frames[i])
	}
	return b.String()
}

// StringWithArrows reproduces the source lines covered by start..end with a
// caret underline beneath each one. Tabs are removed from the result.
func StringWithArrows(text string, start, end Position) string {
	var result strings.Builder

	idxStart := strings.LastIndex(text[:clamp(start.Index, 0, len(text))], "\n")
	if idxStart < 0 {
		idxStart = 0
	}
	idxEnd := findNewline(text, idxStart+1)

	lineCount := end.Line - start.Line + 1
	for i := 0; i < lineCount; i++ {
		line := ""
		if idxStart < idxEnd {
			line = text[idxStart:idxEnd]
		}
		colStart := 0
		if i == 0 {
			colStart = start.Column
		}
		colEnd := len(line) - 1
		if i == lineCount-1 {
			colEnd = end.Column
		}

		result.WriteString(line)
		result.WriteString("\n")
		result.WriteString(strings.Repeat(" ", max(colStart, 0)))
		result.WriteString(strings.Repeat("^", max(colEnd-colStart, 0)))

		idxStart = idxEnd
		idxEnd = findNewline(text, idxStart+1)
	}

	return strings.ReplaceAll(result.String(), "\t", "")
}

// findNewline returns the index of the next '\n' at or after from, or len(text)
func findNewline(text string, from int) int {
	if from > len(text) {
		return len(text)
	}
	if i := strings.IndexByte(text[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(text)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
