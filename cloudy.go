// Package cloudy provides an indentation-sensitive scripting language
// interpreter that can be embedded in Go applications.
//
// This package re-exports the public API from the implementation in src/.
// For full documentation, see the implementation package.
//
// Basic usage:
//
//	in := cloudy.New(nil)
//	v, err := in.Run("<example>", "func add(a, b): a + b\nadd(2, 3)")
package cloudy

import (
	impl "github.com/cloudylang/cloudy/src"
)

// =============================================================================
// CORE TYPES
// =============================================================================

// Interpreter is the main interpreter instance.
type Interpreter = impl.Interpreter

// Config holds configuration options for the interpreter.
type Config = impl.Config

// Session keeps one global scope across evaluations.
type Session = impl.Session

// Context is one frame of the call chain.
type Context = impl.Context

// Environment is a variable scope.
type Environment = impl.Environment

// CallContext is passed to builtin handlers.
type CallContext = impl.CallContext

// BuiltinHandler is the function signature for native functions.
type BuiltinHandler = impl.BuiltinHandler

// =============================================================================
// VALUES
// =============================================================================

type (
	Value           = impl.Value
	Number          = impl.Number
	Bool            = impl.Bool
	String          = impl.String
	List            = impl.List
	Function        = impl.Function
	BuiltinFunction = impl.BuiltinFunction
	Null            = impl.Null
)

// =============================================================================
// ERRORS AND POSITIONS
// =============================================================================

// Error is a positioned lexical, syntax or runtime error.
type Error = impl.Error

// ErrorKind names the class of an Error.
type ErrorKind = impl.ErrorKind

// Position is a location in source text.
type Position = impl.Position

const (
	IllegalCharError   = impl.IllegalCharError
	ExpectedCharError  = impl.ExpectedCharError
	InvalidSyntaxError = impl.InvalidSyntaxError
	RTError            = impl.RTError
	OutOfRangeError    = impl.OutOfRangeError
)

// =============================================================================
// LOGGING
// =============================================================================

// Logger is the interpreter's diagnostic logger.
type Logger = impl.Logger

// LogCategory names a logging subsystem.
type LogCategory = impl.LogCategory

const (
	CatLex     = impl.CatLex
	CatParse   = impl.CatParse
	CatEval    = impl.CatEval
	CatScope   = impl.CatScope
	CatBuiltin = impl.CatBuiltin
	CatIO      = impl.CatIO
	CatRun     = impl.CatRun
	CatREPL    = impl.CatREPL
)

// =============================================================================
// FUNCTIONS
// =============================================================================

// New creates an interpreter. A nil config uses DefaultConfig.
func New(config *Config) *Interpreter {
	return impl.New(config)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return impl.DefaultConfig()
}

// Run executes a program with a default interpreter.
func Run(sourceName, text string) (Value, error) {
	return impl.Run(sourceName, text)
}

// NewInt creates an integer Number.
func NewInt(v int64) *Number { return impl.NewInt(v) }

// NewFloat creates a float Number.
func NewFloat(v float64) *Number { return impl.NewFloat(v) }

// NewString creates a String.
func NewString(v string) *String { return impl.NewString(v) }

// NewBool creates a Bool.
func NewBool(v bool) *Bool { return impl.NewBool(v) }

// NewList creates a List.
func NewList(elems []Value) *List { return impl.NewList(elems) }

// NewNull creates a Null.
func NewNull() *Null { return impl.NewNull() }
