package cloudy

import (
	"io"
	"os"
	"time"
)

// Config holds configuration for the interpreter
type Config struct {
	Debug          bool          // enable debug logging
	LogCategories  []LogCategory // categories to log when Debug is set; empty means all
	Stdout         io.Writer     // print and prompt output
	Stdin          io.Reader     // input and input_int source
	LogOutput      io.Writer     // logger destination
	ShowTraceback  bool          // include the call traceback in rendered runtime errors
	ScriptCacheTTL time.Duration // how long run() keeps parsed scripts; 0 disables caching
	ScriptDir      string        // base directory for relative run() paths; empty means working directory
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		Stdout:         os.Stdout,
		Stdin:          os.Stdin,
		LogOutput:      os.Stderr,
		ShowTraceback:  true,
		ScriptCacheTTL: 5 * time.Minute,
	}
}

// withDefaults fills unset writers and readers
func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.LogOutput == nil {
		cfg.LogOutput = os.Stderr
	}
	return &cfg
}

// ResultKind tags an evaluation outcome
type ResultKind int

const (
	ResultNormal ResultKind = iota
	ResultReturn
	ResultBreak
	ResultContinue
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultNormal:
		return "normal"
	case ResultReturn:
		return "return"
	case ResultBreak:
		return "break"
	case ResultContinue:
		return "continue"
	case ResultError:
		return "error"
	}
	return "unknown"
}

// EvalResult is the outcome of evaluating one node: a value, a control
// signal travelling to the construct that consumes it, or an error
type EvalResult struct {
	Kind   ResultKind
	Value  Value  // Normal and Return
	Err    *Error // Error
	Origin Node   // statement that raised a Break or Continue
}

func normal(v Value) EvalResult { return EvalResult{Kind: ResultNormal, Value: v} }

func returned(v Value) EvalResult { return EvalResult{Kind: ResultReturn, Value: v} }

func failed(err *Error) EvalResult { return EvalResult{Kind: ResultError, Err: err} }

// ShouldStop reports whether evaluation of the enclosing sequence must end
func (r EvalResult) ShouldStop() bool {
	return r.Kind != ResultNormal
}
