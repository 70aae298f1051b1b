package cloudy

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Lex/parse errors (always shown)
)

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone    LogCategory = ""        // Uncategorized
	CatLex     LogCategory = "lex"     // Tokenizing
	CatParse   LogCategory = "parse"   // Parsing
	CatEval    LogCategory = "eval"    // Evaluation and control flow
	CatScope   LogCategory = "scope"   // Variable binding and lookup
	CatBuiltin LogCategory = "builtin" // Native function calls
	CatIO      LogCategory = "io"      // Script loading
	CatRun     LogCategory = "run"     // Pipeline entry points
	CatREPL    LogCategory = "repl"    // Interactive session
)

// AllCategories lists every named category
var AllCategories = []LogCategory{CatLex, CatParse, CatEval, CatScope, CatBuiltin, CatIO, CatRun, CatREPL}

// Logger handles debug and diagnostic output for the interpreter
type Logger struct {
	mu                sync.Mutex
	enabled           bool
	enabledCategories map[LogCategory]bool
	out               io.Writer
	errOut            io.Writer
	// colorEnabled is true if errOut is a terminal that accepts color
	colorEnabled bool
}

// NewLogger creates a logger writing debug output to out and problems to errOut.
// Nil writers default to stderr.
func NewLogger(enabled bool, out, errOut io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		out:               out,
		errOut:            errOut,
		colorEnabled:      WriterSupportsColor(errOut),
	}
}

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// EnableCategory enables debug logging for a specific category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabledCategories[cat] = true
}

// DisableCategory disables debug logging for a specific category
func (l *Logger) DisableCategory(cat LogCategory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.enabledCategories, cat)
}

// EnableAllCategories enables all categories for debug logging
func (l *Logger) EnableAllCategories() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cat := range AllCategories {
		l.enabledCategories[cat] = true
	}
}

// IsCategoryEnabled checks if a category is enabled
func (l *Logger) IsCategoryEnabled(cat LogCategory) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabledCategories[cat]
}

// shouldLog determines if a message should be logged based on level and category
func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	switch level {
	case LevelFatal, LevelError, LevelWarn:
		return true
	case LevelDebug, LevelInfo, LevelTrace:
		return l.enabled && (cat == CatNone || l.enabledCategories[cat])
	default:
		return false
	}
}

// Log is the unified logging method
func (l *Logger) Log(level LogLevel, cat LogCategory, message string, position *Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.shouldLog(level, cat) {
		return
	}

	catSuffix := ""
	if cat != CatNone {
		catSuffix = ":" + string(cat)
	}

	var prefix string
	switch level {
	case LevelTrace:
		prefix = fmt.Sprintf("[TRACE%s]", catSuffix)
	case LevelInfo:
		prefix = fmt.Sprintf("[INFO%s]", catSuffix)
	case LevelDebug:
		prefix = fmt.Sprintf("[DEBUG%s]", catSuffix)
	case LevelWarn:
		prefix = fmt.Sprintf("[cloudy%s WARN]", catSuffix)
	case LevelError, LevelFatal:
		prefix = fmt.Sprintf("[cloudy%s ERROR]", catSuffix)
	}

	output := prefix + " " + message
	if position != nil {
		filename := position.Filename
		if filename == "" {
			filename = "<unknown>"
		}
		output += fmt.Sprintf("\n  at line %d, column %d in %s", position.Line+1, position.Column+1, filename)
	}

	// Trace, Info, Debug go to out; Warn and above go to errOut
	if level <= LevelDebug {
		_, _ = fmt.Fprintln(l.out, output)
		return
	}
	l.writeProblem(level, output+"\n")
}

// writeProblem prints text to errOut, colored by level on terminals. Callers hold mu.
func (l *Logger) writeProblem(level LogLevel, text string) {
	if l.colorEnabled {
		c := color.New(color.FgHiYellow)
		if level >= LevelError {
			c = color.New(color.FgHiRed)
		}
		c.EnableColor()
		_, _ = c.Fprint(l.errOut, text)
		return
	}
	_, _ = fmt.Fprint(l.errOut, text)
}

// Fatal logs a fatal error message
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(LevelFatal, CatNone, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LevelError, CatNone, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, CatNone, fmt.Sprintf(format, args...), nil)
}

// WarnCat logs a categorized warning message
func (l *Logger) WarnCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...), nil)
}

// DebugCat logs a categorized debug message
func (l *Logger) DebugCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), nil)
}

// DebugAt logs a categorized debug message with a source position
func (l *Logger) DebugAt(cat LogCategory, pos Position, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), &pos)
}

// InfoCat logs a categorized informational message
func (l *Logger) InfoCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelInfo, cat, fmt.Sprintf(format, args...), nil)
}

// TraceCat logs a categorized trace message
func (l *Logger) TraceCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...), nil)
}

// ScriptError prints a language error in its rendered form. It is always
// shown and carries no log prefix.
func (l *Logger) ScriptError(err *Error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	text := err.Error()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	l.writeProblem(LevelError, text)
}

// Report prints err through ScriptError when it is a language error and as a
// plain error message otherwise
func (l *Logger) Report(err error) {
	var langErr *Error
	if errors.As(err, &langErr) {
		if langErr != nil {
			l.ScriptError(langErr)
		}
		return
	}
	l.Error("%v", err)
}
