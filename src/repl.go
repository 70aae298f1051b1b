package cloudy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	replPrompt     = "cloudy> "
	replContPrompt = "   ...> "
	replSourceName = "<stdin>"
)

// REPLConfig configures the REPL behavior
type REPLConfig struct {
	HistoryFile     string // empty disables persistent history
	LightBackground bool   // pick darker colors for light terminals
	ShowBanner      bool
	Banner          string
}

// REPL provides an interactive read-eval-print loop over one Session
type REPL struct {
	in      *Interpreter
	session *Session
	config  REPLConfig
	out     io.Writer

	resultColor *color.Color
	report      *Logger // prints evaluation errors
}

// NewREPL creates a REPL that evaluates in a fresh session of in
func NewREPL(in *Interpreter, config REPLConfig, out, errOut io.Writer) *REPL {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	resultColor := color.New(color.FgHiGreen)
	if config.LightBackground {
		resultColor = color.New(color.FgGreen)
	}
	return &REPL{
		in:          in,
		session:     in.NewSession(replSourceName),
		config:      config,
		out:         out,
		resultColor: resultColor,
		report:      NewLogger(false, out, errOut),
	}
}

// Session returns the session the REPL evaluates in
func (r *REPL) Session() *Session {
	return r.session
}

// Run reads and evaluates input until EOF or an exit command
func (r *REPL) Run() error {
	if r.config.ShowBanner && r.config.Banner != "" {
		fmt.Fprintln(r.out, r.config.Banner)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	r.loadHistory(ln)
	defer r.saveHistory(ln)

	for {
		source, ok, err := r.readInput(ln)
		if err != nil {
			return errors.Wrap(err, "read input")
		}
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}
		if r.handleCommand(source) {
			if isExitCommand(source) {
				return nil
			}
			continue
		}
		for _, line := range strings.Split(source, "\n") {
			if strings.TrimSpace(line) != "" {
				ln.AppendHistory(line)
			}
		}
		r.Eval(source)
	}
}

// Eval evaluates one complete input and prints its result or error
func (r *REPL) Eval(source string) {
	r.in.logger.DebugCat(CatREPL, "eval %d bytes", len(source))
	v, err := r.session.Eval(source)
	if err != nil {
		r.report.Report(err)
		return
	}
	if v == nil {
		return
	}
	if _, isNull := v.(*Null); isNull {
		return
	}
	_, _ = r.resultColor.Fprintln(r.out, v.Repr())
}

// readInput collects lines until they form a complete input. ok is false at EOF.
func (r *REPL) readInput(ln *liner.State) (string, bool, error) {
	var lines []string
	for {
		prompt := replPrompt
		if len(lines) > 0 {
			prompt = replContPrompt
		}
		line, err := ln.Prompt(prompt)
		if err == io.EOF {
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true, nil
			}
			return "", false, nil
		}
		if err == liner.ErrPromptAborted {
			lines = nil
			continue
		}
		if err != nil {
			return "", false, err
		}

		lines = append(lines, line)
		if !NeedsMoreInput(lines) {
			return strings.Join(lines, "\n"), true, nil
		}
	}
}

// NeedsMoreInput reports whether the REPL should keep reading: the first line
// opened a block with a trailing colon and no blank line has closed it yet
func NeedsMoreInput(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	last := lines[len(lines)-1]
	if strings.HasSuffix(strings.TrimSpace(last), ":") {
		return true
	}
	if len(lines) == 1 {
		return false
	}
	return strings.TrimSpace(last) != ""
}

func isExitCommand(source string) bool {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "exit", "quit", ":quit":
		return true
	}
	return false
}

// handleCommand runs REPL meta commands and reports whether source was one
func (r *REPL) handleCommand(source string) bool {
	trimmed := strings.TrimSpace(source)
	switch {
	case trimmed == "":
		return true
	case isExitCommand(trimmed):
		return true
	case trimmed == ":globals":
		for _, name := range r.session.Globals() {
			v, _ := r.session.Lookup(name)
			fmt.Fprintf(r.out, "%s = %s\n", name, v.Repr())
		}
		return true
	case trimmed == ":clear-cache":
		n := r.in.cache.Len()
		r.in.cache.Clear()
		fmt.Fprintf(r.out, "cleared %d cached scripts\n", n)
		return true
	case strings.HasPrefix(trimmed, ":debug"):
		r.debugCommand(strings.TrimSpace(strings.TrimPrefix(trimmed, ":debug")))
		return true
	case strings.HasPrefix(trimmed, ":log"):
		r.logCommand(strings.TrimSpace(strings.TrimPrefix(trimmed, ":log")))
		return true
	case strings.HasPrefix(trimmed, ":"):
		fmt.Fprintln(r.out, "unknown command. Type :globals, :debug on|off, :log CATEGORY, :clear-cache or :quit.")
		return true
	}
	return false
}

// debugCommand switches debug logging on or off
func (r *REPL) debugCommand(arg string) {
	switch arg {
	case "on":
		r.in.logger.SetEnabled(true)
	case "off":
		r.in.logger.SetEnabled(false)
	default:
		fmt.Fprintln(r.out, "usage: :debug on|off")
		return
	}
	fmt.Fprintf(r.out, "debug logging %s\n", arg)
}

// logCommand toggles one debug category
func (r *REPL) logCommand(arg string) {
	cat := LogCategory(arg)
	known := false
	for _, c := range AllCategories {
		if c == cat {
			known = true
			break
		}
	}
	if !known {
		names := make([]string, len(AllCategories))
		for i, c := range AllCategories {
			names[i] = string(c)
		}
		fmt.Fprintf(r.out, "unknown category %q. Choose one of: %s\n", arg, strings.Join(names, ", "))
		return
	}

	state := "on"
	if r.in.logger.IsCategoryEnabled(cat) {
		r.in.logger.DisableCategory(cat)
		state = "off"
	} else {
		r.in.logger.EnableCategory(cat)
	}
	fmt.Fprintf(r.out, "log %s: %s\n", cat, state)
}

func (r *REPL) loadHistory(ln *liner.State) {
	if r.config.HistoryFile == "" {
		return
	}
	f, err := os.Open(r.config.HistoryFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		r.in.logger.WarnCat(CatREPL, "reading history %s: %v", r.config.HistoryFile, err)
	}
}

func (r *REPL) saveHistory(ln *liner.State) {
	if r.config.HistoryFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.config.HistoryFile), 0755); err != nil {
		r.in.logger.WarnCat(CatREPL, "creating history directory: %v", err)
		return
	}
	f, err := os.Create(r.config.HistoryFile)
	if err != nil {
		r.in.logger.WarnCat(CatREPL, "writing history %s: %v", r.config.HistoryFile, err)
		return
	}
	defer f.Close()
	_, _ = ln.WriteHistory(f)
}
