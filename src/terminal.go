package cloudy

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// fdWriter is satisfied by *os.File
type fdWriter interface {
	Fd() uintptr
}

// ansiTerms are TERM values known to understand ANSI escapes
var ansiTerms = []string{
	"xterm", "vt100", "vt102", "vt220", "vt320", "ansi", "linux",
	"screen", "tmux", "rxvt", "konsole", "gnome", "putty",
	"cygwin", "mintty", "eterm", "alacritty", "kitty", "iterm",
}

// IsTerminalWriter reports whether w is an interactive terminal
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsTerminalReader reports whether r is an interactive terminal
func IsTerminalReader(r io.Reader) bool {
	f, ok := r.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SupportsANSI reports whether the TERM environment accepts escape sequences
func SupportsANSI() bool {
	termType := strings.ToLower(os.Getenv("TERM"))
	if termType == "" || termType == "dumb" {
		return false
	}
	for _, t := range ansiTerms {
		if strings.Contains(termType, t) {
			return true
		}
	}
	// If TERM is set and not "dumb", assume ANSI support
	return true
}

// WriterSupportsColor checks if w is a terminal that supports color output
func WriterSupportsColor(w io.Writer) bool {
	if !IsTerminalWriter(w) {
		return false
	}
	// Respect NO_COLOR environment variable (https://no-color.org/)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return SupportsANSI()
}

// ANSIClearScreen returns the sequence that clears the screen and homes the cursor
func ANSIClearScreen() string {
	return "\x1b[2J\x1b[H"
}
