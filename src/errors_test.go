package cloudy

import (
	"fmt"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// posAt builds the position of byte index i in text
func posAt(filename, text string, i int) Position {
	p := NewPosition(filename, text)
	for p.Index < i {
		p = p.Next()
	}
	return p
}

func TestStringWithArrows(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end int
		want       string
	}{
		{"single line", "1 / 0", 4, 5, "1 / 0\n    ^"},
		{"whole line", "abc", 0, 3, "abc\n^^^"},
		{"second line keeps its newline", "x\ny", 2, 3, "\ny\n^"},
		{"tabs removed", "\tab", 1, 3, "ab\n ^^"},
		{"two lines", "ab\ncd", 1, 4, "ab\n \ncd\n^"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := posAt("<test>", tt.text, tt.start)
			end := posAt("<test>", tt.text, tt.end)
			assert.Equal(t, tt.want, StringWithArrows(tt.text, start, end))
		})
	}
}

func TestErrorRendering(t *testing.T) {
	text := "1 / 0"
	err := NewRuntimeError(posAt("calc.cdy", text, 4), posAt("calc.cdy", text, 5), "Division by zero", nil)

	assert.Equal(t, "RTError: Division by zero", err.Message())
	assert.Equal(t, "RTError: Division by zero\nFile calc.cdy, line 1\n1 / 0\n    ^", err.Error())
	assert.True(t, err.IsRuntime())
}

func TestErrorTracebackOutermostFirst(t *testing.T) {
	text := "outer()\n"
	program := NewContext("<program>", nil, Position{}, NewEnvironment(nil))
	outer := NewContext("outer", program, posAt("t.cdy", text, 0), NewEnvironment(nil))
	inner := NewContext("inner", outer, posAt("t.cdy", text, 0), NewEnvironment(nil))

	err := NewRuntimeError(posAt("t.cdy", text, 0), posAt("t.cdy", text, 5), "boom", inner)
	want := "Traceback (most recent call last):\n" +
		"  File t.cdy, line 1, in <program>\n" +
		"  File t.cdy, line 1, in outer\n" +
		"  File t.cdy, line 1, in inner\n"
	assert.Equal(t, want, err.Traceback())
	assert.Contains(t, err.Error(), want+"RTError: boom\n")

	err.WithoutTraceback()
	assert.NotContains(t, err.Error(), "Traceback")
}

func TestSyntaxErrorHasNoTraceback(t *testing.T) {
	tok := Token{Kind: TokInt, Start: posAt("<t>", "1", 0), End: posAt("<t>", "1", 1)}
	err := syntaxError(tok, "Unexpected '1'")
	assert.False(t, err.IsRuntime())
	assert.Equal(t, "InvalidSyntaxError: Unexpected '1'\nFile <t>, line 1\n1\n^", err.Error())
}

func TestErrorCauseChain(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.cdy")
	require.Error(t, statErr)

	wrapped := errors.Wrapf(statErr, "read %s", "here.cdy")
	err := NewRuntimeError(Position{}, Position{}, "Failed to load script", nil).WithCause(wrapped)

	assert.True(t, errors.Is(err, os.ErrNotExist))

	var pathErr *os.PathError
	assert.True(t, errors.As(err, &pathErr))
	assert.Equal(t, statErr, errors.Cause(err.Unwrap()))

	var langErr *Error
	assert.True(t, errors.As(fmt.Errorf("context: %w", err), &langErr))
	assert.Equal(t, RTError, langErr.Kind)
}
