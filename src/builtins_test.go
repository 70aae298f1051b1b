package cloudy

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	in, out := newTestInterpreter(t, "")
	v := mustRun(t, in, `print("hello")`+"\nprint([1, \"a\"])\nprint(2.0)")
	assert.Equal(t, "null", v.Repr())
	assert.Equal(t, "hello\n[1, \"a\"]\n2.0\n", out.String())

	v = mustRun(t, in, `print_ret([1, "a"])`)
	assert.Equal(t, "\"[1, \"a\"]\"", v.Repr())
}

func TestInput(t *testing.T) {
	in, out := newTestInterpreter(t, "alice\r\n")
	mustRun(t, in, `name = input()`+"\n"+`print("hi " + name)`)
	assert.Equal(t, "> hi alice\n", out.String())
}

func TestInputAtEOF(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	err := runError(t, in, "input()")
	assert.Equal(t, "Failed to read input", err.Details)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestInputLastLineWithoutNewline(t *testing.T) {
	in, _ := newTestInterpreter(t, "bob")
	v := mustRun(t, in, "input()")
	assert.Equal(t, `"bob"`, v.Repr())
}

func TestInputInt(t *testing.T) {
	in, out := newTestInterpreter(t, "abc\n 42 \n")
	v := mustRun(t, in, "input_int()")
	assert.Equal(t, "42", v.Repr())
	assert.Equal(t, "'abc' must be an integer. Try again!\n", out.String())
}

func TestClear(t *testing.T) {
	in, out := newTestInterpreter(t, "")
	mustRun(t, in, "clear()")
	assert.Equal(t, "\x1b[2J\x1b[H", out.String())
}

func TestBuiltinResults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"is_number", "is_number(1.5)", "true"},
		{"is_number on string", `is_number("1")`, "false"},
		{"is_string", `is_string("")`, "true"},
		{"is_bool", "is_bool(false)", "true"},
		{"is_list", "is_list([])", "true"},
		{"is_function user", "func f(): 1\nis_function(f)", "true"},
		{"is_function builtin", "is_function(print)", "true"},
		{"is_function number", "is_function(1)", "false"},
		{"append returns null", "append([], 1)", "null"},
		{"append mutates", "xs = [1]\nappend(xs, [2])\nxs", "[1, [2]]"},
		{"pop returns element", "xs = [1, 2, 3]\npop(xs, 0)", "1"},
		{"pop negative", "xs = [1, 2, 3]\npop(xs, -1)\nxs", "[1, 2]"},
		{"pop whole float index", "xs = [1, 2]\npop(xs, 1.0)", "2"},
		{"extend", "xs = [1]\nextend(xs, [2, 3])\nxs", "[1, 2, 3]"},
		{"extend with itself", "xs = [1, 2]\nextend(xs, xs)\nxs", "[1, 2, 1, 2]"},
		{"len list", "len([1, 2])", "2"},
		{"len string", `len("abc")`, "3"},
		{"len non-ASCII string", `len("héllo")`, "5"},
		{"type number", "type(1)", `"number"`},
		{"type string", `type("s")`, `"string"`},
		{"type list", "type([])", `"list"`},
		{"type null", "type(null)", `"null"`},
		{"type bool", "type(true)", `"bool"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		details string
	}{
		{"append to number", "append(1, 2)", "First argument must be a list."},
		{"pop from string", `pop("ab", 0)`, "First argument must be a list."},
		{"pop with string index", `pop([1], "0")`, "Second argument must be an integer."},
		{"pop with fractional index", "pop([1], 0.5)", "Second argument must be an integer."},
		{"pop past end", "pop([1], 1)", "Index is out of range."},
		{"pop empty", "pop([], -1)", "Index is out of range."},
		{"extend with number", "extend([1], 2)", "Both arguments must be lists"},
		{"len of number", "len(5)", "Argument must be a list"},
		{"run with number", "run(5)", "Argument must be string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			err := runError(t, in, tt.source)
			assert.Equal(t, RTError, err.Kind)
			assert.Equal(t, tt.details, err.Details)
		})
	}
}

func TestBuiltinErrorTraceback(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	err := runError(t, in, "len(5)")
	assert.Contains(t, err.Error(), "  File <test>, line 1, in len\n")
}

func TestBuiltinNilErrorIsSuccess(t *testing.T) {
	for _, traceback := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.Stdout = io.Discard
		cfg.LogOutput = io.Discard
		cfg.ShowTraceback = traceback
		in := New(cfg)
		in.RegisterBuiltin("quiet", nil, func(c *CallContext) (Value, error) {
			var none *Error
			return NewString("ok"), none
		})

		v, err := in.Run("<test>", "quiet()")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, `"ok"`, v.Repr())
	}
}

func TestBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()
	r.Register("b", []string{"x"}, func(c *CallContext) (Value, error) { return nil, nil })
	r.Register("a", nil, func(c *CallContext) (Value, error) { return nil, nil })

	assert.Equal(t, []string{"a", "b"}, r.Names())

	b, ok := r.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", b.Name())
	assert.Equal(t, []string{"x"}, b.Params())
	assert.Equal(t, "<built-in function b>", b.Repr())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

// writeScript creates name under dir with the given source
func writeScript(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func newScriptInterpreter(t *testing.T, dir string) (*Interpreter, *strings.Builder) {
	t.Helper()
	var out strings.Builder
	cfg := DefaultConfig()
	cfg.Stdout = &out
	cfg.Stdin = strings.NewReader("")
	cfg.LogOutput = io.Discard
	cfg.ScriptDir = dir
	cfg.ScriptCacheTTL = time.Minute
	return New(cfg), &out
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib.cdy", "print(\"from lib\")\nsecret = 1\n")

	in, out := newScriptInterpreter(t, dir)
	v := mustRun(t, in, `run("lib.cdy")`)
	assert.Equal(t, "null", v.Repr())
	assert.Equal(t, "from lib\n", out.String())

	err := runError(t, in, `run("lib.cdy")`+"\nsecret")
	assert.Equal(t, "'secret' is not defined", err.Details)
	assert.Equal(t, 1, in.cache.Len())
}

func TestRunScriptErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.cdy", "x = 1\nx / 0\n")
	writeScript(t, dir, "broken.cdy", "1 +")
	writeScript(t, dir, "self.cdy", `run("self.cdy")`+"\n")

	in, _ := newScriptInterpreter(t, dir)

	t.Run("missing file", func(t *testing.T) {
		err := runError(t, in, `run("nope.cdy")`)
		assert.True(t, strings.HasPrefix(err.Details, `Failed to load script "nope.cdy"`), err.Details)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("runtime error", func(t *testing.T) {
		err := runError(t, in, `run("bad.cdy")`)
		assert.True(t, strings.HasPrefix(err.Details, "Failed to finish executing script \"bad.cdy\".\n"), err.Details)
		assert.Contains(t, err.Details, "RTError: Division by zero")

		var inner *Error
		require.True(t, errors.As(err.Unwrap(), &inner))
		assert.Equal(t, "Division by zero", inner.Details)
		assert.Equal(t, filepath.Join(dir, "bad.cdy"), inner.Start.Filename)
	})

	t.Run("syntax error", func(t *testing.T) {
		err := runError(t, in, `run("broken.cdy")`)
		assert.Contains(t, err.Details, "InvalidSyntaxError: Unexpected 'EOF'")
	})

	t.Run("runaway recursion", func(t *testing.T) {
		err := runError(t, in, `run("self.cdy")`)
		assert.Contains(t, err.Details, "Maximum script nesting depth exceeded")
		assert.Equal(t, 0, in.runDepth)
	})
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.cdy", "func sq(x): x * x\nsq(9)\n")

	in, _ := newScriptInterpreter(t, "")
	v, err := in.RunFile(path)
	require.NoError(t, err)
	assert.Equal(t, "81", v.Repr())

	_, err = in.RunFile(filepath.Join(dir, "missing.cdy"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
