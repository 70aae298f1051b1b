package cloudy

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestInterpreter returns an interpreter reading input and writing to the returned buffer
func newTestInterpreter(t *testing.T, input string) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stdout = &out
	cfg.Stdin = strings.NewReader(input)
	cfg.LogOutput = io.Discard
	return New(cfg), &out
}

func mustRun(t *testing.T, in *Interpreter, source string) Value {
	t.Helper()
	v, err := in.Run("<test>", source)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

func runError(t *testing.T, in *Interpreter, source string) *Error {
	t.Helper()
	v, err := in.Run("<test>", source)
	require.Error(t, err, "expected %q to fail", source)
	assert.Nil(t, v)
	var langErr *Error
	require.True(t, errors.As(err, &langErr), "error should be *Error, got %T", err)
	return langErr
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"precedence", "1 + 2 * 3", "7"},
		{"parentheses", "(1 + 2) * 3", "9"},
		{"power binds right", "2 ** 3 ** 2", "512"},
		{"unary minus", "-(2 + 3)", "-5"},
		{"division is float", "7 / 2", "3.5"},
		{"assignment value", "x = 5", "5"},
		{"variable", "x = 5\nx + 1", "6"},
		{"chained assignment", "a = b = 3\na + b", "6"},
		{"string concat", `"ab" + "cd"`, `"abcd"`},
		{"string repeat", `"ab" * 2`, `"abab"`},
		{"string index", `s = "hello"` + "\ns[-1]", `"o"`},
		{"logic", "true and not false", "true"},
		{"comparison", "1 < 2 == true", "true"},
		{"list literal", `[1, "a", [2.5]]`, `[1, "a", [2.5]]`},
		{"list index", "xs = [10, 20, 30]\nxs[1 + 1]", "30"},
		{"nested index", "xs = [[1, 2], [3, 4]]\nxs[1][0]", "3"},
		{"null binding", "null", "null"},
		{"empty program", "", "null"},
		{"type of function", "func f(): 1\ntype(f)", `"function"`},
		{"type of builtin", "type(print)", `"builtinfunction"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline body returns its value", "func add(a, b): a + b\nadd(2, 3)", "5"},
		{"block body without return", "func f():\n    x = 1\nf()", "null"},
		{"explicit return", "func double(a):\n    return a * 2\ndouble(4)", "8"},
		{"bare return", "func f():\n    return\n    1\nf()", "null"},
		{"anonymous function", "f = func(a): a * 3\nf(3)", "9"},
		{"immediate call", "(func(a): a + 1)(1)", "2"},
		{"chained calls", "func adder(n): func(x): x + n\nadder(2)(5)", "7"},
		{
			"closure keeps its scope",
			"func adder(n):\n    func add(x): x + n\n    return add\nadd5 = adder(5)\nadd5(1)",
			"6",
		},
		{"closure sees later globals", "n = 1\nfunc get(): n\nn = 2\nget()", "2"},
		{
			"recursion",
			"func fact(n):\n    if n <= 1: return 1\n    return n * fact(n - 1)\nfact(5)",
			"120",
		},
		{"parameters shadow globals", "a = 1\nfunc f(a): a\nf(9)\na", "1"},
		{"function value repr", "func hello(): 1\nhello", "<function hello>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestLoops(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline for collects", "for i = 0 to 5: i", "[0, 1, 2, 3, 4]"},
		{"for with negative step", "for i = 5 to 0 step -2: i", "[5, 3, 1]"},
		{"for with float step", "for i = 0 to 1 step 0.5: i", "[0, 0.5]"},
		{"empty range", "for i = 3 to 3: i", "[]"},
		{"block for is null", "for i = 0 to 3:\n    i", "null"},
		{"loop variable survives", "for i = 0 to 3: i\ni", "2"},
		{
			"break",
			"total = 0\nfor i = 0 to 10:\n    if i == 3: break\n    total = total + i\ntotal",
			"3",
		},
		{
			"continue",
			"total = 0\nfor i = 0 to 6:\n    if i % 2 == 0: continue\n    total = total + i\ntotal",
			"9",
		},
		{"inline while collects", "i = 0\nwhile i < 3: i = i + 1", "[1, 2, 3]"},
		{"block while is null", "i = 0\nwhile i < 3:\n    i = i + 1", "null"},
		{
			"while break",
			"i = 0\nwhile true:\n    i = i + 1\n    if i == 4: break\ni",
			"4",
		},
		{
			"break leaves only the innermost loop",
			"n = 0\nfor i = 0 to 3:\n    for j = 0 to 3:\n        if j == 1: break\n        n = n + 1\nn",
			"3",
		},
		{
			"return from inside a loop",
			"func first(xs):\n    for i = 0 to len(xs):\n        if xs[i] > 2: return xs[i]\n    return null\nfirst([1, 5, 7])",
			"5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestConditionals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline if value", "if 1: 5", "5"},
		{"no branch taken", "if 0: 5", "null"},
		{"elif", "x = 0\nif x: 1\nelif x == 0: 2\nelse: 3", "2"},
		{"else", "if false: 1 elif false: 2 else: 3", "3"},
		{"block if is null", "if 1:\n    5", "null"},
		{
			"block and inline bodies have the same effect",
			"a = 0\nb = 0\nif true: a = 1\nif true:\n    b = 1\na == b",
			"true",
		},
		{"empty string is false", `if "": 1 else: 2`, "2"},
		{"empty list is false", "if []: 1 else: 2", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestIntegerOverflow(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"add", "9223372036854775807 + 1", "9.223372036854776e+18"},
		{"subtract", "-9223372036854775807 - 2", "-9.223372036854776e+18"},
		{"multiply", "3037000500 * 3037000500", "9.22337203700025e+18"},
		{"power", "2 ** 64", "1.8446744073709552e+19"},
		{"power overflowing on the last multiply", "3 ** 40", "1.2157665459056929e+19"},
		{"negate the smallest int", "-(-9223372036854775807 - 1)", "9.223372036854776e+18"},
		{"floor divide the smallest int", "(-9223372036854775807 - 1) // -1", "9.223372036854776e+18"},
		{"largest int stays exact", "9223372036854775806 + 1", "9223372036854775807"},
		{"power that fits", "3 ** 39", "4052555153018976267"},
		{"power of two that fits", "2 ** 62", "4611686018427387904"},
		{"negative base", "(-2) ** 63", "-9223372036854775808"},
		{"modulo by minus one", "(-9223372036854775807 - 1) % -1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestStringRepeatBounds(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	assert.Equal(t, `""`, mustRun(t, in, `"ab" * 0`).Repr())
	assert.Equal(t, `""`, mustRun(t, in, `"ab" * -9223372036854775807`).Repr())
	assert.Equal(t, `""`, mustRun(t, in, `"" * 9223372036854775807`).Repr())
	assert.Equal(t, `"ababab"`, mustRun(t, in, `"ab" * 3.0`).Repr())
	assert.Equal(t, 1<<20, len(mustRun(t, in, `"x" * 1048576`).String()))
}

func TestUnicodeStrings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"len counts characters", `len("héllo")`, "5"},
		{"len of wide characters", `len("日本語")`, "3"},
		{"index", `"héllo"[1]`, `"é"`},
		{"index after a wide character", `"héllo"[2]`, `"l"`},
		{"negative index", `"héllo"[-4]`, `"é"`},
		{"last character", `"日本"[-1]`, `"本"`},
		{"concat keeps characters", `"日" + "本"`, `"日本"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			assert.Equal(t, tt.want, mustRun(t, in, tt.source).Repr())
		})
	}
}

func TestListsAreShared(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	v := mustRun(t, in, "a = [1, 2]\nb = a\nappend(b, 3)\nappend(a, 4)\na")
	assert.Equal(t, "[1, 2, 3, 4]", v.Repr())

	v = mustRun(t, in, "func push(xs): append(xs, 0)\nys = []\npush(ys)\npush(ys)\nys")
	assert.Equal(t, "[0, 0]", v.Repr())
}

func TestIndexAssignment(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	assert.Equal(t, "[1, 2, 9]", mustRun(t, in, "a = [1, 2, 3]\na[-1] = 9\na").Repr())
	assert.Equal(t, "7", mustRun(t, in, "a = [0]\na[0] = 7").Repr())
	assert.Equal(t, "[5, 2]", mustRun(t, in, "a = [1, 2]\nb = a\nb[0] = 5\na").Repr())
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		kind    ErrorKind
		details string
	}{
		{"undefined name", "y + 1", RTError, "'y' is not defined"},
		{"division by zero", "1 / 0", RTError, "Division by zero"},
		{"illegal operation", `1 + "a"`, RTError, "Illegal operation"},
		{"too many args", "func f(a): a\nf(1, 2)", RTError, "1 too many args passed into 'f'"},
		{"too few args", "func f(a, b): a\nf()", RTError, "2 too few args passed into 'f'"},
		{"builtin arity", "len()", RTError, "1 too few args passed into 'len'"},
		{"not callable", "x = 1\nx()", RTError, "Type 'Number' is not callable"},
		{"not subscriptable", "x = 1\nx[0]", RTError, "Type 'Number' is not subscriptable"},
		{"index out of range", "xs = [1]\nxs[1]", OutOfRangeError, "list index out of range"},
		{"assign out of range", "xs = [1]\nxs[5] = 0", OutOfRangeError, "list index out of range"},
		{"assign into string", "s = \"ab\"\ns[0] = \"x\"", RTError, "Type 'String' does not support item assignment"},
		{"assign into undefined", "zs[0] = 1", RTError, "'zs' is not defined"},
		{"float index", "xs = [1]\nxs[0.5]", RTError, "Index can only be of type 'int'"},
		{"dictionary literal", `{"a": 1}`, RTError, "Dictionary literals are not supported"},
		{"string loop bound", `for i = "a" to 3: i`, RTError, "Loop bounds must be numbers, not 'String'"},
		{"top-level break", "break", RTError, "'break' outside loop"},
		{"continue escaping a function", "func f():\n    continue\nf()", RTError, "'continue' outside loop"},
		{"delete removes the binding", "x = 1\ndel x\nx", RTError, "'x' is not defined"},
		{"function locals do not leak", "func f():\n    inner = 1\nf()\ninner", RTError, "'inner' is not defined"},
		{"delete unknown name", "del nope", RTError, "'nope' is not defined"},
		{"delete does not reach globals", "g = 1\nfunc f():\n    del g\nf()", RTError, "'g' is not defined"},
		{"repeat past the string limit", `"ab" * 4611686018427387904`, RTError, "Repeat count too large"},
		{"repeat by a computed power", `"ab" * (2 ** 62)`, RTError, "Repeat count too large"},
		{"repeat by a large float", `"ab" * 4611686018427387904.0`, RTError, "Repeat count too large"},
		{"repeat by max int", `"ab" * 9223372036854775807`, RTError, "Repeat count too large"},
		{"non-ASCII index out of range", `"héllo"[5]`, OutOfRangeError, "string index out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, "")
			err := runError(t, in, tt.source)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.details, err.Details)
			assert.Equal(t, "<test>", err.Start.Filename)
		})
	}
}

func TestSyntaxErrorsStopBeforeEvaluation(t *testing.T) {
	in, out := newTestInterpreter(t, "")
	err := runError(t, in, "print(1)\n1 +")
	assert.Equal(t, InvalidSyntaxError, err.Kind)
	assert.Empty(t, out.String())

	err = runError(t, in, "x = @")
	assert.Equal(t, IllegalCharError, err.Kind)
}

func TestTopLevelReturn(t *testing.T) {
	in, out := newTestInterpreter(t, "")
	v := mustRun(t, in, "return 7\nprint(8)")
	assert.Equal(t, "7", v.Repr())
	assert.Empty(t, out.String())
}

func TestErrorOutput(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	err := runError(t, in, "1 / 0")
	assert.Equal(t, "RTError: Division by zero\nFile <test>, line 1\n1 / 0\n    ^", err.Error())
}

func TestErrorTraceback(t *testing.T) {
	source := "func inner(): 1 / 0\nfunc outer(): inner()\nouter()"

	in, _ := newTestInterpreter(t, "")
	err := runError(t, in, source)
	want := "Traceback (most recent call last):\n" +
		"  File <test>, line 3, in <program>\n" +
		"  File <test>, line 2, in outer\n" +
		"  File <test>, line 1, in inner\n" +
		"RTError: Division by zero\n"
	assert.True(t, strings.HasPrefix(err.Error(), want), "got:\n%s", err.Error())

	cfg := DefaultConfig()
	cfg.Stdout = io.Discard
	cfg.LogOutput = io.Discard
	cfg.ShowTraceback = false
	_, plain := New(cfg).Run("<test>", source)
	require.Error(t, plain)
	assert.NotContains(t, plain.Error(), "Traceback")
	assert.True(t, strings.HasPrefix(plain.Error(), "RTError: Division by zero\n"))
}

func TestAnonymousFunctionTraceback(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	err := runError(t, in, "f = func(): 1 / 0\nf()")
	assert.Contains(t, err.Traceback(), "in <anonymous>")
}

func TestRunUsesFreshGlobals(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	mustRun(t, in, "x = 1")
	err := runError(t, in, "x")
	assert.Equal(t, "'x' is not defined", err.Details)
}

func TestSession(t *testing.T) {
	in, _ := newTestInterpreter(t, "")
	s := in.NewSession("<session>")

	_, err := s.Eval("x = 1\nfunc inc(n): n + 1")
	require.NoError(t, err)
	v, err := s.Eval("x = inc(x)\nx")
	require.NoError(t, err)
	assert.Equal(t, "2", v.Repr())

	got, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "2", got.Repr())

	names := s.Globals()
	assert.Contains(t, names, "x")
	assert.Contains(t, names, "inc")
	assert.Contains(t, names, "print")
	assert.Contains(t, names, "null")

	_, err = s.Eval("undefined_name")
	require.Error(t, err)
	v, err = s.Eval("x")
	require.NoError(t, err, "a failed evaluation keeps the session usable")
	assert.Equal(t, "2", v.Repr())
}

func TestRegisterBuiltin(t *testing.T) {
	in, out := newTestInterpreter(t, "")

	in.RegisterBuiltin("twice", []string{"value"}, func(c *CallContext) (Value, error) {
		n, ok := c.Arg("value").(*Number)
		if !ok {
			return nil, c.Errorf("Argument must be a number")
		}
		return NewInt(n.Int() * 2), nil
	})
	in.RegisterBuiltin("deny", nil, func(c *CallContext) (Value, error) {
		return nil, errors.Wrap(os.ErrPermission, "open secrets")
	})
	in.RegisterBuiltin("nothing", nil, func(c *CallContext) (Value, error) {
		fmt.Fprint(c.Stdout(), "side effect")
		return nil, nil
	})

	assert.Equal(t, "42", mustRun(t, in, "twice(21)").Repr())
	assert.Equal(t, "null", mustRun(t, in, "nothing()").Repr())
	assert.Equal(t, "side effect", out.String())

	err := runError(t, in, `twice("a")`)
	assert.Equal(t, "Argument must be a number", err.Details)

	err = runError(t, in, "deny()")
	assert.Equal(t, RTError, err.Kind)
	assert.Equal(t, "open secrets: permission denied", err.Details)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestPackageRun(t *testing.T) {
	v, err := Run("<test>", "func sq(x): x * x\nsq(12)")
	require.NoError(t, err)
	assert.Equal(t, "144", v.Repr())
}

func TestDebugLogging(t *testing.T) {
	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stdout = io.Discard
	cfg.LogOutput = &logs
	cfg.Debug = true
	cfg.LogCategories = []LogCategory{CatEval}

	in := New(cfg)
	_, err := in.Run("<test>", "func f(): 1\nf()")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "[DEBUG:eval] call f with 0 args (depth 2)")
	assert.NotContains(t, logs.String(), "[DEBUG:lex]")

	logs.Reset()
	_, err = in.Run("<test>", "func f(): 1\nfunc g(): f()\ng()")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "call g with 0 args (depth 2)")
	assert.Contains(t, logs.String(), "call f with 0 args (depth 3)")
}
