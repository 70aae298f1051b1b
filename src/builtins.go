package cloudy

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// maxRunDepth bounds nested run() calls
const maxRunDepth = 64

// BuiltinHandler implements a native function. Returning a nil Value yields null.
// A returned *Error is raised as is; any other error becomes an RTError at the call site.
type BuiltinHandler func(call *CallContext) (Value, error)

// builtinDef is a registered native function
type builtinDef struct {
	name    string
	params  []string
	handler BuiltinHandler
}

// BuiltinRegistry holds the native functions seeded into every global scope
type BuiltinRegistry struct {
	mu   sync.RWMutex
	defs map[string]*builtinDef
}

// NewBuiltinRegistry creates an empty registry
func NewBuiltinRegistry() *BuiltinRegistry {
	return &BuiltinRegistry{defs: make(map[string]*builtinDef)}
}

// Register adds or replaces a builtin
func (r *BuiltinRegistry) Register(name string, params []string, handler BuiltinHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = &builtinDef{name: name, params: append([]string(nil), params...), handler: handler}
}

// Lookup returns the named builtin as a value
func (r *BuiltinRegistry) Lookup(name string) (*BuiltinFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, false
	}
	return &BuiltinFunction{def: def}, true
}

// Names returns the registered names in sorted order
func (r *BuiltinRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// all returns every definition sorted by name
func (r *BuiltinRegistry) all() []*builtinDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*builtinDef, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// CallContext is what a builtin handler sees of its invocation
type CallContext struct {
	Name  string
	Args  []Value
	frame *Context
	call  *Call
	in    *Interpreter
}

// Arg returns the argument bound to a declared parameter
func (c *CallContext) Arg(name string) Value {
	v, ok := c.frame.Env.Get(name)
	if !ok {
		return NewNull()
	}
	return v
}

// Start returns the start of the call expression
func (c *CallContext) Start() Position { return c.call.Start() }

// End returns the end of the call expression
func (c *CallContext) End() Position { return c.call.End() }

// Context returns the builtin's own frame
func (c *CallContext) Context() *Context { return c.frame }

// Errorf creates an RTError spanning the call expression
func (c *CallContext) Errorf(format string, args ...interface{}) *Error {
	return NewRuntimeError(c.Start(), c.End(), fmt.Sprintf(format, args...), c.frame)
}

// Stdout returns the configured output writer
func (c *CallContext) Stdout() io.Writer { return c.in.config.Stdout }

// ReadLine reads one line from the configured input without its terminator
func (c *CallContext) ReadLine() (string, error) {
	line, err := c.in.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Interpreter returns the interpreter running the call
func (c *CallContext) Interpreter() *Interpreter { return c.in }

func (in *Interpreter) callBuiltin(f *BuiltinFunction, args []Value, call *Call, caller *Context) EvalResult {
	frame := NewContext(f.Name(), caller, call.Start(), NewEnvironment(nil))
	if err := bindArgs(f.Name(), f.Params(), args, call, caller, frame); err != nil {
		return failed(err)
	}
	in.logger.DebugCat(CatBuiltin, "%s(%d args)", f.Name(), len(args))

	cc := &CallContext{Name: f.Name(), Args: args, frame: frame, call: call, in: in}
	v, err := f.def.handler(cc)
	if err != nil {
		var langErr *Error
		switch {
		case !errors.As(err, &langErr):
			return failed(cc.Errorf("%s", err.Error()).WithCause(err))
		case langErr != nil:
			return failed(langErr)
		}
		// a nil *Error stored in the error interface is not a failure
	}
	if v == nil {
		v = NewNull()
	}
	return normal(v)
}

// registerStandardBuiltins installs the native library
func (in *Interpreter) registerStandardBuiltins() {
	value := []string{"value"}

	in.builtins.Register("print", value, func(c *CallContext) (Value, error) {
		_, err := fmt.Fprintln(c.Stdout(), c.Arg("value").String())
		return nil, errors.Wrap(err, "print")
	})

	in.builtins.Register("print_ret", value, func(c *CallContext) (Value, error) {
		return NewString(c.Arg("value").String()), nil
	})

	in.builtins.Register("input", nil, func(c *CallContext) (Value, error) {
		fmt.Fprint(c.Stdout(), "> ")
		line, err := c.ReadLine()
		if err != nil {
			return nil, c.Errorf("Failed to read input").WithCause(err)
		}
		return NewString(line), nil
	})

	in.builtins.Register("input_int", nil, func(c *CallContext) (Value, error) {
		for {
			line, err := c.ReadLine()
			if err != nil {
				return nil, c.Errorf("Failed to read input").WithCause(err)
			}
			n, convErr := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
			if convErr == nil {
				return NewInt(n), nil
			}
			fmt.Fprintf(c.Stdout(), "'%s' must be an integer. Try again!\n", line)
		}
	})

	in.builtins.Register("clear", nil, func(c *CallContext) (Value, error) {
		_, err := io.WriteString(c.Stdout(), ANSIClearScreen())
		return nil, errors.Wrap(err, "clear")
	})

	isKind := func(name string, match func(Value) bool) {
		in.builtins.Register(name, value, func(c *CallContext) (Value, error) {
			return NewBool(match(c.Arg("value"))), nil
		})
	}
	isKind("is_number", func(v Value) bool { _, ok := v.(*Number); return ok })
	isKind("is_string", func(v Value) bool { _, ok := v.(*String); return ok })
	isKind("is_bool", func(v Value) bool { _, ok := v.(*Bool); return ok })
	isKind("is_list", func(v Value) bool { _, ok := v.(*List); return ok })
	isKind("is_function", func(v Value) bool {
		switch v.(type) {
		case *Function, *BuiltinFunction:
			return true
		}
		return false
	})

	in.builtins.Register("append", []string{"list", "value"}, func(c *CallContext) (Value, error) {
		list, ok := c.Arg("list").(*List)
		if !ok {
			return nil, c.Errorf("First argument must be a list.")
		}
		list.Append(c.Arg("value"))
		return nil, nil
	})

	in.builtins.Register("pop", []string{"list", "index"}, func(c *CallContext) (Value, error) {
		list, ok := c.Arg("list").(*List)
		if !ok {
			return nil, c.Errorf("First argument must be a list.")
		}
		index, ok := c.Arg("index").(*Number)
		if !ok || !index.IsIntegral() {
			return nil, c.Errorf("Second argument must be an integer.")
		}
		i := index.Int()
		if i < 0 {
			i += int64(list.Len())
		}
		if i < 0 || i >= int64(list.Len()) {
			return nil, c.Errorf("Index is out of range.")
		}
		return list.Pop(int(i)), nil
	})

	in.builtins.Register("extend", []string{"list1", "list2"}, func(c *CallContext) (Value, error) {
		list1, ok1 := c.Arg("list1").(*List)
		list2, ok2 := c.Arg("list2").(*List)
		if !ok1 || !ok2 {
			return nil, c.Errorf("Both arguments must be lists")
		}
		list1.Extend(list2)
		return nil, nil
	})

	in.builtins.Register("len", []string{"list"}, func(c *CallContext) (Value, error) {
		switch v := c.Arg("list").(type) {
		case *List:
			return NewInt(int64(v.Len())), nil
		case *String:
			return NewInt(int64(utf8.RuneCountInString(v.Text()))), nil
		}
		return nil, c.Errorf("Argument must be a list")
	})

	in.builtins.Register("type", []string{"obj"}, func(c *CallContext) (Value, error) {
		return NewString(c.Arg("obj").TypeName()), nil
	})

	in.builtins.Register("run", []string{"fn"}, in.runBuiltin)
}

// runBuiltin executes another script file with its own global scope
func (in *Interpreter) runBuiltin(c *CallContext) (Value, error) {
	fn, ok := c.Arg("fn").(*String)
	if !ok {
		return nil, c.Errorf("Argument must be string")
	}
	name := fn.Text()

	if in.runDepth >= maxRunDepth {
		return nil, c.Errorf("Failed to finish executing script \"%s\".\nMaximum script nesting depth exceeded", name)
	}

	program, err := in.cache.Program(in.resolvePath(name), in.parseSource)
	if err != nil {
		var langErr *Error
		if errors.As(err, &langErr) {
			return nil, c.Errorf("Failed to finish executing script \"%s\".\n%s", name, langErr.Error()).WithCause(err)
		}
		return nil, c.Errorf("Failed to load script \"%s\"\n%s", name, err.Error()).WithCause(err)
	}

	in.runDepth++
	defer func() { in.runDepth-- }()

	in.logger.DebugCat(CatIO, "run %s", name)
	if _, runErr := in.execute(program, in.NewGlobalContext()); runErr != nil {
		return nil, c.Errorf("Failed to finish executing script \"%s\".\n%s", name, runErr.Error()).WithCause(runErr)
	}
	return nil, nil
}
