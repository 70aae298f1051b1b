package cloudy

import (
	"math"
	"strconv"
	"strings"
)

// Value is a runtime object. The set of implementations is closed.
type Value interface {
	// TypeName is the lower-case name reported by type()
	TypeName() string
	// String is the display form used by print
	String() string
	// Repr is the form used when nested inside a list
	Repr() string
	// IsTrue reports the value's truthiness
	IsTrue() bool
	// Copy returns a fresh value with the same metadata; lists keep sharing their elements
	Copy() Value

	Start() Position
	End() Position
	Context() *Context
	SetPos(start, end Position) Value
	SetContext(ctx *Context) Value

	value()
}

// valueMeta is the position and context attached to every value
type valueMeta struct {
	start Position
	end   Position
	ctx   *Context
}

func (m *valueMeta) Start() Position   { return m.start }
func (m *valueMeta) End() Position     { return m.end }
func (m *valueMeta) Context() *Context { return m.ctx }
func (*valueMeta) value()              {}

// Number is an integer or float
type Number struct {
	valueMeta
	isFloat bool
	i       int64
	f       float64
}

// NewInt creates an integer Number
func NewInt(v int64) *Number { return &Number{i: v} }

// NewFloat creates a float Number
func NewFloat(v float64) *Number { return &Number{isFloat: true, f: v} }

// IsFloat reports whether the number carries a float
func (n *Number) IsFloat() bool { return n.isFloat }

// Int returns the value truncated to an integer
func (n *Number) Int() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// Float returns the value as a float64
func (n *Number) Float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// IsIntegral reports whether the value has no fractional part
func (n *Number) IsIntegral() bool {
	return !n.isFloat || n.f == math.Trunc(n.f)
}

func (n *Number) TypeName() string { return "number" }
func (n *Number) IsTrue() bool     { return n.Float() != 0 }
func (n *Number) Repr() string     { return n.String() }

func (n *Number) String() string {
	if n.isFloat {
		return formatFloat(n.f)
	}
	return strconv.FormatInt(n.i, 10)
}

func (n *Number) Copy() Value {
	c := *n
	return &c
}

func (n *Number) SetPos(start, end Position) Value {
	n.start, n.end = start, end
	return n
}

func (n *Number) SetContext(ctx *Context) Value {
	n.ctx = ctx
	return n
}

// formatFloat prints floats the way users expect: 2.0, 0.5, 1e+16
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Bool is true or false
type Bool struct {
	valueMeta
	v bool
}

// NewBool creates a Bool
func NewBool(v bool) *Bool { return &Bool{v: v} }

// Bool returns the Go boolean
func (b *Bool) Bool() bool { return b.v }

func (b *Bool) TypeName() string { return "bool" }
func (b *Bool) IsTrue() bool     { return b.v }
func (b *Bool) String() string   { return strconv.FormatBool(b.v) }
func (b *Bool) Repr() string     { return b.String() }

func (b *Bool) Copy() Value {
	c := *b
	return &c
}

func (b *Bool) SetPos(start, end Position) Value {
	b.start, b.end = start, end
	return b
}

func (b *Bool) SetContext(ctx *Context) Value {
	b.ctx = ctx
	return b
}

// String is an immutable text value
type String struct {
	valueMeta
	v string
}

// NewString creates a String
func NewString(v string) *String { return &String{v: v} }

// Text returns the Go string
func (s *String) Text() string { return s.v }

func (s *String) TypeName() string { return "string" }
func (s *String) IsTrue() bool     { return s.v != "" }
func (s *String) String() string   { return s.v }
func (s *String) Repr() string     { return `"` + s.v + `"` }

func (s *String) Copy() Value {
	c := *s
	return &c
}

func (s *String) SetPos(start, end Position) Value {
	s.start, s.end = start, end
	return s
}

func (s *String) SetContext(ctx *Context) Value {
	s.ctx = ctx
	return s
}

// listStore is the element slice shared by every copy of a list
type listStore struct {
	elems []Value
}

// List is a mutable sequence. Copies share the same elements.
type List struct {
	valueMeta
	store *listStore
}

// NewList creates a list holding elems
func NewList(elems []Value) *List {
	return &List{store: &listStore{elems: elems}}
}

// Elements returns the live element slice
func (l *List) Elements() []Value { return l.store.elems }

// Len returns the element count
func (l *List) Len() int { return len(l.store.elems) }

// Append adds a value at the end
func (l *List) Append(v Value) { l.store.elems = append(l.store.elems, v) }

// Extend appends every element of other; extending a list with itself doubles it
func (l *List) Extend(other *List) {
	src := append([]Value(nil), other.store.elems...)
	l.store.elems = append(l.store.elems, src...)
}

// Pop removes and returns the element at a normalized index
func (l *List) Pop(index int) Value {
	v := l.store.elems[index]
	l.store.elems = append(l.store.elems[:index], l.store.elems[index+1:]...)
	return v
}

// SetAt replaces the element at a normalized index
func (l *List) SetAt(index int, v Value) { l.store.elems[index] = v }

func (l *List) TypeName() string { return "list" }
func (l *List) IsTrue() bool     { return len(l.store.elems) > 0 }
func (l *List) Repr() string     { return l.String() }

func (l *List) String() string {
	parts := make([]string, len(l.store.elems))
	for i, e := range l.store.elems {
		parts[i] = e.Repr()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Copy() Value {
	c := *l
	return &c
}

func (l *List) SetPos(start, end Position) Value {
	l.start, l.end = start, end
	return l
}

func (l *List) SetContext(ctx *Context) Value {
	l.ctx = ctx
	return l
}

// Function is a user-defined closure
type Function struct {
	valueMeta
	Name       string // empty for anonymous functions
	Body       Node
	Params     []string
	AutoReturn bool
	Env        *Environment // scope captured at definition
}

// DisplayName is the name shown in tracebacks
func (f *Function) DisplayName() string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

func (f *Function) TypeName() string { return "function" }
func (f *Function) IsTrue() bool     { return true }
func (f *Function) String() string   { return "<function " + f.DisplayName() + ">" }
func (f *Function) Repr() string     { return f.String() }

func (f *Function) Copy() Value {
	c := *f
	return &c
}

func (f *Function) SetPos(start, end Position) Value {
	f.start, f.end = start, end
	return f
}

func (f *Function) SetContext(ctx *Context) Value {
	f.ctx = ctx
	return f
}

// BuiltinFunction is a native function from the builtin registry
type BuiltinFunction struct {
	valueMeta
	def *builtinDef
}

// Name returns the registered name
func (b *BuiltinFunction) Name() string { return b.def.name }

// Params returns the declared parameter names
func (b *BuiltinFunction) Params() []string { return b.def.params }

func (b *BuiltinFunction) TypeName() string { return "builtinfunction" }
func (b *BuiltinFunction) IsTrue() bool     { return true }
func (b *BuiltinFunction) String() string   { return "<built-in function " + b.def.name + ">" }
func (b *BuiltinFunction) Repr() string     { return b.String() }

func (b *BuiltinFunction) Copy() Value {
	c := *b
	return &c
}

func (b *BuiltinFunction) SetPos(start, end Position) Value {
	b.start, b.end = start, end
	return b
}

func (b *BuiltinFunction) SetContext(ctx *Context) Value {
	b.ctx = ctx
	return b
}

// Null is the unit value
type Null struct {
	valueMeta
}

// NewNull creates a Null
func NewNull() *Null { return &Null{} }

func (n *Null) TypeName() string { return "null" }
func (n *Null) IsTrue() bool     { return false }
func (n *Null) String() string   { return "null" }
func (n *Null) Repr() string     { return "null" }

func (n *Null) Copy() Value {
	c := *n
	return &c
}

func (n *Null) SetPos(start, end Position) Value {
	n.start, n.end = start, end
	return n
}

func (n *Null) SetContext(ctx *Context) Value {
	n.ctx = ctx
	return n
}

// displayType is the capitalized type name used in error messages
func displayType(v Value) string {
	switch v.(type) {
	case *Number:
		return "Number"
	case *Bool:
		return "Bool"
	case *String:
		return "String"
	case *List:
		return "List"
	case *Function:
		return "Function"
	case *BuiltinFunction:
		return "BuiltinFunction"
	case *Null:
		return "Null"
	}
	return "Unknown"
}
