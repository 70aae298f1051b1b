package cloudy

import (
	"math"
	"strings"
)

// maxStringLen bounds strings built by repetition
const maxStringLen = 1 << 30

// numeric is a Number or Bool widened for arithmetic
type numeric struct {
	isFloat bool
	i       int64
	f       float64
}

func (n numeric) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n numeric) isZero() bool {
	return n.float() == 0
}

func (n numeric) value() *Number {
	if n.isFloat {
		return NewFloat(n.f)
	}
	return NewInt(n.i)
}

// asNumeric coerces Number and Bool; booleans count as 0 and 1
func asNumeric(v Value) (numeric, bool) {
	switch t := v.(type) {
	case *Number:
		return numeric{isFloat: t.isFloat, i: t.i, f: t.f}, true
	case *Bool:
		if t.v {
			return numeric{i: 1}, true
		}
		return numeric{}, true
	}
	return numeric{}, false
}

func illegalOperation(left, right Value, ctx *Context) *Error {
	return NewRuntimeError(left.Start(), right.End(), "Illegal operation", ctx)
}

// binaryOperation applies op to left and right. Exactly one of the results is non-nil.
func binaryOperation(op Token, left, right Value, ctx *Context) (Value, *Error) {
	switch {
	case op.IsKeyword("and"), op.IsKeyword("or"):
		return logicalOperation(op, left, right, ctx)
	case op.Kind == TokEE, op.Kind == TokNE:
		return equalityOperation(op, left, right, ctx)
	}

	if ls, ok := left.(*String); ok {
		return stringOperation(op, ls, right, ctx)
	}

	l, lok := asNumeric(left)
	r, rok := asNumeric(right)
	if !lok || !rok {
		return nil, illegalOperation(left, right, ctx)
	}

	switch op.Kind {
	case TokPlus:
		return arith(l, r, addInt, func(a, b float64) float64 { return a + b }), nil
	case TokMinus:
		return arith(l, r, subInt, func(a, b float64) float64 { return a - b }), nil
	case TokMult:
		return arith(l, r, mulInt, func(a, b float64) float64 { return a * b }), nil
	case TokDiv:
		if r.isZero() {
			return nil, NewRuntimeError(right.Start(), right.End(), "Division by zero", ctx)
		}
		return NewFloat(l.float() / r.float()), nil
	case TokFDiv:
		if r.isZero() {
			return nil, NewRuntimeError(right.Start(), right.End(), "Division by zero", ctx)
		}
		return arith(l, r, floorDiv, func(a, b float64) float64 { return math.Floor(a / b) }), nil
	case TokModu:
		if r.isZero() {
			return nil, NewRuntimeError(right.Start(), right.End(), "Modulo by zero", ctx)
		}
		return arith(l, r, floorMod, floatMod), nil
	case TokPow:
		return power(l, r, left, right, ctx)
	case TokLT:
		return NewBool(compare(l, r) < 0), nil
	case TokGT:
		return NewBool(compare(l, r) > 0), nil
	case TokLTE:
		return NewBool(compare(l, r) <= 0), nil
	case TokGTE:
		return NewBool(compare(l, r) >= 0), nil
	}
	return nil, illegalOperation(left, right, ctx)
}

// arith keeps integer results when both operands are integers.
// An integer result that does not fit in int64 becomes a float.
func arith(l, r numeric, ints func(a, b int64) (int64, bool), floats func(a, b float64) float64) *Number {
	if !l.isFloat && !r.isFloat {
		if v, ok := ints(l.i, r.i); ok {
			return NewInt(v)
		}
	}
	return NewFloat(floats(l.float(), r.float()))
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func subInt(a, b int64) (int64, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return 0, false
	}
	return d, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// floorDiv rounds toward negative infinity
func floorDiv(a, b int64) (int64, bool) {
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, true
}

// floorMod takes the sign of the divisor
func floorMod(a, b int64) (int64, bool) {
	if b == -1 {
		return 0, true
	}
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m, true
}

func floatMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func power(l, r numeric, left, right Value, ctx *Context) (Value, *Error) {
	if l.isZero() && r.float() < 0 {
		return nil, NewRuntimeError(right.Start(), right.End(), "Division by zero", ctx)
	}
	if !l.isFloat && !r.isFloat && r.i >= 0 {
		if v, ok := powInt(l.i, r.i); ok {
			return NewInt(v), nil
		}
	}
	return NewFloat(math.Pow(l.float(), r.float())), nil
}

// powInt is exponentiation by squaring; ok is false on int64 overflow
func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for {
		if exp&1 == 1 {
			var ok bool
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp == 0 {
			return result, true
		}
		var ok bool
		if base, ok = mulInt(base, base); !ok {
			return 0, false
		}
	}
}

func compare(l, r numeric) int {
	if !l.isFloat && !r.isFloat {
		switch {
		case l.i < r.i:
			return -1
		case l.i > r.i:
			return 1
		}
		return 0
	}
	a, b := l.float(), r.float()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func stringOperation(op Token, left *String, right Value, ctx *Context) (Value, *Error) {
	switch op.Kind {
	case TokPlus:
		if rs, ok := right.(*String); ok {
			return NewString(left.v + rs.v), nil
		}
	case TokMult:
		if n, ok := asNumeric(right); ok && (!n.isFloat || n.f == math.Trunc(n.f)) {
			return repeatString(left, n, right, ctx)
		}
	}
	return nil, illegalOperation(left, right, ctx)
}

// repeatString is s * n; counts below one give the empty string
func repeatString(left *String, n numeric, right Value, ctx *Context) (Value, *Error) {
	if n.float() < 1 || left.v == "" {
		return NewString(""), nil
	}
	if n.float() > float64(maxStringLen/len(left.v)) {
		return nil, NewRuntimeError(right.Start(), right.End(), "Repeat count too large", ctx)
	}
	count := int(n.i)
	if n.isFloat {
		count = int(n.f)
	}
	return NewString(strings.Repeat(left.v, count)), nil
}

func equalityOperation(op Token, left, right Value, ctx *Context) (Value, *Error) {
	equal, ok := valuesEqual(left, right)
	if !ok {
		return nil, illegalOperation(left, right, ctx)
	}
	if op.Kind == TokNE {
		equal = !equal
	}
	return NewBool(equal), nil
}

// valuesEqual compares values of comparable kinds; ok is false for unsupported pairs
func valuesEqual(left, right Value) (equal bool, ok bool) {
	_, lnull := left.(*Null)
	_, rnull := right.(*Null)
	if lnull || rnull {
		return lnull && rnull, true
	}
	if ls, isStr := left.(*String); isStr {
		rs, rStr := right.(*String)
		if !rStr {
			return false, false
		}
		return ls.v == rs.v, true
	}
	l, lok := asNumeric(left)
	r, rok := asNumeric(right)
	if !lok || !rok {
		return false, false
	}
	return compare(l, r) == 0, true
}

// truthy is defined for the scalar kinds only
func truthy(v Value) (bool, bool) {
	switch v.(type) {
	case *Number, *Bool, *String:
		return v.IsTrue(), true
	}
	return false, false
}

func logicalOperation(op Token, left, right Value, ctx *Context) (Value, *Error) {
	l, lok := truthy(left)
	r, rok := truthy(right)
	if !lok || !rok {
		return nil, illegalOperation(left, right, ctx)
	}
	if op.IsKeyword("and") {
		return NewBool(l && r), nil
	}
	return NewBool(l || r), nil
}

// unaryOperation applies a prefix operator
func unaryOperation(op Token, operand Value, ctx *Context) (Value, *Error) {
	if op.IsKeyword("not") {
		t, ok := truthy(operand)
		if !ok {
			return nil, illegalOperation(operand, operand, ctx)
		}
		return NewBool(!t), nil
	}
	n, ok := asNumeric(operand)
	if !ok {
		return nil, illegalOperation(operand, operand, ctx)
	}
	switch op.Kind {
	case TokMinus:
		if n.isFloat {
			return NewFloat(-n.f), nil
		}
		if n.i == math.MinInt64 {
			return NewFloat(-float64(n.i)), nil
		}
		return NewInt(-n.i), nil
	case TokPlus:
		return n.value(), nil
	}
	return nil, illegalOperation(operand, operand, ctx)
}

// normalizeIndex validates a subscript against length and resolves negative indices
func normalizeIndex(index Value, length int, ctx *Context) (int, *Error) {
	n, ok := index.(*Number)
	if !ok || !n.IsIntegral() {
		return 0, NewRuntimeError(index.Start(), index.End(), "Index can only be of type 'int'", ctx)
	}
	i := n.Int()
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return -1, nil
	}
	return int(i), nil
}

// indexValue implements data[index] for strings and lists
func indexValue(data, index Value, ctx *Context) (Value, *Error) {
	switch d := data.(type) {
	case *String:
		runes := []rune(d.v)
		i, err := normalizeIndex(index, len(runes), ctx)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, outOfRange(index, "string", ctx)
		}
		return NewString(string(runes[i])), nil
	case *List:
		i, err := normalizeIndex(index, d.Len(), ctx)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, outOfRange(index, "list", ctx)
		}
		return d.store.elems[i].Copy(), nil
	}
	return nil, NewRuntimeError(data.Start(), data.End(), "Type '"+displayType(data)+"' is not subscriptable", ctx)
}

func outOfRange(index Value, kind string, ctx *Context) *Error {
	return &Error{Kind: OutOfRangeError, Start: index.Start(), End: index.End(), Details: kind + " index out of range", Context: ctx}
}
