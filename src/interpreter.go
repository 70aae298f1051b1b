package cloudy

import "fmt"

// Evaluate runs one node in ctx. Dispatch is a closed switch over node kinds.
func (in *Interpreter) Evaluate(node Node, ctx *Context) EvalResult {
	switch n := node.(type) {
	case *NumberLiteral:
		return in.evalNumber(n, ctx)
	case *BoolLiteral:
		v, _ := n.Tok.Value.(bool)
		return normal(NewBool(v).SetPos(n.Start(), n.End()).SetContext(ctx))
	case *StringLiteral:
		return normal(NewString(n.Tok.Name()).SetPos(n.Start(), n.End()).SetContext(ctx))
	case *ListLiteral:
		return in.evalList(n, ctx)
	case *DictLiteral:
		return failed(NewRuntimeError(n.Start(), n.End(), "Dictionary literals are not supported", ctx))
	case *VarAccess:
		return in.evalVarAccess(n, ctx)
	case *VarAssign:
		return in.evalVarAssign(n, ctx)
	case *IndexAccess:
		return in.evalIndexAccess(n, ctx)
	case *IndexAssign:
		return in.evalIndexAssign(n, ctx)
	case *BinaryOp:
		return in.evalBinaryOp(n, ctx)
	case *UnaryOp:
		return in.evalUnaryOp(n, ctx)
	case *If:
		return in.evalIf(n, ctx)
	case *For:
		return in.evalFor(n, ctx)
	case *While:
		return in.evalWhile(n, ctx)
	case *FuncDef:
		return in.evalFuncDef(n, ctx)
	case *Call:
		return in.evalCall(n, ctx)
	case *Return:
		return in.evalReturn(n, ctx)
	case *Break:
		return EvalResult{Kind: ResultBreak, Origin: n}
	case *Continue:
		return EvalResult{Kind: ResultContinue, Origin: n}
	case *Delete:
		return in.evalDelete(n, ctx)
	case *Block:
		values, res := in.evalStatements(n, ctx)
		if res.ShouldStop() {
			return res
		}
		return normal(NewList(values).SetPos(n.Start(), n.End()).SetContext(ctx))
	case nil:
		return normal(NewNull().SetContext(ctx))
	}
	return failed(NewRuntimeError(node.Start(), node.End(), fmt.Sprintf("No evaluation rule for %T", node), ctx))
}

// evalStatements evaluates a block in order, stopping at the first signal
func (in *Interpreter) evalStatements(block *Block, ctx *Context) ([]Value, EvalResult) {
	values := make([]Value, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		res := in.Evaluate(stmt, ctx)
		if res.ShouldStop() {
			return values, res
		}
		values = append(values, res.Value)
	}
	return values, normal(nil)
}

func (in *Interpreter) evalNumber(n *NumberLiteral, ctx *Context) EvalResult {
	var v *Number
	switch t := n.Tok.Value.(type) {
	case int64:
		v = NewInt(t)
	case float64:
		v = NewFloat(t)
	default:
		return failed(NewRuntimeError(n.Start(), n.End(), "Malformed number literal", ctx))
	}
	return normal(v.SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalList(n *ListLiteral, ctx *Context) EvalResult {
	elems := make([]Value, 0, len(n.Elements))
	for _, e := range n.Elements {
		res := in.Evaluate(e, ctx)
		if res.ShouldStop() {
			return res
		}
		elems = append(elems, res.Value)
	}
	return normal(NewList(elems).SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalVarAccess(n *VarAccess, ctx *Context) EvalResult {
	name := n.Name.Name()
	v, ok := ctx.Env.Get(name)
	if !ok {
		return failed(NewRuntimeError(n.Start(), n.End(), fmt.Sprintf("'%s' is not defined", name), ctx))
	}
	in.logger.TraceCat(CatScope, "get %s = %s", name, v.Repr())
	return normal(v.Copy().SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalVarAssign(n *VarAssign, ctx *Context) EvalResult {
	res := in.Evaluate(n.Value, ctx)
	if res.ShouldStop() {
		return res
	}
	name := n.Name.Name()
	ctx.Env.Set(name, res.Value.Copy())
	in.logger.TraceCat(CatScope, "set %s = %s", name, res.Value.Repr())
	return normal(res.Value)
}

func (in *Interpreter) evalIndexAccess(n *IndexAccess, ctx *Context) EvalResult {
	data := in.Evaluate(n.Data, ctx)
	if data.ShouldStop() {
		return data
	}
	index := in.Evaluate(n.Index, ctx)
	if index.ShouldStop() {
		return index
	}
	v, err := indexValue(data.Value, index.Value, ctx)
	if err != nil {
		return failed(err)
	}
	return normal(v.SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalIndexAssign(n *IndexAssign, ctx *Context) EvalResult {
	name := n.Name.Name()
	target, ok := ctx.Env.Get(name)
	if !ok {
		return failed(NewRuntimeError(n.Name.Start, n.Name.End, fmt.Sprintf("'%s' is not defined", name), ctx))
	}
	list, ok := target.(*List)
	if !ok {
		return failed(NewRuntimeError(n.Name.Start, n.Name.End,
			fmt.Sprintf("Type '%s' does not support item assignment", displayType(target)), ctx))
	}

	index := in.Evaluate(n.Index, ctx)
	if index.ShouldStop() {
		return index
	}
	value := in.Evaluate(n.Value, ctx)
	if value.ShouldStop() {
		return value
	}

	i, err := normalizeIndex(index.Value, list.Len(), ctx)
	if err != nil {
		return failed(err)
	}
	if i < 0 {
		return failed(outOfRange(index.Value, "list", ctx))
	}
	list.SetAt(i, value.Value.Copy())
	return normal(value.Value)
}

func (in *Interpreter) evalBinaryOp(n *BinaryOp, ctx *Context) EvalResult {
	left := in.Evaluate(n.Left, ctx)
	if left.ShouldStop() {
		return left
	}
	right := in.Evaluate(n.Right, ctx)
	if right.ShouldStop() {
		return right
	}
	v, err := binaryOperation(n.Op, left.Value, right.Value, ctx)
	if err != nil {
		return failed(err)
	}
	return normal(v.SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalUnaryOp(n *UnaryOp, ctx *Context) EvalResult {
	operand := in.Evaluate(n.Operand, ctx)
	if operand.ShouldStop() {
		return operand
	}
	v, err := unaryOperation(n.Op, operand.Value, ctx)
	if err != nil {
		return failed(err)
	}
	return normal(v.SetPos(n.Start(), n.End()).SetContext(ctx))
}

// branchResult replaces a block body's value with null
func branchResult(res EvalResult, isBlock bool, ctx *Context) EvalResult {
	if res.ShouldStop() || !isBlock {
		return res
	}
	return normal(NewNull().SetContext(ctx))
}

func (in *Interpreter) evalIf(n *If, ctx *Context) EvalResult {
	for _, c := range n.Cases {
		cond := in.Evaluate(c.Condition, ctx)
		if cond.ShouldStop() {
			return cond
		}
		if cond.Value.IsTrue() {
			return branchResult(in.Evaluate(c.Body, ctx), c.IsBlock, ctx)
		}
	}
	if n.Else != nil {
		return branchResult(in.Evaluate(n.Else.Body, ctx), n.Else.IsBlock, ctx)
	}
	return normal(NewNull().SetPos(n.Start(), n.End()).SetContext(ctx))
}

// loopBound evaluates a for-loop bound that must be numeric
func (in *Interpreter) loopBound(node Node, ctx *Context) (numeric, EvalResult) {
	res := in.Evaluate(node, ctx)
	if res.ShouldStop() {
		return numeric{}, res
	}
	n, ok := asNumeric(res.Value)
	if !ok {
		return numeric{}, failed(NewRuntimeError(node.Start(), node.End(),
			fmt.Sprintf("Loop bounds must be numbers, not '%s'", displayType(res.Value)), ctx))
	}
	return n, res
}

func (in *Interpreter) evalFor(n *For, ctx *Context) EvalResult {
	from, res := in.loopBound(n.From, ctx)
	if res.ShouldStop() {
		return res
	}
	to, res := in.loopBound(n.To, ctx)
	if res.ShouldStop() {
		return res
	}
	step := numeric{i: 1}
	if n.Step != nil {
		step, res = in.loopBound(n.Step, ctx)
		if res.ShouldStop() {
			return res
		}
	}

	name := n.Var.Name()
	ascending := step.float() >= 0
	var elems []Value

	for i := from; ; {
		if ascending && compare(i, to) >= 0 || !ascending && compare(i, to) <= 0 {
			break
		}
		ctx.Env.Set(name, i.value().SetPos(n.Var.Start, n.Var.End).SetContext(ctx))
		i = numericAdd(i, step)

		body := in.Evaluate(n.Body, ctx)
		if body.Kind == ResultBreak {
			break
		}
		if body.Kind == ResultContinue {
			continue
		}
		if body.ShouldStop() {
			return body
		}
		elems = append(elems, body.Value)
	}

	if n.IsBlock {
		return normal(NewNull().SetPos(n.Start(), n.End()).SetContext(ctx))
	}
	return normal(NewList(elems).SetPos(n.Start(), n.End()).SetContext(ctx))
}

func numericAdd(a, b numeric) numeric {
	if !a.isFloat && !b.isFloat {
		return numeric{i: a.i + b.i}
	}
	return numeric{isFloat: true, f: a.float() + b.float()}
}

func (in *Interpreter) evalWhile(n *While, ctx *Context) EvalResult {
	var elems []Value
	for {
		cond := in.Evaluate(n.Condition, ctx)
		if cond.ShouldStop() {
			return cond
		}
		if !cond.Value.IsTrue() {
			break
		}

		body := in.Evaluate(n.Body, ctx)
		if body.Kind == ResultBreak {
			break
		}
		if body.Kind == ResultContinue {
			continue
		}
		if body.ShouldStop() {
			return body
		}
		elems = append(elems, body.Value)
	}

	if n.IsBlock {
		return normal(NewNull().SetPos(n.Start(), n.End()).SetContext(ctx))
	}
	return normal(NewList(elems).SetPos(n.Start(), n.End()).SetContext(ctx))
}

func (in *Interpreter) evalFuncDef(n *FuncDef, ctx *Context) EvalResult {
	fn := &Function{
		Body:       n.Body,
		AutoReturn: n.AutoReturn,
		Env:        ctx.Env,
	}
	for _, p := range n.Params {
		fn.Params = append(fn.Params, p.Name())
	}
	if n.Name != nil {
		fn.Name = n.Name.Name()
	}
	fn.SetPos(n.Start(), n.End())
	fn.SetContext(ctx)

	if fn.Name != "" {
		ctx.Env.Set(fn.Name, fn.Copy())
		in.logger.TraceCat(CatScope, "define function %s(%d)", fn.Name, len(fn.Params))
	}
	return normal(fn)
}

func (in *Interpreter) evalCall(n *Call, ctx *Context) EvalResult {
	callee := in.Evaluate(n.Callee, ctx)
	if callee.ShouldStop() {
		return callee
	}
	fn := callee.Value.Copy().SetPos(n.Start(), n.End()).SetContext(ctx)

	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		res := in.Evaluate(a, ctx)
		if res.ShouldStop() {
			return res
		}
		args = append(args, res.Value)
	}

	var res EvalResult
	switch f := fn.(type) {
	case *Function:
		res = in.callFunction(f, args, n, ctx)
	case *BuiltinFunction:
		res = in.callBuiltin(f, args, n, ctx)
	default:
		return failed(NewRuntimeError(n.Callee.Start(), n.Callee.End(),
			fmt.Sprintf("Type '%s' is not callable", displayType(fn)), ctx))
	}
	if res.ShouldStop() {
		return res
	}
	return normal(res.Value.Copy().SetPos(n.Start(), n.End()).SetContext(ctx))
}

// bindArgs checks arity and binds each argument in the call frame
func bindArgs(name string, params []string, args []Value, call Node, caller, frame *Context) *Error {
	if len(args) > len(params) {
		return NewRuntimeError(call.Start(), call.End(),
			fmt.Sprintf("%d too many args passed into '%s'", len(args)-len(params), name), caller)
	}
	if len(args) < len(params) {
		return NewRuntimeError(call.Start(), call.End(),
			fmt.Sprintf("%d too few args passed into '%s'", len(params)-len(args), name), caller)
	}
	for i, param := range params {
		frame.Env.Set(param, args[i].Copy().SetContext(frame))
	}
	return nil
}

func (in *Interpreter) callFunction(f *Function, args []Value, call *Call, caller *Context) EvalResult {
	frame := NewContext(f.DisplayName(), caller, call.Start(), NewEnvironment(f.Env))
	if err := bindArgs(f.DisplayName(), f.Params, args, call, caller, frame); err != nil {
		return failed(err)
	}
	in.logger.DebugAt(CatEval, call.Start(), "call %s with %d args (depth %d)", f.DisplayName(), len(args), frame.Depth())

	body := in.Evaluate(f.Body, frame)
	switch body.Kind {
	case ResultError:
		return body
	case ResultBreak, ResultContinue:
		return failed(strayLoopSignal(body, frame))
	case ResultReturn:
		if body.Value == nil {
			return normal(NewNull())
		}
		return normal(body.Value)
	}
	if f.AutoReturn && body.Value != nil {
		return normal(body.Value)
	}
	return normal(NewNull())
}

// strayLoopSignal reports break or continue that escaped every loop
func strayLoopSignal(res EvalResult, ctx *Context) *Error {
	word := "break"
	if res.Kind == ResultContinue {
		word = "continue"
	}
	start, end := res.Origin.Start(), res.Origin.End()
	return NewRuntimeError(start, end, fmt.Sprintf("'%s' outside loop", word), ctx)
}

func (in *Interpreter) evalReturn(n *Return, ctx *Context) EvalResult {
	if n.Value == nil {
		return returned(NewNull().SetPos(n.Start(), n.End()).SetContext(ctx))
	}
	res := in.Evaluate(n.Value, ctx)
	if res.ShouldStop() {
		return res
	}
	return returned(res.Value)
}

func (in *Interpreter) evalDelete(n *Delete, ctx *Context) EvalResult {
	name := n.Name.Name()
	if !ctx.Env.Remove(name) {
		return failed(NewRuntimeError(n.Name.Start, n.Name.End, fmt.Sprintf("'%s' is not defined", name), ctx))
	}
	in.logger.TraceCat(CatScope, "delete %s", name)
	return normal(NewNull().SetPos(n.Start(), n.End()).SetContext(ctx))
}
