package cloudy

// Node is a parsed syntax form. The set of implementations is closed and
// every node's span is fixed when it is constructed.
type Node interface {
	Start() Position
	End() Position
	node()
}

type span struct {
	start Position
	end   Position
}

func (s span) Start() Position { return s.start }
func (s span) End() Position   { return s.end }
func (span) node()             {}

func tokenSpan(tok Token) span { return span{tok.Start, tok.End} }

// NumberLiteral is an INT or FLOAT token
type NumberLiteral struct {
	span
	Tok Token
}

// BoolLiteral is true or false
type BoolLiteral struct {
	span
	Tok Token
}

// StringLiteral is a quoted string
type StringLiteral struct {
	span
	Tok Token
}

// ListLiteral is [a, b, ...]
type ListLiteral struct {
	span
	Elements []Node
}

// DictPair is one key: value entry of a dictionary literal
type DictPair struct {
	Key   Node
	Value Node
}

// DictLiteral is {k: v, ...}. It parses but has no evaluation rule.
type DictLiteral struct {
	span
	Pairs []DictPair
}

// VarAccess reads a variable
type VarAccess struct {
	span
	Name Token
}

// VarAssign binds a variable in the current scope
type VarAssign struct {
	span
	Name  Token
	Value Node
}

// IndexAccess is data[index]
type IndexAccess struct {
	span
	Data  Node
	Index Node
}

// IndexAssign is name[index] = value
type IndexAssign struct {
	span
	Name  Token
	Index Node
	Value Node
}

// BinaryOp is left op right
type BinaryOp struct {
	span
	Left  Node
	Op    Token
	Right Node
}

// UnaryOp is a prefix operator applied to one operand
type UnaryOp struct {
	span
	Op      Token
	Operand Node
}

// IfCase is one if/elif branch
type IfCase struct {
	Condition Node
	Body      Node
	IsBlock   bool // block bodies evaluate to null
}

// ElseCase is the trailing else branch
type ElseCase struct {
	Body    Node
	IsBlock bool
}

// If is an if/elif/else chain
type If struct {
	span
	Cases []IfCase
	Else  *ElseCase
}

// For is for var = start to end [step s]: body
type For struct {
	span
	Var     Token
	From    Node
	To      Node
	Step    Node // nil means 1
	Body    Node
	IsBlock bool
}

// While is while cond: body
type While struct {
	span
	Condition Node
	Body      Node
	IsBlock   bool
}

// FuncDef defines a named or anonymous function
type FuncDef struct {
	span
	Name       *Token // nil when anonymous
	Params     []Token
	Body       Node
	AutoReturn bool
}

// Call is callee(args...)
type Call struct {
	span
	Callee Node
	Args   []Node
}

// Return leaves the enclosing function
type Return struct {
	span
	Value Node // may be nil
}

// Break leaves the enclosing loop
type Break struct {
	span
}

// Continue skips to the next loop iteration
type Continue struct {
	span
}

// Delete is del name
type Delete struct {
	span
	Name Token
}

// Block is a sequence of statements
type Block struct {
	span
	Statements []Node
}

func newNumberLiteral(tok Token) *NumberLiteral {
	return &NumberLiteral{span: tokenSpan(tok), Tok: tok}
}

func newBoolLiteral(tok Token) *BoolLiteral {
	return &BoolLiteral{span: tokenSpan(tok), Tok: tok}
}

func newStringLiteral(tok Token) *StringLiteral {
	return &StringLiteral{span: tokenSpan(tok), Tok: tok}
}

func newListLiteral(elements []Node, start, end Position) *ListLiteral {
	return &ListLiteral{span: span{start, end}, Elements: elements}
}

func newDictLiteral(pairs []DictPair, start, end Position) *DictLiteral {
	return &DictLiteral{span: span{start, end}, Pairs: pairs}
}

func newVarAccess(name Token) *VarAccess {
	return &VarAccess{span: tokenSpan(name), Name: name}
}

func newVarAssign(name Token, value Node) *VarAssign {
	return &VarAssign{span: span{name.Start, value.End()}, Name: name, Value: value}
}

func newIndexAccess(data, index Node, end Position) *IndexAccess {
	return &IndexAccess{span: span{data.Start(), end}, Data: data, Index: index}
}

func newIndexAssign(name Token, index, value Node) *IndexAssign {
	return &IndexAssign{span: span{name.Start, value.End()}, Name: name, Index: index, Value: value}
}

func newBinaryOp(left Node, op Token, right Node) *BinaryOp {
	return &BinaryOp{span: span{left.Start(), right.End()}, Left: left, Op: op, Right: right}
}

func newUnaryOp(op Token, operand Node) *UnaryOp {
	return &UnaryOp{span: span{op.Start, operand.End()}, Op: op, Operand: operand}
}

func newIf(start Position, cases []IfCase, elseCase *ElseCase) *If {
	end := cases[len(cases)-1].Body.End()
	if elseCase != nil {
		end = elseCase.Body.End()
	}
	return &If{span: span{start, end}, Cases: cases, Else: elseCase}
}

func newFor(keyword, name Token, from, to, step, body Node, isBlock bool) *For {
	return &For{
		span:    span{keyword.Start, body.End()},
		Var:     name,
		From:    from,
		To:      to,
		Step:    step,
		Body:    body,
		IsBlock: isBlock,
	}
}

func newWhile(keyword Token, condition, body Node, isBlock bool) *While {
	return &While{span: span{keyword.Start, body.End()}, Condition: condition, Body: body, IsBlock: isBlock}
}

func newFuncDef(keyword Token, name *Token, params []Token, body Node, autoReturn bool) *FuncDef {
	return &FuncDef{
		span:       span{keyword.Start, body.End()},
		Name:       name,
		Params:     params,
		Body:       body,
		AutoReturn: autoReturn,
	}
}

func newCall(callee Node, args []Node, end Position) *Call {
	return &Call{span: span{callee.Start(), end}, Callee: callee, Args: args}
}

func newReturn(keyword Token, value Node) *Return {
	s := tokenSpan(keyword)
	if value != nil {
		s.end = value.End()
	}
	return &Return{span: s, Value: value}
}

func newBreak(tok Token) *Break { return &Break{span: tokenSpan(tok)} }

func newContinue(tok Token) *Continue { return &Continue{span: tokenSpan(tok)} }

func newDelete(keyword, name Token) *Delete {
	return &Delete{span: span{keyword.Start, name.End}, Name: name}
}

func newBlock(statements []Node, start, end Position) *Block {
	return &Block{span: span{start, end}, Statements: statements}
}
