package cloudy

import "fmt"

// parseResult carries a node or an error plus how many tokens were consumed
type parseResult struct {
	node             Node
	err              *Error
	advanceCount     int
	lastAdvanceCount int
}

func (r *parseResult) registerAdvancement() {
	r.lastAdvanceCount = 1
	r.advanceCount++
}

// register absorbs a sub-result's progress and error
func (r *parseResult) register(other *parseResult) Node {
	r.lastAdvanceCount = other.advanceCount
	r.advanceCount += other.advanceCount
	if other.err != nil {
		r.err = other.err
	}
	return other.node
}

func (r *parseResult) success(node Node) *parseResult {
	r.node = node
	return r
}

// failure records err unless a deeper error is already present.
// An existing error is kept when the last registered step consumed tokens.
func (r *parseResult) failure(err *Error) *parseResult {
	if r.err == nil || r.lastAdvanceCount == 0 {
		r.err = err
	}
	return r
}

// cursor is a parser snapshot for speculative parsing
type cursor struct {
	idx         int
	indentLevel int
}

// Parser builds an AST from tokens by recursive descent
type Parser struct {
	tokens      []Token
	idx         int
	indentLevel int
	abandoned   *Error // last statement failure treated as end of block
}

// NewParser creates a parser; a missing trailing EOF is added
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokEOF {
		var pos Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].End
		}
		tokens = append(tokens, newToken(TokEOF, nil, pos, nil))
	}
	return &Parser{tokens: tokens}
}

func (p *Parser) cur() Token {
	return p.tokens[p.idx]
}

func (p *Parser) peek() Token {
	if p.idx+1 < len(p.tokens) {
		return p.tokens[p.idx+1]
	}
	return p.tokens[len(p.tokens)-1]
}

// advance consumes the current token and counts it against res
func (p *Parser) advance(res *parseResult) {
	res.registerAdvancement()
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
}

func (p *Parser) mark() cursor {
	return cursor{idx: p.idx, indentLevel: p.indentLevel}
}

func (p *Parser) reset(c cursor) {
	p.idx = c.idx
	p.indentLevel = c.indentLevel
}

// Parse consumes the whole token stream and returns the program block
func (p *Parser) Parse() (Node, *Error) {
	if tok := p.cur(); tok.Kind == TokSpace {
		return nil, syntaxError(tok, "Unexpected indent.")
	}
	res := p.statements(false)
	if res.err != nil {
		return nil, res.err
	}
	if tok := p.cur(); tok.Kind != TokEOF {
		if p.abandoned != nil && p.abandoned.Start.Index == tok.Start.Index {
			return nil, p.abandoned
		}
		return nil, syntaxError(tok, `Expected "+", "-", "*" or "/".`)
	}
	return res.node, nil
}

// Parse lexes and parses text from the named source
func Parse(filename, text string) (Node, error) {
	tokens, lexErr := NewLexer(filename, text).Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}
	node, parseErr := NewParser(tokens).Parse()
	if parseErr != nil {
		return nil, parseErr
	}
	return node, nil
}

// statements parses a statement sequence. A nested block must open with a
// SPACE token deeper than the current indent level and ends at the first
// line indented at or below the enclosing level.
func (p *Parser) statements(nested bool) *parseResult {
	res := &parseResult{}
	start := p.cur().Start

	for p.cur().Kind == TokNewline {
		p.advance(res)
	}

	if tok := p.cur(); tok.Kind == TokEOF {
		if nested {
			return res.failure(syntaxError(tok, "Expected indent"))
		}
		return res.success(newBlock(nil, start, tok.End))
	}

	localIndent := 0
	if tok := p.cur(); nested {
		if tok.Kind != TokSpace || tok.Width() <= p.indentLevel {
			return res.failure(syntaxError(tok, "Expected indent"))
		}
		localIndent = tok.Width() - p.indentLevel
		p.indentLevel += localIndent
		defer func() { p.indentLevel -= localIndent }()
		p.advance(res)
	} else if tok.Kind == TokSpace {
		return res.failure(syntaxError(tok, "Unexpected indent."))
	}

	first := res.register(p.statement())
	if res.err != nil {
		return res
	}
	stmts := []Node{first}

	for {
		more, dedent := false, false
		var lastNewline cursor

		for p.cur().Kind == TokNewline && !more && !dedent {
			lastNewline = p.mark()
			p.advance(res)

			switch tok := p.cur(); {
			case tok.Kind == TokSpace && nested:
				if tok.Width() <= p.indentLevel-localIndent {
					dedent = true
				} else if tok.Width() != p.indentLevel {
					return res.failure(syntaxError(tok, "Uneven indent."))
				} else {
					more = true
				}
			case tok.Kind == TokSpace:
				return res.failure(syntaxError(tok, "Unexpected indent."))
			case tok.Kind == TokNewline, tok.Kind == TokEOF:
			case nested:
				dedent = true
			default:
				more = true
			}
		}

		if dedent {
			// leave the separator for the enclosing construct
			p.reset(lastNewline)
		}
		if !more {
			break
		}

		if p.cur().Kind == TokSpace {
			p.advance(res)
		}

		m := p.mark()
		stmtRes := p.statement()
		if stmtRes.err != nil {
			if stmtRes.advanceCount == 0 {
				p.abandoned = stmtRes.err
				p.reset(m)
				break
			}
			res.register(stmtRes)
			return res
		}
		stmts = append(stmts, res.register(stmtRes))
	}

	return res.success(newBlock(stmts, start, stmts[len(stmts)-1].End()))
}

// statement parses keyword statements, falling back to assignments and expressions
func (p *Parser) statement() *parseResult {
	res := &parseResult{}
	tok := p.cur()

	if tok.Kind == TokKeyword {
		switch tok.Name() {
		case "return":
			p.advance(res)
			m := p.mark()
			valueRes := p.expr()
			var value Node
			if valueRes.err != nil {
				if valueRes.advanceCount > 0 {
					res.register(valueRes)
					return res
				}
				p.reset(m)
			} else {
				value = res.register(valueRes)
			}
			return res.success(newReturn(tok, value))

		case "continue":
			p.advance(res)
			return res.success(newContinue(tok))

		case "break":
			p.advance(res)
			return res.success(newBreak(tok))

		case "del":
			p.advance(res)
			name := p.cur()
			if name.Kind != TokIdentifier {
				return res.failure(syntaxError(name, "Expected identifier"))
			}
			p.advance(res)
			return res.success(newDelete(tok, name))

		case "if":
			return p.ifExpr()
		case "for":
			return p.forExpr()
		case "while":
			return p.whileExpr()
		}
	}

	return p.assignment()
}

// assignment handles name = value and name[index] = value, else an expression
func (p *Parser) assignment() *parseResult {
	res := &parseResult{}
	tok := p.cur()

	if tok.Kind == TokIdentifier {
		switch p.peek().Kind {
		case TokEq:
			p.advance(res)
			p.advance(res)
			value := res.register(p.assignment())
			if res.err != nil {
				return res
			}
			return res.success(newVarAssign(tok, value))

		case TokLSquare:
			m := p.mark()
			probe := &parseResult{}
			p.advance(probe)
			p.advance(probe)
			index := probe.register(p.arithExpr())
			if probe.err == nil && p.cur().Kind == TokRSquare && p.peek().Kind == TokEq {
				p.advance(probe)
				p.advance(probe)
				res.register(probe)
				value := res.register(p.assignment())
				if res.err != nil {
					return res
				}
				return res.success(newIndexAssign(tok, index, value))
			}
			// not an assignment after all
			p.reset(m)
		}
	}

	return p.expr()
}

func kinds(ks ...TokenKind) func(Token) bool {
	return func(t Token) bool {
		for _, k := range ks {
			if t.Kind == k {
				return true
			}
		}
		return false
	}
}

func keywords(words ...string) func(Token) bool {
	return func(t Token) bool {
		for _, w := range words {
			if t.IsKeyword(w) {
				return true
			}
		}
		return false
	}
}

// binOp folds left-associative chains of operators matched by isOp
func (p *Parser) binOp(left func() *parseResult, isOp func(Token) bool, right func() *parseResult) *parseResult {
	res := &parseResult{}
	node := res.register(left())
	if res.err != nil {
		return res
	}

	for isOp(p.cur()) {
		op := p.cur()
		p.advance(res)
		rhs := res.register(right())
		if res.err != nil {
			return res
		}
		node = newBinaryOp(node, op, rhs)
	}
	return res.success(node)
}

func (p *Parser) expr() *parseResult {
	return p.binOp(p.compExpr, keywords("and", "or"), p.compExpr)
}

func (p *Parser) compExpr() *parseResult {
	if tok := p.cur(); tok.IsKeyword("not") {
		res := &parseResult{}
		p.advance(res)
		operand := res.register(p.compExpr())
		if res.err != nil {
			return res
		}
		return res.success(newUnaryOp(tok, operand))
	}
	return p.binOp(p.arithExpr, kinds(TokEE, TokNE, TokLT, TokGT, TokLTE, TokGTE), p.arithExpr)
}

func (p *Parser) arithExpr() *parseResult {
	return p.binOp(p.term, kinds(TokPlus, TokMinus), p.term)
}

func (p *Parser) term() *parseResult {
	return p.binOp(p.factor, kinds(TokMult, TokDiv, TokFDiv, TokModu), p.factor)
}

func (p *Parser) factor() *parseResult {
	if tok := p.cur(); tok.Kind == TokPlus || tok.Kind == TokMinus {
		res := &parseResult{}
		p.advance(res)
		operand := res.register(p.factor())
		if res.err != nil {
			return res
		}
		return res.success(newUnaryOp(tok, operand))
	}
	return p.power()
}

// power is right-associative: the right side recurses into factor
func (p *Parser) power() *parseResult {
	return p.binOp(p.call, kinds(TokPow), p.factor)
}

func (p *Parser) call() *parseResult {
	res := &parseResult{}
	node := res.register(p.index())
	if res.err != nil {
		return res
	}

	for p.cur().Kind == TokLPar {
		p.advance(res)
		var args []Node

		if p.cur().Kind != TokRPar {
			args = append(args, res.register(p.expr()))
			if res.err != nil {
				return res.failure(syntaxError(p.cur(), "Expected expression"))
			}
			for p.cur().Kind == TokComma {
				p.advance(res)
				args = append(args, res.register(p.expr()))
				if res.err != nil {
					return res
				}
			}
		}

		if p.cur().Kind != TokRPar {
			return res.failure(syntaxError(p.cur(), "Expected ')' or ','"))
		}
		end := p.cur().End
		p.advance(res)
		node = newCall(node, args, end)
	}
	return res.success(node)
}

func (p *Parser) index() *parseResult {
	res := &parseResult{}
	node := res.register(p.atom())
	if res.err != nil {
		return res
	}

	for p.cur().Kind == TokLSquare {
		p.advance(res)
		idx := res.register(p.arithExpr())
		if res.err != nil {
			return res
		}
		if p.cur().Kind != TokRSquare {
			return res.failure(syntaxError(p.cur(), "Expected ']'"))
		}
		end := p.cur().End
		p.advance(res)
		node = newIndexAccess(node, idx, end)
	}
	return res.success(node)
}

func (p *Parser) atom() *parseResult {
	res := &parseResult{}
	tok := p.cur()

	switch {
	case tok.Kind == TokInt || tok.Kind == TokFloat:
		p.advance(res)
		return res.success(newNumberLiteral(tok))
	case tok.Kind == TokString:
		p.advance(res)
		return res.success(newStringLiteral(tok))
	case tok.Kind == TokBool:
		p.advance(res)
		return res.success(newBoolLiteral(tok))
	case tok.Kind == TokIdentifier:
		p.advance(res)
		return res.success(newVarAccess(tok))
	case tok.Kind == TokLPar:
		p.advance(res)
		inner := res.register(p.expr())
		if res.err != nil {
			return res
		}
		if p.cur().Kind != TokRPar {
			return res.failure(syntaxError(p.cur(), "Expected ')'"))
		}
		p.advance(res)
		return res.success(inner)
	case tok.Kind == TokLSquare:
		return p.listExpr()
	case tok.Kind == TokLCurly:
		return p.dictExpr()
	case tok.IsKeyword("func"):
		return p.funcDef()
	}

	return res.failure(syntaxError(tok, fmt.Sprintf("Unexpected '%s'", tok.Text())))
}

func (p *Parser) listExpr() *parseResult {
	res := &parseResult{}
	start := p.cur().Start
	p.advance(res)
	var elements []Node

	if p.cur().Kind != TokRSquare {
		elements = append(elements, res.register(p.expr()))
		if res.err != nil {
			return res
		}
		for p.cur().Kind == TokComma {
			p.advance(res)
			elements = append(elements, res.register(p.expr()))
			if res.err != nil {
				return res
			}
		}
	}

	if p.cur().Kind != TokRSquare {
		return res.failure(syntaxError(p.cur(), "Expected ']' or ','"))
	}
	end := p.cur().End
	p.advance(res)
	return res.success(newListLiteral(elements, start, end))
}

func (p *Parser) dictExpr() *parseResult {
	res := &parseResult{}
	start := p.cur().Start
	p.advance(res)
	var pairs []DictPair

	parsePair := func() bool {
		key := res.register(p.expr())
		if res.err != nil {
			return false
		}
		if p.cur().Kind != TokColon {
			res.failure(syntaxError(p.cur(), "Expected ':'"))
			return false
		}
		p.advance(res)
		value := res.register(p.expr())
		if res.err != nil {
			return false
		}
		pairs = append(pairs, DictPair{Key: key, Value: value})
		return true
	}

	if p.cur().Kind != TokRCurly {
		if !parsePair() {
			return res
		}
		for p.cur().Kind == TokComma {
			p.advance(res)
			if !parsePair() {
				return res
			}
		}
	}

	if p.cur().Kind != TokRCurly {
		return res.failure(syntaxError(p.cur(), "Expected '}' or ','"))
	}
	end := p.cur().End
	p.advance(res)
	return res.success(newDictLiteral(pairs, start, end))
}

// expectColon consumes the ':' that opens a clause body
func (p *Parser) expectColon(res *parseResult) bool {
	if p.cur().Kind != TokColon {
		res.failure(syntaxError(p.cur(), "Expected ':'"))
		return false
	}
	p.advance(res)
	return true
}

// clauseBody parses what follows ':', either one statement on the same line
// or a newline and an indented block
func (p *Parser) clauseBody(res *parseResult) (Node, bool) {
	if p.cur().Kind == TokNewline {
		p.advance(res)
		return res.register(p.statements(true)), true
	}
	return res.register(p.statement()), false
}

// chainContinues reports whether an elif or else follows, either on the same
// line as an inline body or on a later line at the current indent level. The
// cursor is left on that keyword, or restored when the chain ends. A keyword
// left directly after a block body sat at the body's indent and is rejected.
func (p *Parser) chainContinues(res *parseResult, afterBlock bool) bool {
	if tok := p.cur(); tok.IsKeyword("elif") || tok.IsKeyword("else") {
		if afterBlock {
			res.failure(syntaxError(tok, fmt.Sprintf("Unexpected '%s'", tok.Name())))
			return false
		}
		return true
	}

	m := p.mark()
	for p.cur().Kind == TokNewline {
		p.advance(res)
	}
	aligned := p.indentLevel == 0
	if tok := p.cur(); tok.Kind == TokSpace && p.indentLevel > 0 && tok.Width() == p.indentLevel {
		aligned = true
		p.advance(res)
	}
	if tok := p.cur(); aligned && (tok.IsKeyword("elif") || tok.IsKeyword("else")) {
		return true
	}
	p.reset(m)
	return false
}

func (p *Parser) ifExpr() *parseResult {
	res := &parseResult{}
	start := p.cur().Start
	var cases []IfCase
	var elseCase *ElseCase

	keyword := "if"
	for {
		if !p.cur().IsKeyword(keyword) {
			return res.failure(syntaxError(p.cur(), fmt.Sprintf("Expected '%s'", keyword)))
		}
		p.advance(res)

		condition := res.register(p.expr())
		if res.err != nil {
			return res
		}
		if !p.expectColon(res) {
			return res
		}
		body, isBlock := p.clauseBody(res)
		if res.err != nil {
			return res
		}
		cases = append(cases, IfCase{Condition: condition, Body: body, IsBlock: isBlock})

		if !p.chainContinues(res, isBlock) {
			if res.err != nil {
				return res
			}
			break
		}
		if p.cur().IsKeyword("else") {
			p.advance(res)
			if !p.expectColon(res) {
				return res
			}
			body, isBlock := p.clauseBody(res)
			if res.err != nil {
				return res
			}
			elseCase = &ElseCase{Body: body, IsBlock: isBlock}
			break
		}
		keyword = "elif"
	}

	return res.success(newIf(start, cases, elseCase))
}

func (p *Parser) forExpr() *parseResult {
	res := &parseResult{}
	keyword := p.cur()
	p.advance(res)

	name := p.cur()
	if name.Kind != TokIdentifier {
		return res.failure(syntaxError(name, "Expected identifier"))
	}
	p.advance(res)

	if p.cur().Kind != TokEq {
		return res.failure(syntaxError(p.cur(), "Expected '='"))
	}
	p.advance(res)

	from := res.register(p.expr())
	if res.err != nil {
		return res
	}

	if !p.cur().IsKeyword("to") {
		return res.failure(syntaxError(p.cur(), "Expected 'to'"))
	}
	p.advance(res)

	to := res.register(p.expr())
	if res.err != nil {
		return res
	}

	var step Node
	if p.cur().IsKeyword("step") {
		p.advance(res)
		step = res.register(p.expr())
		if res.err != nil {
			return res
		}
	}

	if !p.expectColon(res) {
		return res
	}
	body, isBlock := p.clauseBody(res)
	if res.err != nil {
		return res
	}
	return res.success(newFor(keyword, name, from, to, step, body, isBlock))
}

func (p *Parser) whileExpr() *parseResult {
	res := &parseResult{}
	keyword := p.cur()
	p.advance(res)

	condition := res.register(p.expr())
	if res.err != nil {
		return res
	}
	if !p.expectColon(res) {
		return res
	}
	body, isBlock := p.clauseBody(res)
	if res.err != nil {
		return res
	}
	return res.success(newWhile(keyword, condition, body, isBlock))
}

// funcDef parses func [name](params): expr or a block body
func (p *Parser) funcDef() *parseResult {
	res := &parseResult{}
	keyword := p.cur()
	p.advance(res)

	var name *Token
	if tok := p.cur(); tok.Kind == TokIdentifier {
		name = &tok
		p.advance(res)
		if p.cur().Kind != TokLPar {
			return res.failure(syntaxError(p.cur(), "Expected '('"))
		}
	} else if tok.Kind != TokLPar {
		return res.failure(syntaxError(tok, "Expected identifier or '('"))
	}
	p.advance(res)

	var params []Token
	if tok := p.cur(); tok.Kind == TokIdentifier {
		params = append(params, tok)
		p.advance(res)
		for p.cur().Kind == TokComma {
			p.advance(res)
			if p.cur().Kind != TokIdentifier {
				return res.failure(syntaxError(p.cur(), "Expected identifier"))
			}
			params = append(params, p.cur())
			p.advance(res)
		}
		if p.cur().Kind != TokRPar {
			return res.failure(syntaxError(p.cur(), "Expected ',' or ')'"))
		}
	} else if tok.Kind != TokRPar {
		return res.failure(syntaxError(tok, "Expected identifier or ')'"))
	}
	p.advance(res)

	if !p.expectColon(res) {
		return res
	}

	if p.cur().Kind == TokNewline {
		p.advance(res)
		body := res.register(p.statements(true))
		if res.err != nil {
			return res
		}
		return res.success(newFuncDef(keyword, name, params, body, false))
	}

	body := res.register(p.expr())
	if res.err != nil {
		return res
	}
	return res.success(newFuncDef(keyword, name, params, body, true))
}
