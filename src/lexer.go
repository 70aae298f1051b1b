package cloudy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// single-character tokens
var singleCharTokens = map[byte]TokenKind{
	'+': TokPlus,
	'%': TokModu,
	'(': TokLPar,
	')': TokRPar,
	'[': TokLSquare,
	']': TokRSquare,
	'{': TokLCurly,
	'}': TokRCurly,
	',': TokComma,
	':': TokColon,
	'?': TokQMark,
}

// Lexer turns source text into tokens
type Lexer struct {
	text    string
	pos     Position
	current byte
	atEnd   bool
}

// NewLexer creates a lexer over text; filename is used in diagnostics
func NewLexer(filename, text string) *Lexer {
	l := &Lexer{text: text, pos: NewPosition(filename, text)}
	l.load()
	return l
}

// advance moves to the next character
func (l *Lexer) advance() {
	l.pos = l.pos.Advance(l.current)
	l.load()
}

func (l *Lexer) load() {
	if l.pos.Index < len(l.text) {
		l.current = l.text[l.pos.Index]
		l.atEnd = false
		return
	}
	l.current = 0
	l.atEnd = true
}

// peek returns the character after the current one
func (l *Lexer) peek() byte {
	if l.pos.Index+1 < len(l.text) {
		return l.text[l.pos.Index+1]
	}
	return 0
}

// Tokenize scans the whole text. On error no tokens are returned.
func (l *Lexer) Tokenize() ([]Token, *Error) {
	var tokens []Token
	lineStart := true

	for !l.atEnd {
		c := l.current

		if lineStart && c == ' ' {
			if tok, ok := l.makeIndent(); ok {
				tokens = append(tokens, tok)
			}
			lineStart = false
			continue
		}
		lineStart = false

		switch {
		case c == '\n':
			tokens = append(tokens, newToken(TokNewline, nil, l.pos, nil))
			l.advance()
			lineStart = true
		case c == ' ' || c == '\t' || c == '\r':
			l.advance()
		case isDigit(c):
			tokens = append(tokens, l.makeNumber())
		case isLetter(c):
			tokens = append(tokens, l.makeIdentifier())
		case c == '"':
			tok, err := l.makeString()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case c == '!':
			tok, err := l.makeNotEquals()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case c == '=':
			tokens = append(tokens, l.makeDoubleCharToken(TokEq, '=', TokEE))
		case c == '<':
			tokens = append(tokens, l.makeDoubleCharToken(TokLT, '=', TokLTE))
		case c == '>':
			tokens = append(tokens, l.makeDoubleCharToken(TokGT, '=', TokGTE))
		case c == '*':
			tokens = append(tokens, l.makeDoubleCharToken(TokMult, '*', TokPow))
		case c == '/':
			tokens = append(tokens, l.makeDoubleCharToken(TokDiv, '/', TokFDiv))
		case c == '-':
			tokens = append(tokens, l.makeDoubleCharToken(TokMinus, '>', TokIn))
		case c == '.' && l.peek() == '.':
			tokens = append(tokens, l.makeDoubleCharToken(TokRange, '.', TokRange))
		default:
			kind, ok := singleCharTokens[c]
			if !ok {
				return nil, l.illegalChar()
			}
			tokens = append(tokens, newToken(kind, nil, l.pos, nil))
			l.advance()
		}
	}

	tokens = append(tokens, newToken(TokEOF, nil, l.pos, nil))
	return tokens, nil
}

// makeIndent measures the leading spaces of a line. Blank lines yield no token.
func (l *Lexer) makeIndent() (Token, bool) {
	start := l.pos
	count := 0
	for !l.atEnd && l.current == ' ' {
		count++
		l.advance()
	}
	rest := l.text[l.pos.Index:]
	rest = strings.TrimLeft(rest, " \t\r")
	if rest == "" || rest[0] == '\n' {
		return Token{}, false
	}
	end := l.pos
	return newToken(TokSpace, count, start, &end), true
}

// makeNumber reads digits with at most one decimal point
func (l *Lexer) makeNumber() Token {
	start := l.pos
	var b strings.Builder
	dots := 0
	for !l.atEnd && (isDigit(l.current) || l.current == '.') {
		if l.current == '.' {
			if dots == 1 {
				break
			}
			dots++
		}
		b.WriteByte(l.current)
		l.advance()
	}
	end := l.pos
	text := b.String()

	if dots == 0 {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return newToken(TokInt, v, start, &end)
		}
	}
	v, _ := strconv.ParseFloat(text, 64)
	return newToken(TokFloat, v, start, &end)
}

// makeIdentifier reads an identifier, keyword or boolean literal
func (l *Lexer) makeIdentifier() Token {
	start := l.pos
	var b strings.Builder
	for !l.atEnd && (isLetter(l.current) || isDigit(l.current)) {
		b.WriteByte(l.current)
		l.advance()
	}
	end := l.pos
	word := b.String()

	switch {
	case word == "true" || word == "false":
		return newToken(TokBool, word == "true", start, &end)
	case Keywords[word]:
		return newToken(TokKeyword, word, start, &end)
	}
	return newToken(TokIdentifier, word, start, &end)
}

// makeString reads a double-quoted string, expanding \n and \t
func (l *Lexer) makeString() (Token, *Error) {
	start := l.pos
	var b strings.Builder
	escaped := false
	l.advance()

	for !l.atEnd && (l.current != '"' || escaped) {
		switch {
		case escaped:
			switch l.current {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(l.current)
			}
			escaped = false
		case l.current == '\\':
			escaped = true
		default:
			b.WriteByte(l.current)
		}
		l.advance()
	}

	if l.atEnd {
		return Token{}, newError(ExpectedCharError, start, l.pos, `'"'`)
	}
	l.advance()
	end := l.pos
	return newToken(TokString, b.String(), start, &end), nil
}

// makeNotEquals requires '=' after '!'
func (l *Lexer) makeNotEquals() (Token, *Error) {
	start := l.pos
	l.advance()
	if !l.atEnd && l.current == '=' {
		l.advance()
		end := l.pos
		return newToken(TokNE, nil, start, &end), nil
	}
	return Token{}, newError(ExpectedCharError, start, l.pos, "'=' (after '!')")
}

// makeDoubleCharToken emits long when the next character is next, else short
func (l *Lexer) makeDoubleCharToken(short TokenKind, next byte, long TokenKind) Token {
	start := l.pos
	kind := short
	l.advance()
	if !l.atEnd && l.current == next {
		kind = long
		l.advance()
	}
	end := l.pos
	return newToken(kind, nil, start, &end)
}

func (l *Lexer) illegalChar() *Error {
	start := l.pos
	r, size := utf8.DecodeRuneInString(l.text[l.pos.Index:])
	for i := 0; i < size; i++ {
		l.advance()
	}
	return newError(IllegalCharError, start, l.pos, fmt.Sprintf("%q", string(r)))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

// Tokenize lexes text from the named source
func Tokenize(filename, text string) ([]Token, error) {
	tokens, err := NewLexer(filename, text).Tokenize()
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
