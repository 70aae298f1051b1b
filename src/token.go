package cloudy

import (
	"fmt"
	"strconv"
)

// TokenKind identifies the lexical class of a token
type TokenKind int

const (
	TokInt TokenKind = iota
	TokFloat
	TokBool
	TokString
	TokIdentifier
	TokKeyword
	TokEq
	TokPlus
	TokMinus
	TokMult
	TokDiv
	TokFDiv
	TokModu
	TokPow
	TokLSquare
	TokRSquare
	TokLPar
	TokRPar
	TokLCurly
	TokRCurly
	TokEE
	TokNE
	TokLT
	TokGT
	TokLTE
	TokGTE
	TokComma
	TokNewline
	TokEOF
	TokColon
	TokSpace
	TokIn
	TokNotIn
	TokRange
	TokBang
	TokQMark
)

var tokenKindNames = [...]string{
	TokInt:        "INT",
	TokFloat:      "FLOAT",
	TokBool:       "BOOL",
	TokString:     "STRING",
	TokIdentifier: "IDENTIFIER",
	TokKeyword:    "KEYWORD",
	TokEq:         "EQ",
	TokPlus:       "PLUS",
	TokMinus:      "MINUS",
	TokMult:       "MULT",
	TokDiv:        "DIV",
	TokFDiv:       "FDIV",
	TokModu:       "MODU",
	TokPow:        "POW",
	TokLSquare:    "LSQUARE",
	TokRSquare:    "RSQUARE",
	TokLPar:       "LPAR",
	TokRPar:       "RPAR",
	TokLCurly:     "LCURLY",
	TokRCurly:     "RCURLY",
	TokEE:         "EE",
	TokNE:         "NE",
	TokLT:         "LT",
	TokGT:         "GT",
	TokLTE:        "LTE",
	TokGTE:        "GTE",
	TokComma:      "COMMA",
	TokNewline:    "NEWLINE",
	TokEOF:        "EOF",
	TokColon:      "COLON",
	TokSpace:      "SPACE",
	TokIn:         "IN",
	TokNotIn:      "NOT_IN",
	TokRange:      "RANGE",
	TokBang:       "BANG",
	TokQMark:      "QMARK",
}

// String returns the upper-case kind name
func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// symbols for tokens that carry no value
var tokenSymbols = map[TokenKind]string{
	TokEq:      "=",
	TokPlus:    "+",
	TokMinus:   "-",
	TokMult:    "*",
	TokDiv:     "/",
	TokFDiv:    "//",
	TokModu:    "%",
	TokPow:     "**",
	TokLSquare: "[",
	TokRSquare: "]",
	TokLPar:    "(",
	TokRPar:    ")",
	TokLCurly:  "{",
	TokRCurly:  "}",
	TokEE:      "==",
	TokNE:      "!=",
	TokLT:      "<",
	TokGT:      ">",
	TokLTE:     "<=",
	TokGTE:     ">=",
	TokComma:   ",",
	TokColon:   ":",
	TokIn:      "->",
	TokNotIn:   "!->",
	TokRange:   "..",
	TokBang:    "!",
	TokQMark:   "?",
}

// Keywords is the closed keyword set
var Keywords = map[string]bool{
	"and":      true,
	"or":       true,
	"not":      true,
	"if":       true,
	"elif":     true,
	"else":     true,
	"for":      true,
	"to":       true,
	"step":     true,
	"while":    true,
	"func":     true,
	"break":    true,
	"continue": true,
	"return":   true,
	"del":      true,
}

// Token is a lexical unit with its source span.
// Value holds int64, float64, bool or string depending on Kind; SPACE carries its width as int.
type Token struct {
	Kind  TokenKind
	Value interface{}
	Start Position
	End   Position
}

// newToken creates a token; a zero-width span is widened to one character
func newToken(kind TokenKind, value interface{}, start Position, end *Position) Token {
	tok := Token{Kind: kind, Value: value, Start: start, End: start.Next()}
	if end != nil {
		tok.End = *end
	}
	return tok
}

// Matches reports whether the token has the given kind and value
func (t Token) Matches(kind TokenKind, value interface{}) bool {
	return t.Kind == kind && t.Value == value
}

// IsKeyword reports whether the token is the named keyword
func (t Token) IsKeyword(name string) bool {
	return t.Matches(TokKeyword, name)
}

// Name returns the string value of identifier and keyword tokens
func (t Token) Name() string {
	s, _ := t.Value.(string)
	return s
}

// Width returns the indentation width carried by a SPACE token
func (t Token) Width() int {
	n, _ := t.Value.(int)
	return n
}

// Text renders the token the way it appeared in source, used by syntax errors
func (t Token) Text() string {
	if sym, ok := tokenSymbols[t.Kind]; ok {
		return sym
	}
	switch v := t.Value.(type) {
	case nil:
		return t.Kind.String()
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		if t.Kind == TokSpace {
			return fmt.Sprintf("%*s", v, "")
		}
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%v", t.Value)
}

// String formats the token for debug dumps, e.g. INT:42 or PLUS
func (t Token) String() string {
	if t.Value == nil {
		return t.Kind.String()
	}
	if t.Kind == TokString {
		return fmt.Sprintf("%s:%q", t.Kind, t.Value)
	}
	return fmt.Sprintf("%s:%s", t.Kind, t.Text())
}
