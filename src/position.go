package cloudy

// Position tracks a location inside one source text
type Position struct {
	Index    int
	Line     int
	Column   int
	Filename string
	Text     string
}

// NewPosition creates a position at the start of the given text
func NewPosition(filename, text string) Position {
	return Position{Index: 0, Line: 0, Column: 0, Filename: filename, Text: text}
}

// Advance moves the position past the character current.
// A newline moves to column 0 of the next line.
func (p Position) Advance(current byte) Position {
	p.Index++
	p.Column++
	if current == '\n' {
		p.Line++
		p.Column = 0
	}
	return p
}

// Next advances past whatever character sits at the current index
func (p Position) Next() Position {
	var ch byte
	if p.Index >= 0 && p.Index < len(p.Text) {
		ch = p.Text[p.Index]
	}
	return p.Advance(ch)
}
