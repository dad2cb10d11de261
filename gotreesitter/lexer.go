package gotreesitter

import "unicode/utf8"

// Point is a row/column position in source text. Columns count runes.
type Point struct {
	Row    uint32
	Column uint32
}

// Position is a byte offset paired with its row/column point.
type Position struct {
	Byte  uint32
	Point Point
}

// Token is a lexed token with position info.
type Token struct {
	Symbol     Symbol
	Text       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// End returns the position just past the token.
func (t Token) End() Position {
	return Position{Byte: t.EndByte, Point: t.EndPoint}
}

// IsEOF reports whether t is the end-of-input token.
func (t Token) IsEOF() bool {
	return t.Symbol == 0 && t.StartByte == t.EndByte
}

// StaticLexer produces tokens from the grammar's static lexical rules. The
// scan driver falls back to it whenever the external scanner declines.
// Next returns a zero-Symbol, zero-width token at EOF.
type StaticLexer interface {
	Seek(pos Position)
	Next(lexState uint16) Token
}

// advancePoint moves pt past rune r.
func advancePoint(pt Point, r rune) Point {
	if r == '\n' {
		return Point{Row: pt.Row + 1}
	}
	return Point{Row: pt.Row, Column: pt.Column + 1}
}

// PositionAt returns the position of byte offset in source. Offsets past the
// end clamp to the end; an offset inside a multi-byte rune rounds down to the
// rune start.
func PositionAt(source []byte, offset uint32) Position {
	var pt Point
	pos := 0
	for pos < len(source) {
		r, size := utf8.DecodeRune(source[pos:])
		if pos+size > int(offset) {
			break
		}
		pos += size
		pt = advancePoint(pt, r)
	}
	return Position{Byte: uint32(pos), Point: pt}
}

// Lexer tokenizes source text using a table-driven DFA.
type Lexer struct {
	states []LexState
	source []byte
	pos    int
	point  Point
}

// NewLexer creates a new Lexer that will tokenize source using the given
// DFA state table.
func NewLexer(states []LexState, source []byte) *Lexer {
	return &Lexer{
		states: states,
		source: source,
	}
}

// Seek moves the lexer to pos. Positions past the end clamp to EOF.
func (l *Lexer) Seek(pos Position) {
	l.pos = int(pos.Byte)
	if l.pos > len(l.source) {
		l.pos = len(l.source)
	}
	l.point = pos.Point
}

// Position returns the lexer's current position.
func (l *Lexer) Position() Position {
	return Position{Byte: uint32(l.pos), Point: l.point}
}

// Next lexes the next token starting from the given lex state index.
// Tokens from Skip states (whitespace) are dropped, and a rune no state
// accepts is skipped as error recovery.
func (l *Lexer) Next(startState uint16) Token {
	for {
		if l.pos >= len(l.source) {
			return Token{
				StartByte:  uint32(l.pos),
				EndByte:    uint32(l.pos),
				StartPoint: l.point,
				EndPoint:   l.point,
			}
		}
		if int(startState) >= len(l.states) {
			l.skipRune()
			continue
		}

		start, startPoint := l.pos, l.point
		tok, skip, ok := l.run(int(startState))
		switch {
		case !ok:
			l.skipRune()
		case skip:
			// Zero-width skip matches would loop forever.
			if l.pos <= start {
				l.skipRune()
			}
		default:
			tok.StartByte = uint32(start)
			tok.StartPoint = startPoint
			return tok
		}
	}
}

// run walks the DFA from the current position using longest match. On
// success the lexer is left at the accept position.
func (l *Lexer) run(state int) (tok Token, skip bool, ok bool) {
	pos, pt := l.pos, l.point
	acceptPos := -1
	var acceptPoint Point
	var acceptSym Symbol

	accept := func(st *LexState) {
		if st.AcceptToken > 0 || st.Skip {
			acceptPos, acceptPoint = pos, pt
			acceptSym, skip = st.AcceptToken, st.Skip
		}
	}
	accept(&l.states[state])

	for pos < len(l.source) {
		r, size := utf8.DecodeRune(l.source[pos:])
		st := &l.states[state]
		next := st.Default
		for i := range st.Transitions {
			tr := &st.Transitions[i]
			if r >= tr.Lo && r <= tr.Hi {
				next = tr.NextState
				break
			}
		}
		if next < 0 || next >= len(l.states) {
			break
		}
		pos += size
		pt = advancePoint(pt, r)
		state = next
		accept(&l.states[state])
	}

	if acceptPos < 0 {
		return Token{}, false, false
	}
	start := l.pos
	l.pos, l.point = acceptPos, acceptPoint
	if skip {
		return Token{}, true, true
	}
	return Token{
		Symbol:   acceptSym,
		Text:     string(l.source[start:acceptPos]),
		EndByte:  uint32(acceptPos),
		EndPoint: acceptPoint,
	}, false, true
}

func (l *Lexer) skipRune() {
	if l.pos >= len(l.source) {
		return
	}
	r, size := utf8.DecodeRune(l.source[l.pos:])
	l.pos += size
	l.point = advancePoint(l.point, r)
}
