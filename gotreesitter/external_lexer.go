package gotreesitter

import "unicode/utf8"

// ExternalLexer is the cursor an external scanner borrows for one Scan call.
// It mirrors the tree-sitter scanner API: lookahead, advance (consuming or
// skipping), mark_end and result_symbol.
//
// Bytes advanced over after the last MarkEnd are lookahead only; they are
// not part of the emitted token. If MarkEnd is never called the token ends
// wherever the cursor stopped.
type ExternalLexer struct {
	source []byte

	startPos int
	pos      int
	endPos   int
	marked   bool

	startPoint Point
	point      Point
	endPoint   Point

	resultSymbol Symbol
	hasResult    bool
}

// NewExternalLexer returns a cursor over source positioned at pos.
func NewExternalLexer(source []byte, pos Position) *ExternalLexer {
	l := &ExternalLexer{source: source}
	l.reset(pos)
	return l
}

func (l *ExternalLexer) reset(pos Position) {
	p := int(pos.Byte)
	if p > len(l.source) {
		p = len(l.source)
	}
	l.startPos, l.pos, l.endPos = p, p, p
	l.startPoint, l.point, l.endPoint = pos.Point, pos.Point, pos.Point
	l.marked = false
	l.resultSymbol = 0
	l.hasResult = false
}

// Lookahead returns the current rune or 0 at EOF.
func (l *ExternalLexer) Lookahead() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.source[l.pos:])
	return r
}

// EOF reports whether the cursor is at the end of input.
func (l *ExternalLexer) EOF() bool {
	return l.pos >= len(l.source)
}

// Advance consumes one rune. When skip is true, consumed bytes are excluded
// from the token span (scanner whitespace skipping behavior).
func (l *ExternalLexer) Advance(skip bool) {
	if l.pos >= len(l.source) {
		return
	}
	r, size := utf8.DecodeRune(l.source[l.pos:])
	l.pos += size
	l.point = advancePoint(l.point, r)

	if skip {
		l.startPos, l.startPoint = l.pos, l.point
		l.endPos, l.endPoint = l.pos, l.point
	}
}

// MarkEnd marks the current scanner position as the token end.
func (l *ExternalLexer) MarkEnd() {
	l.endPos = l.pos
	l.endPoint = l.point
	l.marked = true
}

// SetResultSymbol sets the external token index to emit when Scan returns
// true.
func (l *ExternalLexer) SetResultSymbol(sym Symbol) {
	l.resultSymbol = sym
	l.hasResult = true
}

// Column returns the current column (0-based) at the scanner cursor.
func (l *ExternalLexer) Column() uint32 {
	return l.point.Column
}

// Position returns the cursor position.
func (l *ExternalLexer) Position() Position {
	return Position{Byte: uint32(l.pos), Point: l.point}
}

// token builds the scanned token. The symbol is the raw external index.
func (l *ExternalLexer) token() (Token, bool) {
	if !l.hasResult {
		return Token{}, false
	}
	end, endPoint := l.endPos, l.endPoint
	if !l.marked {
		end, endPoint = l.pos, l.point
	}
	if end < l.startPos {
		return Token{}, false
	}
	return Token{
		Symbol:     l.resultSymbol,
		Text:       string(l.source[l.startPos:end]),
		StartByte:  uint32(l.startPos),
		EndByte:    uint32(end),
		StartPoint: l.startPoint,
		EndPoint:   endPoint,
	}, true
}
