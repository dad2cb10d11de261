package grammars

import (
	"fmt"
	"unicode/utf8"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// sourceCursor tracks byte offset and row/column while scanning source bytes.
type sourceCursor struct {
	src    []byte
	offset int
	row    uint32
	col    uint32
}

func newSourceCursor(src []byte) sourceCursor {
	return sourceCursor{src: src}
}

func (c *sourceCursor) eof() bool {
	return c.offset >= len(c.src)
}

func (c *sourceCursor) point() gotreesitter.Point {
	return gotreesitter.Point{Row: c.row, Column: c.col}
}

func (c *sourceCursor) position() gotreesitter.Position {
	return gotreesitter.Position{Byte: uint32(c.offset), Point: c.point()}
}

func (c *sourceCursor) seek(pos gotreesitter.Position) {
	c.offset = int(pos.Byte)
	if c.offset > len(c.src) {
		c.offset = len(c.src)
	}
	c.row, c.col = pos.Point.Row, pos.Point.Column
}

func (c *sourceCursor) peekByte() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.offset]
}

// peekAt returns the byte n positions ahead, or 0 past the end.
func (c *sourceCursor) peekAt(n int) byte {
	if c.offset+n >= len(c.src) {
		return 0
	}
	return c.src[c.offset+n]
}

func (c *sourceCursor) hasPrefix(s string) bool {
	return len(c.src)-c.offset >= len(s) && string(c.src[c.offset:c.offset+len(s)]) == s
}

func (c *sourceCursor) advanceRune() {
	if c.eof() {
		return
	}
	r, size := utf8.DecodeRune(c.src[c.offset:])
	c.offset += size
	if r == '\n' {
		c.row++
		c.col = 0
		return
	}
	c.col++
}

func (c *sourceCursor) advanceN(n int) {
	for i := 0; i < n && !c.eof(); i++ {
		c.advanceRune()
	}
}

func (c *sourceCursor) skipWhitespace() {
	for !c.eof() {
		switch c.peekByte() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			c.advanceRune()
		default:
			return
		}
	}
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isASCIIWordStart(b byte) bool {
	return isASCIIAlpha(b) || b == '_'
}

func isASCIIWordPart(b byte) bool {
	return isASCIIWordStart(b) || isASCIIDigit(b)
}

func makeToken(sym gotreesitter.Symbol, src []byte, start, end gotreesitter.Position) gotreesitter.Token {
	return gotreesitter.Token{
		Symbol:     sym,
		Text:       string(src[start.Byte:end.Byte]),
		StartByte:  start.Byte,
		EndByte:    end.Byte,
		StartPoint: start.Point,
		EndPoint:   end.Point,
	}
}

type tokenLookup struct {
	lang      *gotreesitter.Language
	lexerName string
	firstErr  error
}

func newTokenLookup(lang *gotreesitter.Language, lexerName string) *tokenLookup {
	return &tokenLookup{lang: lang, lexerName: lexerName}
}

func (tl *tokenLookup) require(name string) gotreesitter.Symbol {
	syms := tl.lang.TokenSymbolsByName(name)
	if len(syms) == 0 {
		if tl.firstErr == nil {
			tl.firstErr = fmt.Errorf("%s lexer: token symbol %q not found", tl.lexerName, name)
		}
		return 0
	}
	return syms[0]
}

func (tl *tokenLookup) err() error {
	return tl.firstErr
}

// eofLexer is the static lexer handed out when a real one cannot be built.
// It reports EOF immediately so callers degrade to an empty token stream.
type eofLexer struct {
	sourceLen uint32
}

func (eofLexer) Seek(gotreesitter.Position) {}

func (l eofLexer) Next(uint16) gotreesitter.Token {
	return gotreesitter.Token{StartByte: l.sourceLen, EndByte: l.sourceLen}
}
