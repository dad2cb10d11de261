package grammars

import (
	"encoding/binary"
	"math"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// External token indexes of the GritQL scanner.
const (
	gritForeignText = iota
	gritForeignOpenBrace
	gritForeignCloseBrace
	gritErrorSentinel
)

const gritMaxForeignDepth = math.MaxUint16

// gritScannerState tracks how many braces are open inside a foreign function
// body. Depth 0 means the next unmatched '}' closes the body itself.
type gritScannerState struct {
	depth uint16
}

// GritQLScanner tokenizes foreign (JavaScript) function bodies:
//
//	function add($a, $b) js { return $a + $b; }
//
// The grammar cannot tell a '}' that closes the body from one nested inside
// the foreign code, so the scanner emits foreign_text runs and brace tokens
// while tracking nesting depth. At depth 0 it declines on '}' and the static
// lexer produces the closing brace.
//
// The serialized state is empty at depth 0 and two big-endian bytes
// otherwise.
type GritQLScanner struct{}

var (
	_ gotreesitter.ExternalScanner         = GritQLScanner{}
	_ gotreesitter.ExternalScannerResetter = GritQLScanner{}
)

func (GritQLScanner) Create() any {
	return &gritScannerState{}
}

func (GritQLScanner) Destroy(payload any) {
	if st, ok := payload.(*gritScannerState); ok {
		st.depth = 0
	}
}

func (GritQLScanner) Reset(payload any) {
	if st, ok := payload.(*gritScannerState); ok {
		st.depth = 0
	}
}

// Serialize writes the depth as two big-endian bytes. The host always hands
// over SerializationBufferSize bytes; a buffer too short for the depth
// records the default state.
func (GritQLScanner) Serialize(payload any, buf []byte) int {
	st, ok := payload.(*gritScannerState)
	if !ok || st.depth == 0 || len(buf) < 2 {
		return 0
	}
	binary.BigEndian.PutUint16(buf, st.depth)
	return 2
}

func (GritQLScanner) Deserialize(payload any, buf []byte) {
	st, ok := payload.(*gritScannerState)
	if !ok {
		return
	}
	st.depth = 0
	if len(buf) == 2 {
		st.depth = binary.BigEndian.Uint16(buf)
	}
}

func (GritQLScanner) Scan(payload any, lexer *gotreesitter.ExternalLexer, validSymbols []bool) bool {
	st, ok := payload.(*gritScannerState)
	if !ok {
		return false
	}
	valid := func(i int) bool { return i < len(validSymbols) && validSymbols[i] }

	// The parser marks every token valid during error recovery.
	if valid(gritErrorSentinel) {
		return false
	}

	for isGritSpace(lexer.Lookahead()) && !lexer.EOF() {
		lexer.Advance(true)
	}
	if lexer.EOF() {
		return false
	}

	switch lexer.Lookahead() {
	case '{':
		if !valid(gritForeignOpenBrace) || st.depth == gritMaxForeignDepth {
			return false
		}
		lexer.Advance(false)
		lexer.MarkEnd()
		st.depth++
		lexer.SetResultSymbol(gritForeignOpenBrace)
		return true
	case '}':
		if !valid(gritForeignCloseBrace) || st.depth == 0 {
			return false
		}
		lexer.Advance(false)
		lexer.MarkEnd()
		st.depth--
		lexer.SetResultSymbol(gritForeignCloseBrace)
		return true
	}

	if !valid(gritForeignText) {
		return false
	}
	return scanForeignText(lexer)
}

// scanForeignText consumes foreign code up to the next brace outside string
// literals and comments. Trailing whitespace is left out of the token.
func scanForeignText(lexer *gotreesitter.ExternalLexer) bool {
	consumed := false
	for !lexer.EOF() {
		c := lexer.Lookahead()
		switch {
		case c == '{' || c == '}':
			return finishForeignText(lexer, consumed)
		case c == '"' || c == '\'' || c == '`':
			skipQuoted(lexer, c)
		case c == '/':
			lexer.Advance(false)
			switch lexer.Lookahead() {
			case '/':
				for !lexer.EOF() && lexer.Lookahead() != '\n' {
					lexer.Advance(false)
				}
			case '*':
				lexer.Advance(false)
				skipBlockComment(lexer)
			}
		case isGritSpace(c):
			lexer.Advance(false)
			continue
		default:
			lexer.Advance(false)
		}
		lexer.MarkEnd()
		consumed = true
	}
	return finishForeignText(lexer, consumed)
}

func finishForeignText(lexer *gotreesitter.ExternalLexer, consumed bool) bool {
	if !consumed {
		return false
	}
	lexer.SetResultSymbol(gritForeignText)
	return true
}

// skipQuoted consumes a string literal opened by quote, honoring backslash
// escapes. An unterminated literal runs to EOF.
func skipQuoted(lexer *gotreesitter.ExternalLexer, quote rune) {
	lexer.Advance(false)
	for !lexer.EOF() {
		c := lexer.Lookahead()
		lexer.Advance(false)
		if c == '\\' {
			lexer.Advance(false)
			continue
		}
		if c == quote {
			return
		}
	}
}

// skipBlockComment consumes through the closing "*/" or to EOF.
func skipBlockComment(lexer *gotreesitter.ExternalLexer) {
	for !lexer.EOF() {
		c := lexer.Lookahead()
		lexer.Advance(false)
		if c == '*' && lexer.Lookahead() == '/' {
			lexer.Advance(false)
			return
		}
	}
}

func isGritSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
