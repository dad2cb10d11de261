package grammars

import (
	"fmt"
	"sort"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// GritQLLexer tokenizes the static lexical rules of GritQL. It is the
// fallback the scan driver uses whenever the external scanner declines.
// Whitespace is skipped; an unrecognized rune becomes a one-rune ERROR token.
type GritQLLexer struct {
	src []byte
	cur sourceCursor

	operators []gritOperator
	keywords  map[string]gotreesitter.Symbol

	errorSymbol        gotreesitter.Symbol
	nameSymbol         gotreesitter.Symbol
	variableSymbol     gotreesitter.Symbol
	underscoreSymbol   gotreesitter.Symbol
	dotdotdotSymbol    gotreesitter.Symbol
	intSymbol          gotreesitter.Symbol
	doubleSymbol       gotreesitter.Symbol
	stringSymbol       gotreesitter.Symbol
	booleanSymbol      gotreesitter.Symbol
	undefinedSymbol    gotreesitter.Symbol
	topSymbol          gotreesitter.Symbol
	bottomSymbol       gotreesitter.Symbol
	regexSymbol        gotreesitter.Symbol
	backtickSymbol     gotreesitter.Symbol
	rawBacktickSymbol  gotreesitter.Symbol
	annotationSymbol   gotreesitter.Symbol
	commentSymbol      gotreesitter.Symbol
	languageNameSymbol gotreesitter.Symbol
	logCallSymbol      gotreesitter.Symbol
	rangeCallSymbol    gotreesitter.Symbol
	snippetRegexSymbol gotreesitter.Symbol
}

type gritOperator struct {
	text string
	sym  gotreesitter.Symbol
}

var _ gotreesitter.StaticLexer = (*GritQLLexer)(nil)

// NewGritQLLexer creates a static lexer for GritQL source.
func NewGritQLLexer(src []byte, lang *gotreesitter.Language) (*GritQLLexer, error) {
	if lang == nil {
		return nil, fmt.Errorf("gritql lexer: language is nil")
	}
	tl := newTokenLookup(lang, "gritql")
	l := &GritQLLexer{
		src:      src,
		cur:      newSourceCursor(src),
		keywords: make(map[string]gotreesitter.Symbol, len(gritKeywords)),
	}

	for _, op := range gritPunctuation {
		switch op {
		case "log(", "range(", "r":
			continue
		}
		l.operators = append(l.operators, gritOperator{text: op, sym: tl.require(op)})
	}
	// Longest operator first so "=>" wins over "=".
	sort.SliceStable(l.operators, func(i, j int) bool {
		return len(l.operators[i].text) > len(l.operators[j].text)
	})
	for _, kw := range gritKeywords {
		l.keywords[kw] = tl.require(kw)
	}

	l.errorSymbol = tl.require("ERROR")
	l.nameSymbol = tl.require("name")
	l.variableSymbol = tl.require("variable")
	l.underscoreSymbol = tl.require("underscore")
	l.dotdotdotSymbol = tl.require("dotdotdot")
	l.intSymbol = tl.require("intConstant")
	l.doubleSymbol = tl.require("doubleConstant")
	l.stringSymbol = tl.require("stringConstant")
	l.booleanSymbol = tl.require("booleanConstant")
	l.undefinedSymbol = tl.require("undefined")
	l.topSymbol = tl.require("top")
	l.bottomSymbol = tl.require("bottom")
	l.regexSymbol = tl.require("regex")
	l.backtickSymbol = tl.require("backtickSnippet")
	l.rawBacktickSymbol = tl.require("rawBacktickSnippet")
	l.annotationSymbol = tl.require("annotation")
	l.commentSymbol = tl.require("comment")
	l.languageNameSymbol = tl.require("languageName")
	l.logCallSymbol = tl.require("log(")
	l.rangeCallSymbol = tl.require("range(")
	l.snippetRegexSymbol = tl.require("r")

	if err := tl.err(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewGritQLLexerOrEOF returns a static lexer for callers that cannot surface
// constructor errors through their API.
func NewGritQLLexerOrEOF(src []byte, lang *gotreesitter.Language) gotreesitter.StaticLexer {
	l, err := NewGritQLLexer(src, lang)
	if err != nil {
		return eofLexer{sourceLen: uint32(len(src))}
	}
	return l
}

// Seek moves the lexer to pos.
func (l *GritQLLexer) Seek(pos gotreesitter.Position) {
	l.cur.seek(pos)
}

// Next returns the next token. GritQL has a single lexical mode, so the lex
// state is ignored.
func (l *GritQLLexer) Next(uint16) gotreesitter.Token {
	l.cur.skipWhitespace()
	start := l.cur.position()
	if l.cur.eof() {
		return makeToken(0, l.src, start, start)
	}

	sym := l.lex()
	return makeToken(sym, l.src, start, l.cur.position())
}

func (l *GritQLLexer) lex() gotreesitter.Symbol {
	c := &l.cur
	b := c.peekByte()
	switch {
	case b == '/' && (c.peekAt(1) == '/' || c.peekAt(1) == '*'):
		l.comment()
		return l.commentSymbol
	case b == '"':
		l.quoted('"')
		return l.stringSymbol
	case b == '`':
		l.quoted('`')
		return l.backtickSymbol
	case b == 'r' && c.peekAt(1) == '"':
		c.advanceRune()
		l.quoted('"')
		return l.regexSymbol
	case b == 'r' && c.peekAt(1) == '`':
		// snippet regex: the 'r' prefix, then a backtick snippet token
		c.advanceRune()
		return l.snippetRegexSymbol
	case c.hasPrefix("raw`"):
		c.advanceN(3)
		l.quoted('`')
		return l.rawBacktickSymbol
	case c.hasPrefix("$_") && !isASCIIWordPart(c.peekAt(2)):
		c.advanceN(2)
		return l.underscoreSymbol
	case c.hasPrefix("$..."), c.hasPrefix("..."):
		if b == '$' {
			c.advanceRune()
		}
		c.advanceN(3)
		if c.peekByte() == '*' {
			c.advanceRune()
		}
		return l.dotdotdotSymbol
	case b == '$' || b == '^':
		c.advanceRune()
		for isASCIIWordPart(c.peekByte()) {
			c.advanceRune()
		}
		return l.variableSymbol
	case b == '#' && isASCIIWordPart(c.peekAt(1)):
		c.advanceRune()
		for isASCIIWordPart(c.peekByte()) {
			c.advanceRune()
		}
		return l.nameSymbol
	case b == '@' && isASCIIAlpha(c.peekAt(1)):
		c.advanceRune()
		for isASCIIAlpha(c.peekByte()) || isASCIIDigit(c.peekByte()) {
			c.advanceRune()
		}
		return l.annotationSymbol
	case isASCIIDigit(b):
		return l.number()
	case isASCIIWordStart(b):
		return l.word()
	}

	for _, op := range l.operators {
		if c.hasPrefix(op.text) {
			c.advanceN(len(op.text))
			return op.sym
		}
	}
	c.advanceRune()
	return l.errorSymbol
}

// word lexes an identifier-shaped token and classifies it.
func (l *GritQLLexer) word() gotreesitter.Symbol {
	c := &l.cur
	start := c.offset
	for isASCIIWordPart(c.peekByte()) {
		c.advanceRune()
	}
	text := string(l.src[start:c.offset])

	if c.peekByte() == '(' {
		switch text {
		case "log":
			c.advanceRune()
			return l.logCallSymbol
		case "range":
			c.advanceRune()
			return l.rangeCallSymbol
		}
	}
	if sym, ok := l.keywords[text]; ok {
		return sym
	}
	switch text {
	case "true", "false":
		return l.booleanSymbol
	case "undefined":
		return l.undefinedSymbol
	case "Top":
		return l.topSymbol
	case "Bottom":
		return l.bottomSymbol
	}
	if gritLanguageNames[text] {
		return l.languageNameSymbol
	}
	return l.nameSymbol
}

// number lexes intConstant or doubleConstant ([0-9]+.[0-9]+ with optional
// exponent). Signs are separate operator tokens.
func (l *GritQLLexer) number() gotreesitter.Symbol {
	c := &l.cur
	for isASCIIDigit(c.peekByte()) {
		c.advanceRune()
	}
	if c.peekByte() != '.' || !isASCIIDigit(c.peekAt(1)) {
		return l.intSymbol
	}
	c.advanceRune()
	for isASCIIDigit(c.peekByte()) {
		c.advanceRune()
	}
	if e := c.peekByte(); e == 'e' || e == 'E' {
		n := 1
		if s := c.peekAt(1); s == '+' || s == '-' {
			n = 2
		}
		if isASCIIDigit(c.peekAt(n)) {
			c.advanceN(n)
			for isASCIIDigit(c.peekByte()) {
				c.advanceRune()
			}
		}
	}
	return l.doubleSymbol
}

// quoted consumes a literal delimited by quote with backslash escapes. An
// unterminated literal runs to EOF.
func (l *GritQLLexer) quoted(quote byte) {
	c := &l.cur
	c.advanceRune()
	for !c.eof() {
		b := c.peekByte()
		c.advanceRune()
		if b == '\\' {
			c.advanceRune()
			continue
		}
		if b == quote {
			return
		}
	}
}

// comment consumes a line comment (excluding the newline) or a block
// comment through "*/".
func (l *GritQLLexer) comment() {
	c := &l.cur
	if c.peekAt(1) == '/' {
		for !c.eof() && c.peekByte() != '\n' {
			c.advanceRune()
		}
		return
	}
	c.advanceN(2)
	for !c.eof() {
		if c.hasPrefix("*/") {
			c.advanceN(2)
			return
		}
		c.advanceRune()
	}
}
