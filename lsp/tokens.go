package lsp

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// Semantic token types, in legend order.
var tokenTypes = []string{
	"keyword",
	"string",
	"number",
	"regexp",
	"comment",
	"variable",
	"operator",
	"type",
	"macro",
}

const (
	typeKeyword = iota
	typeString
	typeNumber
	typeRegexp
	typeComment
	typeVariable
	typeOperator
	typeType
	typeMacro
)

var namedTokenTypes = map[string]int{
	"stringConstant":     typeString,
	"backtickSnippet":    typeString,
	"rawBacktickSnippet": typeString,
	"intConstant":        typeNumber,
	"doubleConstant":     typeNumber,
	"booleanConstant":    typeKeyword,
	"undefined":          typeKeyword,
	"top":                typeKeyword,
	"bottom":             typeKeyword,
	"regex":              typeRegexp,
	"comment":            typeComment,
	"variable":           typeVariable,
	"underscore":         typeVariable,
	"dotdotdot":          typeVariable,
	"languageName":       typeType,
	"annotation":         typeMacro,
	"foreign_text":       typeMacro,
}

// Legend returns the semantic token legend advertised at initialize.
func Legend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     tokenTypes,
		TokenModifiers: []string{},
	}
}

// classify maps a token to a legend index, or -1 for tokens left unstyled.
func classify(lang *gotreesitter.Language, sym gotreesitter.Symbol) int {
	name := lang.SymbolName(sym)
	if t, ok := namedTokenTypes[name]; ok {
		return t
	}
	if lang.IsNamed(sym) || name == "" || name == "ERROR" {
		return -1
	}
	if c := name[0]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return typeKeyword
	}
	return typeOperator
}

// EncodeSemanticTokens encodes toks of src in the LSP relative format.
// Tokens that span lines are split per line. Columns and lengths are UTF-16
// code units.
func EncodeSemanticTokens(lang *gotreesitter.Language, src []byte, toks []gotreesitter.Token) []protocol.UInteger {
	var data []protocol.UInteger
	var prevLine, prevChar uint32
	emit := func(line, char, length uint32, typ int) {
		deltaChar := char
		if line == prevLine {
			deltaChar = char - prevChar
		}
		data = append(data,
			protocol.UInteger(line-prevLine),
			protocol.UInteger(deltaChar),
			protocol.UInteger(length),
			protocol.UInteger(typ),
			0,
		)
		prevLine, prevChar = line, char
	}

	for _, tok := range toks {
		typ := classify(lang, tok.Symbol)
		if typ < 0 {
			continue
		}
		line := tok.StartPoint.Row
		char := utf16Column(src, tok.StartByte)
		for i, part := range strings.Split(tok.Text, "\n") {
			if i > 0 {
				line++
				char = 0
			}
			if n := utf16Len(part); n > 0 {
				emit(line, char, n, typ)
			}
		}
	}
	return data
}

// utf16Column returns the UTF-16 column of byte offset in src.
func utf16Column(src []byte, offset uint32) uint32 {
	if int(offset) > len(src) {
		offset = uint32(len(src))
	}
	line := src[:offset]
	if i := bytes.LastIndexByte(line, '\n'); i >= 0 {
		line = line[i+1:]
	}
	return utf16Len(string(line))
}

func utf16Len(s string) uint32 {
	var n uint32
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		n += uint32(utf16.RuneLen(r))
	}
	return n
}

// Diagnostics reports ERROR tokens and foreign code left with unbalanced
// braces at end of input.
func Diagnostics(lang *gotreesitter.Language, src []byte, toks []gotreesitter.Token, cps []gotreesitter.Checkpoint) []protocol.Diagnostic {
	source := "gritscan"
	severity := protocol.DiagnosticSeverityError
	diags := []protocol.Diagnostic{}
	for _, tok := range toks {
		if lang.SymbolName(tok.Symbol) != "ERROR" {
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    sourceRange(src, tok.StartByte, tok.StartPoint, tok.EndByte, tok.EndPoint),
			Severity: &severity,
			Source:   &source,
			Message:  "unexpected character " + quoteRune(tok.Text),
		})
	}
	if len(cps) > 0 {
		last := cps[len(cps)-1]
		if !last.Scanner.IsEmpty() {
			diags = append(diags, protocol.Diagnostic{
				Range:    sourceRange(src, last.EndByte, last.EndPoint, last.EndByte, last.EndPoint),
				Severity: &severity,
				Source:   &source,
				Message:  "unbalanced braces in foreign function body",
			})
		}
	}
	return diags
}

func sourceRange(src []byte, startByte uint32, start gotreesitter.Point, endByte uint32, end gotreesitter.Point) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(start.Row), Character: protocol.UInteger(utf16Column(src, startByte))},
		End:   protocol.Position{Line: protocol.UInteger(end.Row), Character: protocol.UInteger(utf16Column(src, endByte))},
	}
}

func quoteRune(s string) string {
	return "'" + s + "'"
}
