package grammars

import (
	"sync"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// GritQL parser states as seen by the scan driver. Only the foreign function
// body consults the external scanner; the others exist to recognize the
// `function name(args) js {` header that leads into it.
const (
	gritStateDefault gotreesitter.StateID = iota
	gritStateFunctionKeyword
	gritStateFunctionName
	gritStateFunctionArgs
	gritStateFunctionSignature
	gritStateForeignLanguage
	gritStateForeignBody
	gritStateRecovery
)

// External lex states: index into Language.ExternalScannerStates.
const (
	gritExternalNone uint16 = iota
	gritExternalForeignBody
	gritExternalRecovery
)

// GritQL static terminals, grouped as the lexer produces them.
var (
	gritPunctuation = []string{
		"{", "}", "(", ")", "[", "]", ",", ":", ";", ".",
		"=", "=>", "+=", "==", "!=", "<", "<=", ">", ">=", "<:",
		"!", "*", "/", "%", "+", "-",
		"log(", "range(", "r",
	}
	gritKeywords = []string{
		"sequential", "multifile", "engine", "marzano", "language",
		"or", "orelse", "any", "and", "not", "maybe", "after", "before",
		"contains", "until", "includes", "if", "else", "within", "bubble",
		"like", "some", "every", "private", "pattern", "predicate", "function",
		"return", "as", "limit", "where",
		"start_line", "end_line", "start_column", "end_column",
	}
	gritNamedRules = []string{
		"name", "variable", "underscore", "dotdotdot",
		"intConstant", "doubleConstant", "stringConstant", "booleanConstant",
		"undefined", "top", "bottom", "regex",
		"backtickSnippet", "rawBacktickSnippet", "annotation", "comment",
		"languageName",
	}
)

// gritStaticTokens fixes static symbol IDs; "end" must stay first.
var gritStaticTokens = func() []string {
	out := []string{"end", "ERROR"}
	out = append(out, gritPunctuation...)
	out = append(out, gritKeywords...)
	return append(out, gritNamedRules...)
}()

// gritExternalTokens lists external scanner tokens in valid-symbol order.
var gritExternalTokens = []string{
	"foreign_text",
	"foreign_open_brace",
	"foreign_close_brace",
	"_error_sentinel",
}

// gritLanguageNames are the target languages accepted after `language`.
var gritLanguageNames = map[string]bool{
	"grit": true, "js": true, "html": true, "css": true, "json": true,
	"java": true, "csharp": true, "python": true, "go": true,
	"markdown": true, "rust": true, "ruby": true, "sol": true,
	"solidity": true, "hcl": true, "yaml": true, "ast": true,
	"universal": true, "sql": true, "toml": true, "php": true, "c": true,
}

// gritForeignLanguages may implement foreign function bodies.
var gritForeignLanguages = map[string]bool{"js": true}

var (
	gritLangOnce sync.Once
	gritLang     *gotreesitter.Language
)

// GritQLLanguage returns the GritQL lexical language. The value is shared;
// callers must not modify it.
func GritQLLanguage() *gotreesitter.Language {
	gritLangOnce.Do(func() {
		gritLang = buildGritQLLanguage(GritQLScanner{})
	})
	return gritLang
}

// NewGritQLLanguage builds a fresh GritQL language using scanner as its
// external scanner. Passing gotreesitter.NopScanner{} yields a language whose
// foreign bodies are tokenized statically.
func NewGritQLLanguage(scanner gotreesitter.ExternalScanner) *gotreesitter.Language {
	return buildGritQLLanguage(scanner)
}

func buildGritQLLanguage(scanner gotreesitter.ExternalScanner) *gotreesitter.Language {
	names := make([]string, 0, len(gritStaticTokens)+len(gritExternalTokens))
	names = append(names, gritStaticTokens...)
	names = append(names, gritExternalTokens...)

	meta := make([]gotreesitter.SymbolMetadata, len(names))
	for i, n := range names {
		meta[i] = gotreesitter.SymbolMetadata{
			Name:    n,
			Visible: i > 0 && n[0] != '_',
			Named:   gritNamedSet[n] || (i >= len(gritStaticTokens) && n[0] != '_'),
		}
	}

	externals := make([]gotreesitter.Symbol, len(gritExternalTokens))
	for i := range gritExternalTokens {
		externals[i] = gotreesitter.Symbol(len(gritStaticTokens) + i)
	}

	modes := make([]gotreesitter.LexMode, gritStateRecovery+1)
	modes[gritStateForeignBody].ExternalLexState = gritExternalForeignBody
	modes[gritStateRecovery].ExternalLexState = gritExternalRecovery

	n := len(gritExternalTokens)
	body := make([]bool, n)
	body[gritForeignText] = true
	body[gritForeignOpenBrace] = true
	body[gritForeignCloseBrace] = true
	recovery := make([]bool, n)
	for i := range recovery {
		recovery[i] = true
	}

	return &gotreesitter.Language{
		Name:                  "gritql",
		TokenCount:            uint32(len(names)),
		ExternalTokenCount:    uint32(n),
		SymbolNames:           names,
		SymbolMetadata:        meta,
		LexModes:              modes,
		ExternalSymbols:       externals,
		ExternalScannerStates: [][]bool{make([]bool, n), body, recovery},
		ExternalScanner:       scanner,
	}
}

var (
	gritKeywordSet = stringSet(gritKeywords)
	gritNamedSet   = stringSet(gritNamedRules)
)

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func isGritKeyword(s string) bool {
	return gritKeywordSet[s]
}

// GritQLTracker advances the GritQL parser state after tok. It follows just
// enough of the grammar to know when a foreign function body starts and
// ends; every other construct stays in the default state. An ERROR token
// moves the parser into recovery, which lasts for the rest of the scan.
func GritQLTracker(lang *gotreesitter.Language) gotreesitter.StateTracker {
	name := func(tok gotreesitter.Token) string { return lang.SymbolName(tok.Symbol) }

	var step func(state gotreesitter.StateID, tok gotreesitter.Token) gotreesitter.StateID
	step = func(state gotreesitter.StateID, tok gotreesitter.Token) gotreesitter.StateID {
		sym := name(tok)
		if sym == "comment" {
			return state
		}
		if sym == "ERROR" {
			return gritStateRecovery
		}
		switch state {
		case gritStateFunctionKeyword:
			if sym == "name" || isGritKeyword(sym) {
				return gritStateFunctionName
			}
		case gritStateFunctionName:
			if sym == "(" {
				return gritStateFunctionArgs
			}
		case gritStateFunctionArgs:
			if sym == ")" {
				return gritStateFunctionSignature
			}
			return gritStateFunctionArgs
		case gritStateFunctionSignature:
			if sym == "languageName" && gritForeignLanguages[tok.Text] {
				return gritStateForeignLanguage
			}
			if sym == "{" {
				return gritStateDefault
			}
		case gritStateForeignLanguage:
			if sym == "{" {
				return gritStateForeignBody
			}
		case gritStateForeignBody:
			if sym == "}" {
				return gritStateDefault
			}
			return gritStateForeignBody
		case gritStateRecovery:
			return gritStateRecovery
		}
		if state != gritStateDefault {
			return step(gritStateDefault, tok)
		}
		if sym == "function" {
			return gritStateFunctionKeyword
		}
		return gritStateDefault
	}
	return step
}
