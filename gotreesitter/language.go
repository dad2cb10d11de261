// Package gotreesitter implements the lexing half of a pure Go tree-sitter
// runtime: the language tables a lexer needs, the table-driven DFA lexer,
// and the external scanner contract used for tokens a static lexer cannot
// express.
//
// Parse-table generation and tree construction live outside this package.
// A Language here carries only what tokenization consults: symbol names,
// lex modes per parser state, the DFA, and the external scanner together
// with its valid-symbol sets.
package gotreesitter

// Symbol is a grammar symbol ID (terminal or nonterminal).
type Symbol uint16

// StateID is a parser state index. The runtime only uses it to select a
// LexMode.
type StateID uint16

// LexState is one state in the table-driven lexer DFA.
type LexState struct {
	AcceptToken Symbol // 0 if this state doesn't accept
	Skip        bool   // true if accepted chars are whitespace
	Transitions []LexTransition
	Default     int // default next state (-1 if none)
	EOF         int // state on EOF (-1 if none)
}

// LexTransition maps a character range to a next state.
type LexTransition struct {
	Lo, Hi    rune // inclusive character range
	NextState int
}

// LexMode maps a parser state to its lexer configuration.
// ExternalLexState indexes Language.ExternalScannerStates; 0 means the
// external scanner is not consulted in that state.
type LexMode struct {
	LexState         uint16
	ExternalLexState uint16
}

// SymbolMetadata holds display information about a symbol.
type SymbolMetadata struct {
	Name    string
	Visible bool
	Named   bool
}

// Language holds the lexical tables for a specific language.
type Language struct {
	Name string

	// TokenCount is the number of terminal symbols; symbols below it are
	// tokens. ExternalTokenCount is the number of external scanner tokens.
	TokenCount         uint32
	ExternalTokenCount uint32

	SymbolNames    []string
	SymbolMetadata []SymbolMetadata

	// LexModes is indexed by parser state.
	LexModes  []LexMode
	LexStates []LexState // main lexer DFA (optional when a StaticLexer is supplied)

	// ExternalSymbols maps an external token index to the language symbol.
	ExternalSymbols []Symbol
	// ExternalScannerStates holds one valid-symbol set per external lex
	// state. Entry 0 is conventionally all false.
	ExternalScannerStates [][]bool

	// External scanner (nil if not needed)
	ExternalScanner ExternalScanner
}

// SymbolByName returns the first symbol with the given name.
func (l *Language) SymbolByName(name string) (Symbol, bool) {
	for i, n := range l.SymbolNames {
		if n == name {
			return Symbol(i), true
		}
	}
	return 0, false
}

// TokenSymbolsByName returns every terminal symbol with the given name.
func (l *Language) TokenSymbolsByName(name string) []Symbol {
	var out []Symbol
	limit := int(l.TokenCount)
	if limit > len(l.SymbolNames) {
		limit = len(l.SymbolNames)
	}
	for i := 0; i < limit; i++ {
		if l.SymbolNames[i] == name {
			out = append(out, Symbol(i))
		}
	}
	return out
}

// SymbolName returns the display name for sym, or "" when out of range.
func (l *Language) SymbolName(sym Symbol) string {
	if int(sym) < len(l.SymbolNames) {
		return l.SymbolNames[sym]
	}
	return ""
}

// IsNamed reports whether sym is a named symbol.
func (l *Language) IsNamed(sym Symbol) bool {
	if int(sym) < len(l.SymbolMetadata) {
		return l.SymbolMetadata[sym].Named
	}
	return false
}

// LexModeFor returns the lex mode of a parser state. Out-of-range states
// get the zero mode (DFA state 0, no external scanning).
func (l *Language) LexModeFor(state StateID) LexMode {
	if int(state) < len(l.LexModes) {
		return l.LexModes[state]
	}
	return LexMode{}
}

// ValidExternalSymbols returns the valid-symbol set for an external lex
// state. The returned slice always has ExternalTokenCount entries and must
// not be modified by callers.
func (l *Language) ValidExternalSymbols(externalLexState uint16) []bool {
	if int(externalLexState) < len(l.ExternalScannerStates) {
		set := l.ExternalScannerStates[externalLexState]
		if len(set) == int(l.ExternalTokenCount) {
			return set
		}
	}
	return make([]bool, l.ExternalTokenCount)
}

// ExternalSymbol maps an external token index to its language symbol.
func (l *Language) ExternalSymbol(index Symbol) (Symbol, bool) {
	if int(index) < len(l.ExternalSymbols) {
		return l.ExternalSymbols[index], true
	}
	return 0, false
}
