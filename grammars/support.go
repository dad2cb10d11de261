package grammars

import (
	"sort"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// ScanBackend describes how a language is tokenized in this runtime.
type ScanBackend string

const (
	ScanBackendUnsupported ScanBackend = "unsupported"
	ScanBackendDFA         ScanBackend = "dfa"
	ScanBackendStaticLexer ScanBackend = "static_lexer"
)

// ScanSupport summarizes tokenizer support status for one registered language.
type ScanSupport struct {
	Name                    string                `json:"name" yaml:"name"`
	Backend                 ScanBackend           `json:"backend" yaml:"backend"`
	Reason                  string                `json:"reason" yaml:"reason"`
	HasStaticLexerFactory   bool                  `json:"has_static_lexer_factory" yaml:"has_static_lexer_factory"`
	HasDFALexer             bool                  `json:"has_dfa_lexer" yaml:"has_dfa_lexer"`
	RequiresExternalScanner bool                  `json:"requires_external_scanner" yaml:"requires_external_scanner"`
	HasExternalScanner      bool                  `json:"has_external_scanner" yaml:"has_external_scanner"`
	NopExternalScanner      bool                  `json:"nop_external_scanner" yaml:"nop_external_scanner"`
	ExternalTokens          []string              `json:"external_tokens,omitempty" yaml:"external_tokens,omitempty"`
	ExternalLexStates       int                   `json:"external_lex_states" yaml:"external_lex_states"`
	Extensions              []string              `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	ScannerStateBudget      int                   `json:"scanner_state_budget" yaml:"scanner_state_budget"`
	ExternalSymbols         []gotreesitter.Symbol `json:"-" yaml:"-"`
}

// EvaluateScanSupport reports whether a language can be tokenized using
// either the built-in DFA lexer or a registered static lexer factory, and
// how its external scanner is configured. A no-op external scanner is a
// supported configuration: every external decision falls back to static
// lexing.
func EvaluateScanSupport(entry LangEntry, lang *gotreesitter.Language) ScanSupport {
	report := ScanSupport{
		Name:                    entry.Name,
		HasStaticLexerFactory:   entry.StaticLexerFactory != nil,
		HasDFALexer:             len(lang.LexStates) > 0,
		RequiresExternalScanner: lang.ExternalTokenCount > 0,
		HasExternalScanner:      lang.ExternalScanner != nil,
		ExternalLexStates:       len(lang.ExternalScannerStates),
		Extensions:              entry.Extensions,
		ScannerStateBudget:      gotreesitter.SerializationBufferSize,
		ExternalSymbols:         lang.ExternalSymbols,
		Backend:                 ScanBackendUnsupported,
	}
	if _, ok := lang.ExternalScanner.(gotreesitter.NopScanner); ok {
		report.NopExternalScanner = true
	}
	for _, sym := range lang.ExternalSymbols {
		report.ExternalTokens = append(report.ExternalTokens, lang.SymbolName(sym))
	}

	if report.RequiresExternalScanner && !report.HasExternalScanner {
		report.Reason = "requires external scanner, but none is registered"
		return report
	}

	if report.HasStaticLexerFactory {
		report.Backend = ScanBackendStaticLexer
		report.Reason = "custom static lexer"
		return report
	}

	if !report.HasDFALexer {
		report.Reason = "missing DFA lexer tables (LexStates)"
		return report
	}

	report.Backend = ScanBackendDFA
	report.Reason = "dfa lexer"
	return report
}

// AuditScanSupport evaluates scan support for all registered languages.
func AuditScanSupport() []ScanSupport {
	entries := AllLanguages()
	reports := make([]ScanSupport, 0, len(entries))
	for _, entry := range entries {
		lang := entry.Language()
		reports = append(reports, EvaluateScanSupport(entry, lang))
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})
	return reports
}
