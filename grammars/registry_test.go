package grammars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

func TestDetectLanguageGritQL(t *testing.T) {
	entry := DetectLanguage("rewrite.grit")
	require.NotNil(t, entry, "expected to detect GritQL for rewrite.grit")
	assert.Equal(t, "gritql", entry.Name)
	assert.NotNil(t, entry.StaticLexerFactory, "expected GritQL to register a static lexer factory")
	assert.NotNil(t, entry.Tracker)
}

func TestDetectLanguageUnknown(t *testing.T) {
	entry := DetectLanguage("readme.xyz")
	if entry != nil {
		t.Fatalf("expected nil for unknown extension, got %q", entry.Name)
	}
}

func TestAllLanguages(t *testing.T) {
	langs := AllLanguages()
	require.NotEmpty(t, langs)

	found := false
	for _, l := range langs {
		if l.Name == "gritql" {
			found = true
			break
		}
	}
	assert.True(t, found, "expected GritQL to be registered")
}

func TestLookupLanguage(t *testing.T) {
	assert.NotNil(t, LookupLanguage("gritql"))
	assert.Nil(t, LookupLanguage("cobol"))
}

func TestLangEntryNewScanDriver(t *testing.T) {
	entry := LookupLanguage("gritql")
	require.NotNil(t, entry)

	d := entry.NewScanDriver([]byte(foreignFunctionSample))
	defer d.Close()
	toks := d.All()
	require.Len(t, toks, 12)
	assert.Equal(t, "foreign_open_brace", entry.Language().SymbolName(toks[8].Symbol))
}

func TestNewScanDriverFallsBackToDFA(t *testing.T) {
	lang := &gotreesitter.Language{
		Name:        "digits",
		TokenCount:  2,
		SymbolNames: []string{"end", "digit"},
		LexModes:    []gotreesitter.LexMode{{LexState: 0}},
		LexStates: []gotreesitter.LexState{
			{Default: -1, EOF: -1, Transitions: []gotreesitter.LexTransition{{Lo: '0', Hi: '9', NextState: 1}}},
			{AcceptToken: 1, Default: -1, EOF: -1},
		},
	}
	entry := LangEntry{Name: "digits", Language: func() *gotreesitter.Language { return lang }}

	d := entry.NewScanDriver([]byte("12"))
	defer d.Close()
	toks := d.All()
	require.Len(t, toks, 2)
	assert.Equal(t, "2", toks[1].Text)
}

func TestAuditScanSupportGritQL(t *testing.T) {
	reports := AuditScanSupport()
	require.NotEmpty(t, reports)

	var report *ScanSupport
	for i := range reports {
		if reports[i].Name == "gritql" {
			report = &reports[i]
			break
		}
	}
	require.NotNil(t, report, "expected gritql scan support report")
	assert.Equal(t, ScanBackendStaticLexer, report.Backend)
	assert.True(t, report.RequiresExternalScanner)
	assert.True(t, report.HasExternalScanner)
	assert.False(t, report.NopExternalScanner)
	assert.Equal(t, []string{"foreign_text", "foreign_open_brace", "foreign_close_brace", "_error_sentinel"}, report.ExternalTokens)
	assert.Equal(t, 3, report.ExternalLexStates)
	assert.Equal(t, gotreesitter.SerializationBufferSize, report.ScannerStateBudget)
}

func TestEvaluateScanSupport(t *testing.T) {
	withExternals := func(scanner gotreesitter.ExternalScanner) *gotreesitter.Language {
		return &gotreesitter.Language{
			ExternalTokenCount: 1,
			ExternalScanner:    scanner,
		}
	}

	tests := []struct {
		name    string
		entry   LangEntry
		lang    *gotreesitter.Language
		backend ScanBackend
		nop     bool
	}{
		{
			name:    "missing scanner",
			entry:   LangEntry{Name: "x", StaticLexerFactory: NewGritQLLexerOrEOF},
			lang:    withExternals(nil),
			backend: ScanBackendUnsupported,
		},
		{
			name:    "nop scanner is supported",
			entry:   LangEntry{Name: "x", StaticLexerFactory: NewGritQLLexerOrEOF},
			lang:    withExternals(gotreesitter.NopScanner{}),
			backend: ScanBackendStaticLexer,
			nop:     true,
		},
		{
			name:    "no lexer at all",
			entry:   LangEntry{Name: "x"},
			lang:    &gotreesitter.Language{},
			backend: ScanBackendUnsupported,
		},
		{
			name:    "dfa tables",
			entry:   LangEntry{Name: "x"},
			lang:    &gotreesitter.Language{LexStates: []gotreesitter.LexState{{}}},
			backend: ScanBackendDFA,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := EvaluateScanSupport(tt.entry, tt.lang)
			assert.Equal(t, tt.backend, report.Backend, report.Reason)
			assert.Equal(t, tt.nop, report.NopExternalScanner)
		})
	}
}
