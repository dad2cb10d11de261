package lsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/odvcencio/tree-sitter-gritql/grammars"
)

func TestAnalyzeUnknownLanguage(t *testing.T) {
	assert.Nil(t, Analyze("file:///tmp/readme.txt", "hello"))
}

func TestAnalyzeSemanticTokens(t *testing.T) {
	a := Analyze("file:///work/rewrite.grit", "where $x\n// c")
	require.NotNil(t, a)
	assert.Equal(t, "gritql", a.Language)

	want := []protocol.UInteger{
		0, 0, 5, typeKeyword, 0, // where
		0, 6, 2, typeVariable, 0, // $x
		1, 0, 4, typeComment, 0, // // c
	}
	assert.Equal(t, want, a.SemanticTokens)
	assert.Empty(t, a.Diagnostics)
}

func TestEncodeSemanticTokensSplitsLines(t *testing.T) {
	a := Analyze("rewrite.grit", "/* a\nbb */ x")
	require.NotNil(t, a)
	want := []protocol.UInteger{
		0, 0, 4, typeComment, 0, // "/* a"
		1, 0, 5, typeComment, 0, // "bb */"
	}
	// The trailing name is unstyled.
	assert.Equal(t, want, a.SemanticTokens)
}

func TestEncodeSemanticTokensForeignBody(t *testing.T) {
	a := Analyze("f.grit", "function f() js { a }")
	require.NotNil(t, a)
	// function, "(", ")", js, "{", foreign_text, "}"
	require.Len(t, a.SemanticTokens, 7*5)
	foreign := a.SemanticTokens[5*5 : 6*5]
	assert.Equal(t, protocol.UInteger(typeMacro), foreign[3])
	assert.Equal(t, protocol.UInteger(1), foreign[2])
}

func TestDiagnosticsErrorToken(t *testing.T) {
	a := Analyze("f.grit", "x ~ y")
	require.NotNil(t, a)
	require.Len(t, a.Diagnostics, 1)
	d := a.Diagnostics[0]
	assert.Equal(t, protocol.UInteger(2), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(3), d.Range.End.Character)
	assert.Contains(t, d.Message, "'~'")
}

func TestSemanticTokensCountUTF16Columns(t *testing.T) {
	a := Analyze("f.grit", "\"😀\" $x")
	require.NotNil(t, a)
	want := []protocol.UInteger{
		0, 0, 4, typeString, 0, // "😀" is two UTF-16 units plus quotes
		0, 5, 2, typeVariable, 0, // $x
	}
	assert.Equal(t, want, a.SemanticTokens)
}

func TestDiagnosticsCountUTF16Columns(t *testing.T) {
	a := Analyze("f.grit", "x\n\"😀\" ~")
	require.NotNil(t, a)
	require.Len(t, a.Diagnostics, 1)
	r := a.Diagnostics[0].Range
	assert.Equal(t, protocol.UInteger(1), r.Start.Line)
	assert.Equal(t, protocol.UInteger(5), r.Start.Character)
	assert.Equal(t, protocol.UInteger(6), r.End.Character)
}

func TestAnalyzeWithDetector(t *testing.T) {
	detect := func(path string) *grammars.LangEntry {
		if strings.HasSuffix(path, ".gql") {
			return grammars.LookupLanguage("gritql")
		}
		return nil
	}
	a := AnalyzeWith(detect, "file:///work/rewrite.gql", "where $x")
	require.NotNil(t, a)
	assert.Equal(t, "gritql", a.Language)
	assert.Nil(t, AnalyzeWith(detect, "file:///work/rewrite.grit", "where $x"))
}

func TestDiagnosticsUnbalancedForeignBody(t *testing.T) {
	a := Analyze("f.grit", "function f() js { a {")
	require.NotNil(t, a)
	require.Len(t, a.Diagnostics, 1)
	assert.Contains(t, a.Diagnostics[0].Message, "unbalanced")
}

func TestLegendMatchesTypes(t *testing.T) {
	legend := Legend()
	assert.Len(t, legend.TokenTypes, typeMacro+1)
	assert.Equal(t, "keyword", legend.TokenTypes[typeKeyword])
	assert.Equal(t, "macro", legend.TokenTypes[typeMacro])
}

func TestClassifyOperators(t *testing.T) {
	lang := grammars.GritQLLanguage()
	sym := lang.TokenSymbolsByName("=>")[0]
	assert.Equal(t, typeOperator, classify(lang, sym))
	sym = lang.TokenSymbolsByName("name")[0]
	assert.Equal(t, -1, classify(lang, sym))
}

func TestURIToPath(t *testing.T) {
	assert.Equal(t, "/a/b.grit", uriToPath("file:///a/b.grit"))
	assert.Equal(t, "b.grit", uriToPath("b.grit"))
}
