package grammars

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

type lexed struct {
	Kind string
	Text string
}

func lexGritQL(t *testing.T, src string) []lexed {
	t.Helper()
	lang := GritQLLanguage()
	l, err := NewGritQLLexer([]byte(src), lang)
	require.NoError(t, err)

	var out []lexed
	for i := 0; i < 1024; i++ {
		tok := l.Next(0)
		if tok.IsEOF() {
			return out
		}
		out = append(out, lexed{Kind: lang.SymbolName(tok.Symbol), Text: tok.Text})
	}
	t.Fatal("lexer did not reach EOF")
	return nil
}

func TestNewGritQLLexerReturnsErrorOnMissingSymbols(t *testing.T) {
	lang := &gotreesitter.Language{
		TokenCount:  1,
		SymbolNames: []string{"end"},
	}
	_, err := NewGritQLLexer([]byte("x"), lang)
	assert.Error(t, err)

	_, err = NewGritQLLexer([]byte("x"), nil)
	assert.Error(t, err)
}

func TestNewGritQLLexerOrEOFFallsBack(t *testing.T) {
	lang := &gotreesitter.Language{
		TokenCount:  1,
		SymbolNames: []string{"end"},
	}
	l := NewGritQLLexerOrEOF([]byte("x = 1"), lang)
	tok := l.Next(0)
	assert.True(t, tok.IsEOF(), "fallback token = %+v", tok)
	assert.Equal(t, uint32(5), tok.StartByte)
}

func TestGritQLLexerPattern(t *testing.T) {
	got := lexGritQL(t, "language js\n`console.log($msg)` => . where { $msg <: r\"^dbg\" }")
	want := []lexed{
		{"language", "language"},
		{"languageName", "js"},
		{"backtickSnippet", "`console.log($msg)`"},
		{"=>", "=>"},
		{".", "."},
		{"where", "where"},
		{"{", "{"},
		{"variable", "$msg"},
		{"<:", "<:"},
		{"regex", `r"^dbg"`},
		{"}", "}"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestGritQLLexerLiterals(t *testing.T) {
	got := lexGritQL(t, `42 3.14 1.5e-3 "a\"b" true false undefined Top Bottom raw`+"`x`"+` r`+"`y`")
	want := []lexed{
		{"intConstant", "42"},
		{"doubleConstant", "3.14"},
		{"doubleConstant", "1.5e-3"},
		{"stringConstant", `"a\"b"`},
		{"booleanConstant", "true"},
		{"booleanConstant", "false"},
		{"undefined", "undefined"},
		{"top", "Top"},
		{"bottom", "Bottom"},
		{"rawBacktickSnippet", "raw`x`"},
		{"r", "r"},
		{"backtickSnippet", "`y`"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestGritQLLexerVariablesAndNames(t *testing.T) {
	got := lexGritQL(t, "$_ $... ...* $x_1 ^y #foo @bar log( range( x.y -1")
	want := []lexed{
		{"underscore", "$_"},
		{"dotdotdot", "$..."},
		{"dotdotdot", "...*"},
		{"variable", "$x_1"},
		{"variable", "^y"},
		{"name", "#foo"},
		{"annotation", "@bar"},
		{"log(", "log("},
		{"range(", "range("},
		{"name", "x"},
		{".", "."},
		{"name", "y"},
		{"-", "-"},
		{"intConstant", "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestGritQLLexerComments(t *testing.T) {
	got := lexGritQL(t, "// note\nx /* a { b */ y")
	want := []lexed{
		{"comment", "// note"},
		{"name", "x"},
		{"comment", "/* a { b */"},
		{"name", "y"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestGritQLLexerOperatorsLongestMatch(t *testing.T) {
	got := lexGritQL(t, "a += b == c != d <= e >= f => g")
	var ops []string
	for _, tok := range got {
		if tok.Kind != "name" {
			ops = append(ops, tok.Kind)
		}
	}
	assert.Equal(t, []string{"+=", "==", "!=", "<=", ">=", "=>"}, ops)
}

func TestGritQLLexerUnknownRuneIsError(t *testing.T) {
	got := lexGritQL(t, "a ~ b")
	require.Len(t, got, 3)
	assert.Equal(t, lexed{"ERROR", "~"}, got[1])
}

func TestGritQLLexerPositions(t *testing.T) {
	lang := GritQLLanguage()
	l, err := NewGritQLLexer([]byte("a\n  bb"), lang)
	require.NoError(t, err)

	l.Next(0)
	tok := l.Next(0)
	assert.Equal(t, "bb", tok.Text)
	assert.Equal(t, uint32(4), tok.StartByte)
	assert.Equal(t, gotreesitter.Point{Row: 1, Column: 2}, tok.StartPoint)
	assert.Equal(t, gotreesitter.Point{Row: 1, Column: 4}, tok.EndPoint)

	// Seeking back replays the same token.
	l.Seek(gotreesitter.Position{Byte: 4, Point: gotreesitter.Point{Row: 1, Column: 2}})
	again := l.Next(0)
	assert.Equal(t, tok, again)
}

func TestGritQLLexerUnterminatedString(t *testing.T) {
	got := lexGritQL(t, `x "abc`)
	require.Len(t, got, 2)
	assert.Equal(t, lexed{"stringConstant", `"abc`}, got[1])
}
