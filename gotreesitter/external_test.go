package gotreesitter

import (
	"bytes"
	"testing"
)

// braceScanner recognizes '{' (external index 0) and, while nested, '}'
// (external index 1). Its state is the nesting depth in one byte.
type braceScanner struct {
	created   int
	destroyed int
}

type braceState struct{ depth byte }

func (s *braceScanner) Create() any {
	s.created++
	return &braceState{}
}

func (s *braceScanner) Destroy(payload any) { s.destroyed++ }

func (s *braceScanner) Serialize(payload any, buf []byte) int {
	st := payload.(*braceState)
	if st.depth == 0 || len(buf) < 1 {
		return 0
	}
	buf[0] = st.depth
	return 1
}

func (s *braceScanner) Deserialize(payload any, buf []byte) {
	st := payload.(*braceState)
	st.depth = 0
	if len(buf) == 1 {
		st.depth = buf[0]
	}
}

func (s *braceScanner) Scan(payload any, lexer *ExternalLexer, valid []bool) bool {
	st := payload.(*braceState)
	for lexer.Lookahead() == ' ' || lexer.Lookahead() == '\n' {
		lexer.Advance(true)
	}
	switch lexer.Lookahead() {
	case '{':
		if !valid[0] || st.depth == 255 {
			return false
		}
		lexer.Advance(false)
		lexer.MarkEnd()
		st.depth++
		lexer.SetResultSymbol(0)
		return true
	case '}':
		if !valid[1] || st.depth == 0 {
			return false
		}
		lexer.Advance(false)
		lexer.MarkEnd()
		st.depth--
		lexer.SetResultSymbol(1)
		return true
	}
	return false
}

// greedyScanner consumes input and mutates state, then reports whatever
// result it was told to.
type greedyScanner struct {
	succeed bool
	symbol  Symbol
}

func (greedyScanner) Create() any { return &braceState{} }
func (greedyScanner) Destroy(any) {}
func (greedyScanner) Serialize(payload any, buf []byte) int {
	buf[0] = payload.(*braceState).depth
	return 1
}
func (greedyScanner) Deserialize(payload any, buf []byte) {
	st := payload.(*braceState)
	st.depth = 0
	if len(buf) == 1 {
		st.depth = buf[0]
	}
}
func (g greedyScanner) Scan(payload any, lexer *ExternalLexer, valid []bool) bool {
	payload.(*braceState).depth = 9
	lexer.Advance(false)
	lexer.Advance(false)
	lexer.SetResultSymbol(g.symbol)
	return g.succeed
}

func TestExternalLexerCursor(t *testing.T) {
	l := NewExternalLexer([]byte("  ab\nc"), Position{})
	l.Advance(true)
	l.Advance(true)
	if l.Lookahead() != 'a' || l.Column() != 2 {
		t.Fatalf("after skip: lookahead=%q column=%d", l.Lookahead(), l.Column())
	}
	l.Advance(false)
	l.MarkEnd()
	l.Advance(false) // lookahead only
	l.SetResultSymbol(3)

	tok, ok := l.token()
	if !ok {
		t.Fatal("token() = false, want true")
	}
	if tok.Text != "a" || tok.StartByte != 2 || tok.EndByte != 3 || tok.Symbol != 3 {
		t.Fatalf("token = %+v, want \"a\" [2,3) symbol 3", tok)
	}

	l.Advance(false)
	if l.Lookahead() != 'c' || l.Position().Point != (Point{Row: 1}) {
		t.Fatalf("after newline: lookahead=%q point=%+v", l.Lookahead(), l.Position().Point)
	}
	l.Advance(false)
	if !l.EOF() || l.Lookahead() != 0 {
		t.Fatal("expected EOF with zero lookahead")
	}
	l.Advance(false) // no-op at EOF
	if l.Position().Byte != 6 {
		t.Fatalf("position past EOF = %d, want 6", l.Position().Byte)
	}
}

func TestExternalLexerWithoutMarkEndUsesCursor(t *testing.T) {
	l := NewExternalLexer([]byte("xyz"), Position{})
	l.Advance(false)
	l.Advance(false)
	l.SetResultSymbol(0)
	tok, ok := l.token()
	if !ok || tok.Text != "xy" {
		t.Fatalf("token = %+v ok=%v, want \"xy\"", tok, ok)
	}
}

func TestExternalLexerNoResult(t *testing.T) {
	l := NewExternalLexer([]byte("x"), Position{})
	l.Advance(false)
	if _, ok := l.token(); ok {
		t.Fatal("token() without SetResultSymbol should fail")
	}
}

func TestRunExternalScannerWithoutScanner(t *testing.T) {
	lang := &Language{Name: "plain"}
	l := NewExternalLexer([]byte("{"), Position{})
	if _, ok := RunExternalScanner(lang, nil, l, []bool{true}); ok {
		t.Fatal("RunExternalScanner without scanner should fail")
	}
}

func TestRunExternalScannerEmptyValidSet(t *testing.T) {
	sc := &braceScanner{}
	lang := &Language{ExternalTokenCount: 2, ExternalScanner: sc}
	payload := sc.Create()
	for _, src := range []string{"{", "}", "abc", ""} {
		l := NewExternalLexer([]byte(src), Position{})
		if _, ok := RunExternalScanner(lang, payload, l, []bool{false, false}); ok {
			t.Errorf("%q: scan with empty valid set succeeded", src)
		}
		if l.Position().Byte != 0 {
			t.Errorf("%q: cursor moved to %d", src, l.Position().Byte)
		}
	}
}

func TestRunExternalScannerRewindsOnFailure(t *testing.T) {
	sc := greedyScanner{succeed: false}
	lang := &Language{ExternalTokenCount: 1, ExternalScanner: sc}
	payload := sc.Create()

	l := NewExternalLexer([]byte("abcd"), Position{Byte: 1, Point: Point{Column: 1}})
	if _, ok := RunExternalScanner(lang, payload, l, []bool{true}); ok {
		t.Fatal("scan should fail")
	}
	if got := l.Position(); got.Byte != 1 || got.Point.Column != 1 {
		t.Fatalf("cursor = %+v, want byte 1", got)
	}
	if depth := payload.(*braceState).depth; depth != 0 {
		t.Fatalf("state mutated on failure: depth=%d", depth)
	}
}

func TestRunExternalScannerRejectsInvalidSymbol(t *testing.T) {
	sc := greedyScanner{succeed: true, symbol: 1}
	lang := &Language{ExternalTokenCount: 2, ExternalScanner: sc}
	payload := sc.Create()

	l := NewExternalLexer([]byte("abcd"), Position{})
	if _, ok := RunExternalScanner(lang, payload, l, []bool{true, false}); ok {
		t.Fatal("scan reporting an invalid symbol should be rejected")
	}
	if l.Position().Byte != 0 {
		t.Fatalf("cursor moved to %d", l.Position().Byte)
	}
	if depth := payload.(*braceState).depth; depth != 0 {
		t.Fatalf("state kept after rejection: depth=%d", depth)
	}
}

func TestRunExternalScannerDeterministic(t *testing.T) {
	sc := &braceScanner{}
	lang := &Language{ExternalTokenCount: 2, ExternalScanner: sc}
	valid := []bool{true, false}

	state := ExternalScannerState{Data: []byte{2}}
	var first Token
	var firstState ExternalScannerState
	for i := 0; i < 3; i++ {
		payload := sc.Create()
		RestoreExternalScannerState(sc, payload, state)
		l := NewExternalLexer([]byte("  {x"), Position{})
		tok, ok := RunExternalScanner(lang, payload, l, valid)
		if !ok {
			t.Fatalf("run %d: scan failed", i)
		}
		after := SaveExternalScannerState(sc, payload)
		if i == 0 {
			first, firstState = tok, after
			continue
		}
		if tok != first || !after.Equal(firstState) {
			t.Fatalf("run %d: (%+v,%v) differs from (%+v,%v)", i, tok, after.Data, first, firstState.Data)
		}
	}
	if first.StartByte != 2 || first.EndByte != 3 || !bytes.Equal(firstState.Data, []byte{3}) {
		t.Fatalf("token = %+v state = %v, want '{' at 2 and depth 3", first, firstState.Data)
	}
}

func TestExternalScannerStateRoundTrip(t *testing.T) {
	sc := &braceScanner{}
	for depth := 0; depth < 256; depth++ {
		payload := &braceState{depth: byte(depth)}
		saved := SaveExternalScannerState(sc, payload)

		restored := sc.Create().(*braceState)
		restored.depth = 77
		RestoreExternalScannerState(sc, restored, saved)
		if restored.depth != byte(depth) {
			t.Fatalf("depth %d restored as %d", depth, restored.depth)
		}
	}
	fresh := sc.Create()
	if s := SaveExternalScannerState(sc, fresh); !s.IsEmpty() {
		t.Fatalf("fresh state serialized to %v, want empty", s.Data)
	}
}

// oversizeScanner claims to have written more than the buffer holds.
type oversizeScanner struct{ NopScanner }

func (oversizeScanner) Serialize(any, []byte) int { return SerializationBufferSize + 1 }

func TestSaveExternalScannerStateRejectsOversize(t *testing.T) {
	if s := SaveExternalScannerState(oversizeScanner{}, nil); !s.IsEmpty() {
		t.Fatalf("oversize serialize kept %d bytes", len(s.Data))
	}
}

// bufferScanner records the buffer length it is asked to serialize into.
type bufferScanner struct {
	NopScanner
	got int
}

func (s *bufferScanner) Serialize(_ any, buf []byte) int {
	s.got = len(buf)
	return 0
}

func TestSaveExternalScannerStatePassesFullBuffer(t *testing.T) {
	sc := &bufferScanner{}
	SaveExternalScannerState(sc, nil)
	if sc.got != SerializationBufferSize {
		t.Fatalf("serialize buffer = %d bytes, want %d", sc.got, SerializationBufferSize)
	}
}

func TestResetExternalScannerFallsBackToDeserialize(t *testing.T) {
	sc := &braceScanner{}
	payload := &braceState{depth: 4}
	ResetExternalScanner(sc, payload)
	if payload.depth != 0 {
		t.Fatalf("depth after reset = %d, want 0", payload.depth)
	}
}

func TestExternalScannerStateClone(t *testing.T) {
	s := ExternalScannerState{Data: []byte{1, 2}}
	c := s.Clone()
	c.Data[0] = 9
	if s.Data[0] != 1 {
		t.Fatal("Clone aliases the original")
	}
	if !(ExternalScannerState{}).Clone().IsEmpty() {
		t.Fatal("clone of empty state should be empty")
	}
}

func TestNopScanner(t *testing.T) {
	var sc NopScanner
	payload := sc.Create()
	lang := &Language{ExternalTokenCount: 1, ExternalScanner: sc}
	l := NewExternalLexer([]byte("anything"), Position{})
	if _, ok := RunExternalScanner(lang, payload, l, []bool{true}); ok {
		t.Fatal("NopScanner produced a token")
	}
	if n := sc.Serialize(payload, make([]byte, 8)); n != 0 {
		t.Fatalf("Serialize = %d, want 0", n)
	}
	sc.Deserialize(payload, []byte{1, 2, 3})
	sc.Destroy(payload)
	sc.Destroy(payload)
}

func TestValidSymbolHelpers(t *testing.T) {
	if !ValidSymbolsEmpty(nil) || !ValidSymbolsEmpty([]bool{false, false}) {
		t.Error("ValidSymbolsEmpty should hold for nil and all-false sets")
	}
	if ValidSymbolsEmpty([]bool{false, true}) {
		t.Error("ValidSymbolsEmpty with one valid symbol")
	}
	if ValidSymbolsAll(nil) || ValidSymbolsAll([]bool{true, false}) {
		t.Error("ValidSymbolsAll should fail for nil and partial sets")
	}
	if !ValidSymbolsAll([]bool{true, true}) {
		t.Error("ValidSymbolsAll with all valid")
	}
}
