package gotreesitter

// StateTracker advances the parser state after each token. The scan driver
// uses the state only to select a LexMode, so any pure function of
// (state, token) that mimics the grammar's shifts is enough.
type StateTracker func(state StateID, tok Token) StateID

// Checkpoint is everything needed to resume scanning right after a token:
// the position, the parser state and the serialized external scanner state.
type Checkpoint struct {
	EndByte  uint32
	EndPoint Point
	State    StateID
	Scanner  ExternalScannerState
}

// Position returns the checkpoint's resume position.
func (c Checkpoint) Position() Position {
	return Position{Byte: c.EndByte, Point: c.EndPoint}
}

func (c Checkpoint) same(other Checkpoint) bool {
	return c.EndByte == other.EndByte && c.EndPoint == other.EndPoint &&
		c.State == other.State && c.Scanner.Equal(other.Scanner)
}

// ScanDriver is the host side of the external scanner contract. For every
// token it consults the external scanner when the current lex mode allows
// it and falls back to the static lexer otherwise, then snapshots the
// scanner state the way a parser snapshots it on every stack entry.
//
// A ScanDriver is not safe for concurrent use.
type ScanDriver struct {
	lang    *Language
	static  StaticLexer
	tracker StateTracker
	source  []byte

	payload any
	closed  bool

	pos   Position
	state StateID
	done  bool

	external    *ExternalLexer
	checkpoints []Checkpoint
}

// NewScanDriver creates a driver over source. A nil tracker keeps the parser
// in its initial state.
func NewScanDriver(lang *Language, static StaticLexer, source []byte, tracker StateTracker) *ScanDriver {
	d := &ScanDriver{
		lang:    lang,
		static:  static,
		tracker: tracker,
		source:  source,
	}
	if lang.ExternalScanner != nil {
		d.payload = lang.ExternalScanner.Create()
		d.external = NewExternalLexer(source, Position{})
	}
	return d
}

// State returns the current parser state.
func (d *ScanDriver) State() StateID {
	return d.state
}

// Position returns where the next token scan starts.
func (d *ScanDriver) Position() Position {
	return d.pos
}

// ScannerState serializes the current external scanner state.
func (d *ScanDriver) ScannerState() ExternalScannerState {
	if d.closed {
		return ExternalScannerState{}
	}
	return SaveExternalScannerState(d.lang.ExternalScanner, d.payload)
}

// Next returns the next token. At EOF it keeps returning the EOF token.
// External tokens carry their language symbol, not the external index.
func (d *ScanDriver) Next() Token {
	if d.done {
		return d.eof()
	}

	if tok, ok := d.scanExternal(); ok {
		d.accept(tok)
		return tok
	}

	d.static.Seek(d.pos)
	tok := d.static.Next(d.lang.LexModeFor(d.state).LexState)
	if tok.IsEOF() {
		d.done = true
		d.pos = tok.End()
		d.record()
		return tok
	}
	d.accept(tok)
	return tok
}

// All scans to EOF and returns every token, excluding the EOF token.
func (d *ScanDriver) All() []Token {
	var out []Token
	for {
		tok := d.Next()
		if tok.IsEOF() {
			return out
		}
		out = append(out, tok)
	}
}

func (d *ScanDriver) scanExternal() (Token, bool) {
	if d.closed || d.external == nil {
		return Token{}, false
	}
	mode := d.lang.LexModeFor(d.state)
	if mode.ExternalLexState == 0 {
		return Token{}, false
	}
	valid := d.lang.ValidExternalSymbols(mode.ExternalLexState)

	before := SaveExternalScannerState(d.lang.ExternalScanner, d.payload)
	d.external.reset(d.pos)
	tok, ok := RunExternalScanner(d.lang, d.payload, d.external, valid)
	if !ok {
		return Token{}, false
	}
	sym, known := d.lang.ExternalSymbol(tok.Symbol)
	if !known || tok.EndByte <= d.pos.Byte {
		// Zero-width or unmapped tokens would stall the driver.
		RestoreExternalScannerState(d.lang.ExternalScanner, d.payload, before)
		return Token{}, false
	}
	tok.Symbol = sym
	return tok, true
}

func (d *ScanDriver) accept(tok Token) {
	d.pos = tok.End()
	if d.tracker != nil {
		d.state = d.tracker(d.state, tok)
	}
	d.record()
}

func (d *ScanDriver) record() {
	d.checkpoints = append(d.checkpoints, Checkpoint{
		EndByte:  d.pos.Byte,
		EndPoint: d.pos.Point,
		State:    d.state,
		Scanner:  d.ScannerState(),
	})
}

func (d *ScanDriver) eof() Token {
	return Token{
		StartByte:  d.pos.Byte,
		EndByte:    d.pos.Byte,
		StartPoint: d.pos.Point,
		EndPoint:   d.pos.Point,
	}
}

// Checkpoints returns the checkpoints recorded so far, one per token in
// scan order. The last one of a finished scan sits at EOF.
func (d *ScanDriver) Checkpoints() []Checkpoint {
	return d.checkpoints
}

// Resume restarts scanning from cp. Checkpoints recorded after cp are
// dropped; the scanner state is restored verbatim. A cp that is not one of
// the driver's own checkpoints keeps only those that end before it.
func (d *ScanDriver) Resume(cp Checkpoint) {
	finished := d.done
	d.checkpoints = d.checkpoints[:d.resumeIndex(cp, finished)]

	if int(cp.EndByte) > len(d.source) {
		cp.EndByte = uint32(len(d.source))
	}
	d.pos = cp.Position()
	d.state = cp.State
	d.done = false
	if !d.closed {
		RestoreExternalScannerState(d.lang.ExternalScanner, d.payload, cp.Scanner)
	}
}

// resumeIndex returns how many recorded checkpoints survive a resume from cp.
func (d *ScanDriver) resumeIndex(cp Checkpoint, finished bool) int {
	for i, c := range d.checkpoints {
		if !c.same(cp) {
			continue
		}
		if finished && i == len(d.checkpoints)-1 {
			// The rescan records the EOF checkpoint again.
			return i
		}
		return i + 1
	}
	n := 0
	for n < len(d.checkpoints) && d.checkpoints[n].EndByte < cp.EndByte {
		n++
	}
	return n
}

// Close destroys the scanner payload. It is safe to call more than once;
// a closed driver keeps lexing with the static lexer only.
func (d *ScanDriver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.lang.ExternalScanner != nil {
		d.lang.ExternalScanner.Destroy(d.payload)
	}
	d.payload = nil
}
