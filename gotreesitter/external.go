package gotreesitter

import "bytes"

// SerializationBufferSize is the capacity of the buffer handed to
// ExternalScanner.Serialize. The host persists this many bytes at most for
// every token, so scanners must keep their state small.
const SerializationBufferSize = 1024

// ExternalScanner is the interface for language-specific external scanners.
// Languages need these for context-sensitive tokens the static lexer cannot
// express: indentation, heredocs, nested delimiters and the like.
//
// The payload returned by Create is owned by the scanner; the host only
// passes it back. Calls on one payload never overlap.
//
// Scan inspects the input through lexer. On success it has advanced past the
// token, called SetResultSymbol with an external token index whose entry in
// validSymbols is true, and returns true. Otherwise it returns false and the
// host discards any cursor movement. Scan must be deterministic in
// (payload state, input at cursor, validSymbols).
//
// Serialize writes the payload state into buf and returns the byte count;
// 0 means the default state. The host always passes a buffer of exactly
// SerializationBufferSize bytes. Deserialize must accept anything Serialize
// produced and reset to the default state on any other input.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)
	Serialize(payload any, buf []byte) int
	Deserialize(payload any, buf []byte)
	Scan(payload any, lexer *ExternalLexer, validSymbols []bool) bool
}

// ExternalScannerResetter is implemented by scanners with a dedicated reset
// hook. Scanners without one are reset by deserializing an empty buffer.
type ExternalScannerResetter interface {
	Reset(payload any)
}

// ExternalScannerState holds serialized state for an external scanner
// between incremental parse runs.
type ExternalScannerState struct {
	Data []byte
}

// IsEmpty reports whether the state is the scanner's default state.
func (s ExternalScannerState) IsEmpty() bool {
	return len(s.Data) == 0
}

// Equal reports whether two states hold the same bytes.
func (s ExternalScannerState) Equal(other ExternalScannerState) bool {
	return bytes.Equal(s.Data, other.Data)
}

// Clone returns a copy that does not alias s.
func (s ExternalScannerState) Clone() ExternalScannerState {
	if len(s.Data) == 0 {
		return ExternalScannerState{}
	}
	return ExternalScannerState{Data: append([]byte(nil), s.Data...)}
}

// SaveExternalScannerState serializes payload through scanner. A byte count
// outside the buffer is treated as the default state.
func SaveExternalScannerState(scanner ExternalScanner, payload any) ExternalScannerState {
	if scanner == nil {
		return ExternalScannerState{}
	}
	var buf [SerializationBufferSize]byte
	n := scanner.Serialize(payload, buf[:])
	if n <= 0 || n > len(buf) {
		return ExternalScannerState{}
	}
	return ExternalScannerState{Data: append([]byte(nil), buf[:n]...)}
}

// RestoreExternalScannerState loads state into payload. An empty state
// resets the payload.
func RestoreExternalScannerState(scanner ExternalScanner, payload any, state ExternalScannerState) {
	if scanner == nil {
		return
	}
	if state.IsEmpty() {
		ResetExternalScanner(scanner, payload)
		return
	}
	scanner.Deserialize(payload, state.Data)
}

// ResetExternalScanner returns payload to its default state.
func ResetExternalScanner(scanner ExternalScanner, payload any) {
	if scanner == nil {
		return
	}
	if r, ok := scanner.(ExternalScannerResetter); ok {
		r.Reset(payload)
		return
	}
	scanner.Deserialize(payload, nil)
}

// ValidSymbolsEmpty reports whether no external token is acceptable.
func ValidSymbolsEmpty(validSymbols []bool) bool {
	for _, v := range validSymbols {
		if v {
			return false
		}
	}
	return true
}

// ValidSymbolsAll reports whether every external token is acceptable, which
// is how a parser in error recovery calls the scanner.
func ValidSymbolsAll(validSymbols []bool) bool {
	if len(validSymbols) == 0 {
		return false
	}
	for _, v := range validSymbols {
		if !v {
			return false
		}
	}
	return true
}

// RunExternalScanner invokes the language's external scanner if present.
// It returns the scanned token, whose Symbol is the external token index,
// and true when the scanner produced a token the valid set allows.
//
// On failure the lexer is rewound to where it started and the payload is
// restored, so a declining or misbehaving scanner is never observable.
func RunExternalScanner(lang *Language, payload any, lexer *ExternalLexer, validSymbols []bool) (Token, bool) {
	if lang == nil || lang.ExternalScanner == nil || lexer == nil {
		return Token{}, false
	}
	if ValidSymbolsEmpty(validSymbols) {
		return Token{}, false
	}

	scanner := lang.ExternalScanner
	start := lexer.Position()
	before := SaveExternalScannerState(scanner, payload)

	if scanner.Scan(payload, lexer, validSymbols) {
		tok, ok := lexer.token()
		if ok && int(tok.Symbol) < len(validSymbols) && validSymbols[tok.Symbol] {
			return tok, true
		}
	}
	RestoreExternalScannerState(scanner, payload, before)
	lexer.reset(start)
	return Token{}, false
}

// NopScanner is an external scanner that recognizes nothing. Scan always
// fails, so the host falls back to static tokenization; its state is empty.
type NopScanner struct{}

var _ ExternalScanner = NopScanner{}

func (NopScanner) Create() any { return nil }
func (NopScanner) Destroy(any) {}
func (NopScanner) Reset(any) {}
func (NopScanner) Serialize(any, []byte) int { return 0 }
func (NopScanner) Deserialize(any, []byte) {}
func (NopScanner) Scan(any, *ExternalLexer, []bool) bool { return false }
