package web

import "github.com/odvcencio/tree-sitter-gritql/gotreesitter"

type languageInfo struct {
	Name           string   `json:"name"`
	Extensions     []string `json:"extensions,omitempty"`
	Backend        string   `json:"backend"`
	ExternalTokens []string `json:"external_tokens,omitempty"`
}

type wirePoint struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

type tokenInfo struct {
	Symbol     uint16    `json:"symbol"`
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	StartByte  uint32    `json:"start_byte"`
	EndByte    uint32    `json:"end_byte"`
	StartPoint wirePoint `json:"start_point"`
	EndPoint   wirePoint `json:"end_point"`
}

// wireCheckpoint is a driver checkpoint on the wire. Scanner is the
// serialized scanner state, base64 encoded by encoding/json.
type wireCheckpoint struct {
	EndByte uint32 `json:"end_byte"`
	EndRow  uint32 `json:"end_row"`
	EndCol  uint32 `json:"end_col"`
	State   uint16 `json:"state"`
	Scanner []byte `json:"scanner,omitempty"`
}

type tokenizeResult struct {
	Tokens      []tokenInfo      `json:"tokens"`
	Checkpoints []wireCheckpoint `json:"checkpoints"`
}

type scanResult struct {
	Matched bool       `json:"matched"`
	Index   *int       `json:"index,omitempty"`
	Token   *tokenInfo `json:"token,omitempty"`
	State   []byte     `json:"state"`
}

func wireToken(lang *gotreesitter.Language, tok gotreesitter.Token) tokenInfo {
	return tokenInfo{
		Symbol:     uint16(tok.Symbol),
		Type:       lang.SymbolName(tok.Symbol),
		Text:       tok.Text,
		StartByte:  tok.StartByte,
		EndByte:    tok.EndByte,
		StartPoint: wirePoint{Row: tok.StartPoint.Row, Column: tok.StartPoint.Column},
		EndPoint:   wirePoint{Row: tok.EndPoint.Row, Column: tok.EndPoint.Column},
	}
}

func wireTokens(lang *gotreesitter.Language, toks []gotreesitter.Token) []tokenInfo {
	out := make([]tokenInfo, len(toks))
	for i, tok := range toks {
		out[i] = wireToken(lang, tok)
	}
	return out
}

func wireCheckpoints(cps []gotreesitter.Checkpoint) []wireCheckpoint {
	out := make([]wireCheckpoint, len(cps))
	for i, cp := range cps {
		out[i] = wireCheckpoint{
			EndByte: cp.EndByte,
			EndRow:  cp.EndPoint.Row,
			EndCol:  cp.EndPoint.Column,
			State:   uint16(cp.State),
			Scanner: cp.Scanner.Data,
		}
	}
	return out
}

func (c wireCheckpoint) checkpoint() gotreesitter.Checkpoint {
	return gotreesitter.Checkpoint{
		EndByte:  c.EndByte,
		EndPoint: gotreesitter.Point{Row: c.EndRow, Column: c.EndCol},
		State:    gotreesitter.StateID(c.State),
		Scanner:  gotreesitter.ExternalScannerState{Data: c.Scanner},
	}
}
