package store

import "time"

type File struct {
	ID        int64
	Path      string
	Language  string
	Hash      string
	IndexedAt time.Time
}

// Checkpoint is a stored resume point. ScannerState holds the serialized
// external scanner state verbatim; nil means the default state.
type Checkpoint struct {
	Ordinal      int
	EndByte      uint32
	EndRow       uint32
	EndCol       uint32
	State        uint16
	ScannerState []byte
}
