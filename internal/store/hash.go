package store

import (
	"crypto/sha256"
	"fmt"
)

// HashSource returns the hex SHA-256 of src. Stored checkpoints are only
// valid for the exact source they were recorded from.
func HashSource(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}
