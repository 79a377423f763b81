package store

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash identifies a file's content. Unchanged files hash the same
// across runs and are skipped.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
