// Package identifier provides ID generation for domain records.
// Production code uses UUIDs; tests substitute a deterministic sequence.
// No external dependencies beyond the UUID library.
package identifier

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUIDGenerator produces random UUIDv4 identifiers.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new UUID string.
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator produces deterministic identifiers with a fixed prefix:
// "prefix-1", "prefix-2", ... Safe for concurrent use. Intended for tests
// that assert on generated IDs.
type SequenceGenerator struct {
	prefix  string
	counter atomic.Int64
}

// NewSequenceGenerator creates a SequenceGenerator with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}
