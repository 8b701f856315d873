package codegen

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces the ID stamped on each compiled module.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 module IDs.
// It is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns predetermined IDs in order, for tests that
// compare compiled modules byte for byte.
type SequenceGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewSequenceGenerator creates a generator that returns ids in order.
func NewSequenceGenerator(ids ...string) *SequenceGenerator {
	return &SequenceGenerator{ids: ids}
}

// Generate returns the next ID. It panics once all IDs are consumed, which
// catches tests that compile more often than they expect.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("SequenceGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
