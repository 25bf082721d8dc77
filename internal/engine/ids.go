package engine

import (
	"sync"

	"github.com/google/uuid"
)

// DeliveryIDGenerator produces delivery ids for events whose transport
// did not carry one. Implemented by UUIDv7Generator (production) and
// FixedGenerator (tests).
type DeliveryIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 delivery ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so generated
// ids sort roughly by arrival time next to transport-assigned ones.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids for testing, in order.
// Panics when exhausted - a test consuming more ids than it declared
// is a test bug.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
