package release

import (
	"sync"
	"time"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator hands out unique int64 ids for projects, versions, and
// test records. Implementations must be safe for concurrent use.
type IDGenerator interface {
	Next() int64
}

// Seeder is implemented by id generators whose floor can be raised to
// stay above ids already present in a loaded or imported document.
type Seeder interface {
	Seed(floor int64)
}

// SeqIDGenerator is a monotonic counter. Unlike the clock-derived ids
// of older installations, it stays unique under rapid sequential
// creation.
type SeqIDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewSeqIDGenerator creates a generator whose first id is last+1.
func NewSeqIDGenerator(last int64) *SeqIDGenerator {
	return &SeqIDGenerator{last: last}
}

func (g *SeqIDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last++
	return g.last
}

// Seed raises the floor so subsequent ids are greater than floor.
// Lowering the floor is a no-op.
func (g *SeqIDGenerator) Seed(floor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if floor > g.last {
		g.last = floor
	}
}
