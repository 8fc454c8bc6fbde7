package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// fixtureNamespace seeds deterministic UUIDs so fixture IDs look like the ones
// production hands out.
var fixtureNamespace = uuid.MustParse("6f1b4a52-0f3e-4c55-9d43-2c0e1c7b9a10")

// IDGenerator produces deterministic identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	uuids   bool
}

// NewIDGenerator yields "<prefix>-<n>" identifiers. An empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator yields name-based UUIDs derived from prefix and a counter,
// stable across runs.
func NewUUIDGenerator(prefix string) *IDGenerator {
	g := NewIDGenerator(prefix)
	g.uuids = true
	return g
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	name := fmt.Sprintf("%s-%d", g.prefix, g.counter)
	if g.uuids {
		return uuid.NewSHA1(fixtureNamespace, []byte(name)).String()
	}
	return name
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
