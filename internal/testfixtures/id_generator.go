package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out "<prefix>-1", "<prefix>-2", ... so tests can predict
// the identifiers and tokens a service will assign.
type IDGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewIDGenerator returns a sequence under prefix, "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) format(n uint64) string {
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}

// Next issues the next identifier. Safe for concurrent use.
func (g *IDGenerator) Next() string {
	return g.format(g.n.Add(1))
}

// NextFunc is Next as an injectable func. A nil generator yields empty ids.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Last is the most recent identifier, or "" before the first call.
func (g *IDGenerator) Last() string {
	n := g.n.Load()
	if n == 0 {
		return ""
	}
	return g.format(n)
}

// Peek is the identifier the next call to Next will return.
func (g *IDGenerator) Peek() string {
	return g.format(g.n.Load() + 1)
}
