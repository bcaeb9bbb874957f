package coherency

import "sync"

// Guard wraps a Token behind one mutex. Writes are rare and every
// critical section is O(1), so reads take the same lock instead of a
// separate fast path. Each tracked state category owns its own Guard,
// created at feature start and mutated only by the single writer.
type Guard struct {
	mu  sync.Mutex
	seq Sequencer
	tok Token
}

// NewGuard returns a guard around a fresh token driven by the system
// clock.
func NewGuard() *Guard { return NewGuardWith(DefaultSequencer) }

// NewGuardWith is NewGuard with an explicit sequence source. A nil seq
// falls back to DefaultSequencer.
func NewGuardWith(seq Sequencer) *Guard {
	if seq == nil {
		seq = DefaultSequencer
	}
	return &Guard{seq: seq, tok: NewWith(seq)}
}

// Get returns a copy of the current token.
func (g *Guard) Get() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tok
}

// Set adopts tok as the current token.
func (g *Guard) Set(tok Token) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tok.Set(tok)
}

// Increment advances the sequence id and returns the resulting token.
func (g *Guard) Increment() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tok.IncrementWith(g.seq)
	return g.tok
}

// Check classifies a poller-supplied pair against the current token.
func (g *Guard) Check(instanceID, sequenceID string) Freshness {
	return g.Get().Check(instanceID, sequenceID)
}
