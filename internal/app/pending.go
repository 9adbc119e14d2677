package app

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// defaultPendingCapacity bounds the number of unresolved proposals kept.
const defaultPendingCapacity = 64

// PendingMoves holds proposals awaiting a decision from a remote caller.
// Every token resolves at most once; the least recent proposal is evicted when full.
type PendingMoves struct {
	mu      sync.Mutex
	tokens  IDGenerator
	entries *expirable.LRU[string, PendingMove]
}

// NewPendingMoves constructs a registry. A zero ttl keeps proposals until taken or evicted.
func NewPendingMoves(tokens IDGenerator, ttl time.Duration) *PendingMoves {
	if tokens == nil {
		tokens = CounterIDs("drag")
	}
	return &PendingMoves{
		tokens:  tokens,
		entries: expirable.NewLRU[string, PendingMove](defaultPendingCapacity, nil, ttl),
	}
}

// Put stores pm under a fresh token.
func (p *PendingMoves) Put(pm PendingMove) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range maxIDAttempts {
		token := p.tokens()
		if token == "" || p.entries.Contains(token) {
			continue
		}
		p.entries.Add(token, pm)
		return token, nil
	}
	return "", ErrIDsExhausted
}

// Take removes and returns the proposal for token.
func (p *PendingMoves) Take(token string) (PendingMove, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pm, ok := p.entries.Peek(token)
	p.entries.Remove(token)
	if !ok {
		return PendingMove{}, ErrNotFound
	}
	return pm, nil
}
