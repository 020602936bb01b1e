package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

var _ storage.TokenLedger = (*Ledger)(nil)

// Ledger is a process-local storage.TokenLedger. Expired marks are dropped
// lazily on Consume and in bulk by Sweep.
type Ledger struct {
	mu    sync.Mutex
	marks map[string]time.Time
	now   func() time.Time
}

// NewLedger returns an empty ledger using the wall clock.
func NewLedger() *Ledger {
	return NewLedgerWithClock(time.Now)
}

// NewLedgerWithClock returns an empty ledger that reads time from now.
func NewLedgerWithClock(now func() time.Time) *Ledger {
	return &Ledger{marks: make(map[string]time.Time), now: now}
}

// Consume marks id as used until ttl elapses.
func (l *Ledger) Consume(_ context.Context, id string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.marks[id]; ok && now.Before(until) {
		return storage.ErrTokenConsumed
	}
	l.marks[id] = now.Add(ttl)
	return nil
}

// Sweep removes expired marks and returns how many were removed.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, until := range l.marks {
		if !now.Before(until) {
			delete(l.marks, id)
			removed++
		}
	}
	return removed
}

// Len reports how many marks are held, expired or not.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.marks)
}
