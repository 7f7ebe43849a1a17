package ledger

import (
	"sync"
	"time"
)

// SeedBalance is a test helper that credits an account's wallet out of thin
// air when using the in-memory ledger, growing total supply to match.
func SeedBalance(l Ledger, code string, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.get(code).walletBalance += amount
		mem.supply += amount
	}
}

// SeedTreasury is a test helper that funds the treasury directly so loan
// issuance can be exercised without routing fees first.
func SeedTreasury(l Ledger, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.treasury += amount
		mem.supply += amount
	}
}

// ManualClock is a settable Clock for deterministic accrual tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a manual clock at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
