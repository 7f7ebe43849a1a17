package ledger

import "time"

// Clock supplies the ledger's notion of "now" for staking accrual windows.
// The ledger only reads time; it never advances it. Implementations must be
// monotonically non-decreasing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
