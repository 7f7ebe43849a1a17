package wallet

import "time"

// Wallet represents a token account owned by a registered user. The ledger
// tracks balances under AccountCode; the wallet record only holds metadata.
type Wallet struct {
	ID          string
	OwnerID     string
	AccountCode string
	Status      string
	CreatedAt   time.Time
}

// Balance encapsulates the spendable funds of a wallet.
type Balance struct {
	WalletID string
	Amount   int64
	AsOf     time.Time
}
