package ledger

import (
	"context"
	"sync"
)

// account is the five-field record the ledger keeps per account code.
// A missing map entry is equivalent to the zero value.
type account struct {
	walletBalance    int64
	stakedAmount     int64
	stakeStartedAt   int64 // unix seconds, 0 = no active stake
	loanPrincipal    int64
	collateralLocked int64
}

type inMemoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*account
	supply   int64
	treasury int64
	clock    Clock
}

// NewInMemory creates a concurrency-safe in-memory ledger. One mutex guards
// the whole account table so each operation is a serialized read-modify-write.
// A nil clock falls back to the system clock.
func NewInMemory(clock Clock) Ledger {
	if clock == nil {
		clock = SystemClock()
	}
	return &inMemoryLedger{
		accounts: make(map[string]*account),
		clock:    clock,
	}
}

// get returns the account for code, creating a zero-valued record on first
// reference. Callers must hold l.mu.
func (l *inMemoryLedger) get(code string) *account {
	acct, ok := l.accounts[code]
	if !ok {
		acct = &account{}
		l.accounts[code] = acct
	}
	return acct
}

func (l *inMemoryLedger) now() int64 { return l.clock.Now().Unix() }

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(code)
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[code]; ok {
		return acct.walletBalance, nil
	}
	return 0, nil
}

func (l *inMemoryLedger) Position(_ context.Context, code string) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[code]
	if !ok {
		return Position{}, nil
	}
	return Position{
		WalletBalance:    acct.walletBalance,
		StakedAmount:     acct.stakedAmount,
		StakeStartedAt:   acct.stakeStartedAt,
		LoanPrincipal:    acct.loanPrincipal,
		CollateralLocked: acct.collateralLocked,
		AccruedReward:    stakingReward(acct.stakedAmount, l.now()-acct.stakeStartedAt),
	}, nil
}

func (l *inMemoryLedger) AccruedReward(_ context.Context, code string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[code]
	if !ok || acct.stakedAmount == 0 {
		return 0, nil
	}
	return stakingReward(acct.stakedAmount, l.now()-acct.stakeStartedAt), nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode string, amount int64, feeEnabled bool) (TransferResult, error) {
	if toCode == "" {
		return TransferResult{}, ErrInvalidRecipient
	}
	if amount < 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.get(fromCode)
	if from.walletBalance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}
	to := l.get(toCode)

	var fee int64
	if feeEnabled && amount > 0 {
		fee = transferFee(amount)
	}
	net := amount - fee

	from.walletBalance -= amount
	to.walletBalance += net
	l.treasury += fee

	return TransferResult{
		FromBalance: from.walletBalance,
		ToBalance:   to.walletBalance,
		NetAmount:   net,
		Fee:         fee,
	}, nil
}

func (l *inMemoryLedger) Stake(_ context.Context, code string, amount int64) (StakeResult, error) {
	if amount <= 0 {
		return StakeResult{}, ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.get(code)
	if acct.walletBalance < amount {
		return StakeResult{}, ErrInsufficientFunds
	}

	now := l.now()

	// An existing stake compounds its pending reward into the principal
	// before the accrual window restarts. Rewards are minted, not drawn
	// from the treasury.
	var pending int64
	if acct.stakedAmount > 0 {
		pending = stakingReward(acct.stakedAmount, now-acct.stakeStartedAt)
		acct.stakedAmount += pending
		l.supply += pending
	}

	acct.walletBalance -= amount
	acct.stakedAmount += amount
	acct.stakeStartedAt = now

	return StakeResult{
		WalletBalance:  acct.walletBalance,
		StakedAmount:   acct.stakedAmount,
		Compounded:     pending,
		StakeStartedAt: acct.stakeStartedAt,
	}, nil
}

func (l *inMemoryLedger) Unstake(_ context.Context, code string, amount int64) (UnstakeResult, error) {
	if amount < 0 {
		return UnstakeResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.get(code)
	if acct.stakedAmount == 0 {
		return UnstakeResult{}, ErrNothingStaked
	}
	if amount == 0 {
		amount = acct.stakedAmount
	}
	if amount > acct.stakedAmount {
		return UnstakeResult{}, ErrUnstakeExceedsStake
	}

	now := l.now()
	reward := stakingReward(acct.stakedAmount, now-acct.stakeStartedAt)

	acct.stakedAmount -= amount
	acct.walletBalance += amount + reward
	l.supply += reward

	// Any remaining stake begins a fresh accrual window; the closed window's
	// reward was just paid out in full.
	if acct.stakedAmount == 0 {
		acct.stakeStartedAt = 0
	} else {
		acct.stakeStartedAt = now
	}

	return UnstakeResult{
		WalletBalance: acct.walletBalance,
		StakedAmount:  acct.stakedAmount,
		Unstaked:      amount,
		Reward:        reward,
	}, nil
}

func (l *inMemoryLedger) Borrow(_ context.Context, code string, loanAmount, collateralAmount int64) (BorrowResult, error) {
	if loanAmount <= 0 || collateralAmount <= 0 {
		return BorrowResult{}, ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.get(code)
	if acct.loanPrincipal != 0 {
		return BorrowResult{}, ErrLoanOutstanding
	}
	if acct.walletBalance < collateralAmount {
		return BorrowResult{}, ErrInsufficientFunds
	}
	if collateralAmount < minCollateral(loanAmount) {
		return BorrowResult{}, ErrInsufficientCollateral
	}
	if l.treasury < loanAmount {
		return BorrowResult{}, ErrInsufficientTreasury
	}

	acct.walletBalance -= collateralAmount
	acct.collateralLocked = collateralAmount
	acct.loanPrincipal = loanAmount
	acct.walletBalance += loanAmount
	l.treasury -= loanAmount

	return BorrowResult{
		WalletBalance:    acct.walletBalance,
		LoanPrincipal:    acct.loanPrincipal,
		CollateralLocked: acct.collateralLocked,
		TreasuryBalance:  l.treasury,
	}, nil
}

func (l *inMemoryLedger) Repay(_ context.Context, code string, amount int64) (RepayResult, error) {
	if amount < 0 {
		return RepayResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.get(code)
	if acct.loanPrincipal == 0 {
		return RepayResult{}, ErrNoActiveLoan
	}
	if acct.walletBalance < amount {
		return RepayResult{}, ErrInsufficientFunds
	}
	// Full repayment only. Anything beyond the principal is absorbed by the
	// treasury with no refund.
	if amount < acct.loanPrincipal {
		return RepayResult{}, ErrRepaymentTooSmall
	}

	released := acct.collateralLocked

	acct.walletBalance -= amount
	l.treasury += amount
	acct.walletBalance += released
	acct.loanPrincipal = 0
	acct.collateralLocked = 0

	return RepayResult{
		WalletBalance:      acct.walletBalance,
		Repaid:             amount,
		CollateralReleased: released,
		TreasuryBalance:    l.treasury,
	}, nil
}

func (l *inMemoryLedger) MintInitialSupply(_ context.Context, code string, amount int64) error {
	if amount <= 0 {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.supply != 0 {
		return ErrSupplyAlreadyMinted
	}

	acct := l.get(code)
	acct.walletBalance += amount
	l.supply = amount
	return nil
}

func (l *inMemoryLedger) Supply(_ context.Context) (SupplyInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return SupplyInfo{TotalSupply: l.supply, TreasuryBalance: l.treasury}, nil
}
