package ledger

import (
	"context"
	"errors"
)

var (
	// ErrInvalidRecipient occurs when a transfer names an empty destination account.
	ErrInvalidRecipient = errors.New("invalid recipient account")

	// ErrInvalidAmount occurs when a caller passes a negative amount.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrZeroAmount occurs when an operation requires a strictly positive amount.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds occurs when the account lacks spendable balance
	// to cover a requested debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNothingStaked occurs when unstaking from an account with no active stake.
	ErrNothingStaked = errors.New("no active stake")

	// ErrUnstakeExceedsStake occurs when the requested amount is larger than
	// the currently staked balance.
	ErrUnstakeExceedsStake = errors.New("unstake amount exceeds staked balance")

	// ErrLoanOutstanding occurs when opening a loan while one is still active.
	ErrLoanOutstanding = errors.New("loan already outstanding")

	// ErrNoActiveLoan occurs when repaying an account with no loan.
	ErrNoActiveLoan = errors.New("no active loan")

	// ErrInsufficientCollateral occurs when the offered collateral is below
	// the 150% minimum for the requested loan.
	ErrInsufficientCollateral = errors.New("insufficient collateral")

	// ErrInsufficientTreasury occurs when the treasury cannot fund the loan.
	ErrInsufficientTreasury = errors.New("insufficient treasury liquidity")

	// ErrRepaymentTooSmall occurs when a repayment does not cover the full
	// outstanding principal. Partial repayment is not supported.
	ErrRepaymentTooSmall = errors.New("repayment below outstanding principal")

	// ErrSupplyAlreadyMinted occurs when the one-time initial mint is repeated.
	ErrSupplyAlreadyMinted = errors.New("initial supply already minted")
)

const (
	// StakingRatePercent is the simple annual staking reward rate.
	StakingRatePercent = 5
	// CollateralRatioPercent is the minimum collateral-to-principal ratio
	// checked at loan issuance. There is no mark-to-market afterwards.
	CollateralRatioPercent = 150
	// LoanInterestRatePercent is declared for the lending product but is not
	// applied to the repayment amount: total debt equals principal only.
	// In production, accumulated interest would be added here.
	LoanInterestRatePercent = 8
	// TransferFeeBps is the optional transfer fee in basis points (0.01%).
	// Transfers under 10,000 tokens truncate to a zero fee.
	TransferFeeBps = 1
	// SecondsPerYear is the accrual year used for staking rewards.
	SecondsPerYear = 31_536_000
)

// Position is the full snapshot of one account, including the reward accrued
// in the current staking window.
type Position struct {
	WalletBalance    int64
	StakedAmount     int64
	StakeStartedAt   int64 // unix seconds, zero when nothing is staked
	LoanPrincipal    int64
	CollateralLocked int64
	AccruedReward    int64
}

// TransferResult captures the outcome of a transfer posting.
type TransferResult struct {
	FromBalance int64
	ToBalance   int64
	NetAmount   int64
	Fee         int64
}

// StakeResult captures the outcome of a stake operation.
type StakeResult struct {
	WalletBalance  int64
	StakedAmount   int64
	Compounded     int64 // pending reward folded into the stake, freshly minted
	StakeStartedAt int64
}

// UnstakeResult captures the outcome of an unstake operation.
type UnstakeResult struct {
	WalletBalance int64
	StakedAmount  int64
	Unstaked      int64
	Reward        int64
}

// BorrowResult captures the outcome of a loan issuance.
type BorrowResult struct {
	WalletBalance    int64
	LoanPrincipal    int64
	CollateralLocked int64
	TreasuryBalance  int64
}

// RepayResult captures the outcome of a loan repayment.
type RepayResult struct {
	WalletBalance      int64
	Repaid             int64
	CollateralReleased int64
	TreasuryBalance    int64
}

// SupplyInfo reports the ledger-wide aggregates.
type SupplyInfo struct {
	TotalSupply     int64
	TreasuryBalance int64
}

// Ledger defines the contract implemented by ledger backends (in-memory and
// Postgres). Accounts come into existence lazily with zero values on first
// reference and are never removed. Every operation is an atomic state
// transition: all preconditions are checked before any balance moves, and a
// failed operation leaves the ledger untouched.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Position(ctx context.Context, code string) (Position, error)
	AccruedReward(ctx context.Context, code string) (int64, error)

	// Transfer debits amount from fromCode and credits the net to toCode.
	// With feeEnabled, 1 bp of the amount (truncated) goes to the treasury.
	// A zero amount is a permitted no-op.
	Transfer(ctx context.Context, fromCode, toCode string, amount int64, feeEnabled bool) (TransferResult, error)

	// Stake locks amount from the wallet. A pre-existing stake first has its
	// pending reward minted and folded into the principal, then the accrual
	// window restarts.
	Stake(ctx context.Context, code string, amount int64) (StakeResult, error)

	// Unstake releases amount plus the reward accrued over the closing
	// window. A zero amount unstakes the full staked balance.
	Unstake(ctx context.Context, code string, amount int64) (UnstakeResult, error)

	// Borrow opens the account's single loan, locking collateral from the
	// wallet and funding the principal from the treasury.
	Borrow(ctx context.Context, code string, loanAmount, collateralAmount int64) (BorrowResult, error)

	// Repay settles the full principal in one call and releases the entire
	// collateral. Any amount beyond the principal is kept by the treasury.
	Repay(ctx context.Context, code string, amount int64) (RepayResult, error)

	// MintInitialSupply assigns the full initial supply to one account.
	// Callable exactly once per ledger.
	MintInitialSupply(ctx context.Context, code string, amount int64) error

	Supply(ctx context.Context) (SupplyInfo, error)
}
