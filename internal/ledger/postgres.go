package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists ledger state in PostgreSQL. Expected schema:
//
//	accounts(code TEXT PRIMARY KEY, wallet_balance BIGINT, staked_amount BIGINT,
//	         stake_started_at BIGINT, loan_principal BIGINT, collateral_locked BIGINT)
//	ledger_state(id SMALLINT PRIMARY KEY, total_supply BIGINT, treasury_balance BIGINT)
//
// with every numeric column NOT NULL DEFAULT 0.
//
// Every operation runs in a transaction that locks the singleton ledger_state
// row first, which serializes all state transitions the same way the single
// mutex does for the in-memory backend.
type PostgresLedger struct {
	db    *pgxpool.Pool
	clock Clock
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
// A nil clock falls back to the system clock.
func NewPostgresLedger(db *pgxpool.Pool, clock Clock) *PostgresLedger {
	if clock == nil {
		clock = SystemClock()
	}
	return &PostgresLedger{db: db, clock: clock}
}

type ledgerState struct {
	totalSupply int64
	treasury    int64
}

func lockState(ctx context.Context, tx pgx.Tx) (ledgerState, error) {
	var st ledgerState
	err := tx.QueryRow(ctx, `SELECT total_supply, treasury_balance FROM ledger_state WHERE id = 1 FOR UPDATE`).
		Scan(&st.totalSupply, &st.treasury)
	if errors.Is(err, pgx.ErrNoRows) {
		// First-ever operation on a fresh database. Upsert so two concurrent
		// transactions cannot race to a key conflict, then re-select to hold
		// the row lock for the rest of the transaction.
		if _, err := tx.Exec(ctx, `INSERT INTO ledger_state (id, total_supply, treasury_balance) VALUES (1, 0, 0) ON CONFLICT (id) DO NOTHING`); err != nil {
			return ledgerState{}, err
		}
		err = tx.QueryRow(ctx, `SELECT total_supply, treasury_balance FROM ledger_state WHERE id = 1 FOR UPDATE`).
			Scan(&st.totalSupply, &st.treasury)
	}
	return st, err
}

func saveState(ctx context.Context, tx pgx.Tx, st ledgerState) error {
	_, err := tx.Exec(ctx, `UPDATE ledger_state SET total_supply = $1, treasury_balance = $2 WHERE id = 1`,
		st.totalSupply, st.treasury)
	return err
}

// lockAccount upserts the default-valued record for code and returns it under
// a row lock, giving accounts their lazy zero-valued existence.
func lockAccount(ctx context.Context, tx pgx.Tx, code string) (account, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO accounts (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, code); err != nil {
		return account{}, err
	}
	var acct account
	err := tx.QueryRow(ctx, `SELECT wallet_balance, staked_amount, stake_started_at, loan_principal, collateral_locked
        FROM accounts WHERE code = $1 FOR UPDATE`, code).
		Scan(&acct.walletBalance, &acct.stakedAmount, &acct.stakeStartedAt, &acct.loanPrincipal, &acct.collateralLocked)
	return acct, err
}

func saveAccount(ctx context.Context, tx pgx.Tx, code string, acct account) error {
	_, err := tx.Exec(ctx, `UPDATE accounts
        SET wallet_balance = $1, staked_amount = $2, stake_started_at = $3, loan_principal = $4, collateral_locked = $5
        WHERE code = $6`,
		acct.walletBalance, acct.stakedAmount, acct.stakeStartedAt, acct.loanPrincipal, acct.collateralLocked, code)
	return err
}

func (l *PostgresLedger) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureAccount guarantees an account row exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, code)
	return err
}

// Balance returns the spendable wallet balance for code, zero if unknown.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT wallet_balance FROM accounts WHERE code = $1`, code).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

// Position returns the full account snapshot with live reward accrual.
func (l *PostgresLedger) Position(ctx context.Context, code string) (Position, error) {
	var pos Position
	err := l.db.QueryRow(ctx, `SELECT wallet_balance, staked_amount, stake_started_at, loan_principal, collateral_locked
        FROM accounts WHERE code = $1`, code).
		Scan(&pos.WalletBalance, &pos.StakedAmount, &pos.StakeStartedAt, &pos.LoanPrincipal, &pos.CollateralLocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return Position{}, nil
	}
	if err != nil {
		return Position{}, err
	}
	pos.AccruedReward = stakingReward(pos.StakedAmount, l.clock.Now().Unix()-pos.StakeStartedAt)
	return pos, nil
}

// AccruedReward returns the reward earned in the current staking window.
func (l *PostgresLedger) AccruedReward(ctx context.Context, code string) (int64, error) {
	pos, err := l.Position(ctx, code)
	if err != nil {
		return 0, err
	}
	return pos.AccruedReward, nil
}

// Transfer debits amount from fromCode and credits the net to toCode inside
// one transaction.
func (l *PostgresLedger) Transfer(ctx context.Context, fromCode, toCode string, amount int64, feeEnabled bool) (TransferResult, error) {
	if toCode == "" {
		return TransferResult{}, ErrInvalidRecipient
	}
	if amount < 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	var res TransferResult
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		from, err := lockAccount(ctx, tx, fromCode)
		if err != nil {
			return err
		}
		if from.walletBalance < amount {
			return ErrInsufficientFunds
		}

		// Self-transfers must not double-load the row.
		if fromCode == toCode {
			var fee int64
			if feeEnabled && amount > 0 {
				fee = transferFee(amount)
			}
			from.walletBalance -= fee
			st.treasury += fee
			if err := saveAccount(ctx, tx, fromCode, from); err != nil {
				return err
			}
			if err := saveState(ctx, tx, st); err != nil {
				return err
			}
			res = TransferResult{FromBalance: from.walletBalance, ToBalance: from.walletBalance, NetAmount: amount - fee, Fee: fee}
			return nil
		}

		to, err := lockAccount(ctx, tx, toCode)
		if err != nil {
			return err
		}

		var fee int64
		if feeEnabled && amount > 0 {
			fee = transferFee(amount)
		}
		net := amount - fee

		from.walletBalance -= amount
		to.walletBalance += net
		st.treasury += fee

		if err := saveAccount(ctx, tx, fromCode, from); err != nil {
			return err
		}
		if err := saveAccount(ctx, tx, toCode, to); err != nil {
			return err
		}
		if err := saveState(ctx, tx, st); err != nil {
			return err
		}

		res = TransferResult{FromBalance: from.walletBalance, ToBalance: to.walletBalance, NetAmount: net, Fee: fee}
		return nil
	})
	return res, err
}

// Stake locks amount from the wallet, compounding any pending reward first.
func (l *PostgresLedger) Stake(ctx context.Context, code string, amount int64) (StakeResult, error) {
	if amount <= 0 {
		return StakeResult{}, ErrZeroAmount
	}

	var res StakeResult
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		acct, err := lockAccount(ctx, tx, code)
		if err != nil {
			return err
		}
		if acct.walletBalance < amount {
			return ErrInsufficientFunds
		}

		now := l.clock.Now().Unix()

		var pending int64
		if acct.stakedAmount > 0 {
			pending = stakingReward(acct.stakedAmount, now-acct.stakeStartedAt)
			acct.stakedAmount += pending
			st.totalSupply += pending
		}

		acct.walletBalance -= amount
		acct.stakedAmount += amount
		acct.stakeStartedAt = now

		if err := saveAccount(ctx, tx, code, acct); err != nil {
			return err
		}
		if err := saveState(ctx, tx, st); err != nil {
			return err
		}

		res = StakeResult{
			WalletBalance:  acct.walletBalance,
			StakedAmount:   acct.stakedAmount,
			Compounded:     pending,
			StakeStartedAt: acct.stakeStartedAt,
		}
		return nil
	})
	return res, err
}

// Unstake releases amount (zero = all) plus the accrued reward.
func (l *PostgresLedger) Unstake(ctx context.Context, code string, amount int64) (UnstakeResult, error) {
	if amount < 0 {
		return UnstakeResult{}, ErrInvalidAmount
	}

	var res UnstakeResult
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		acct, err := lockAccount(ctx, tx, code)
		if err != nil {
			return err
		}
		if acct.stakedAmount == 0 {
			return ErrNothingStaked
		}
		requested := amount
		if requested == 0 {
			requested = acct.stakedAmount
		}
		if requested > acct.stakedAmount {
			return ErrUnstakeExceedsStake
		}

		now := l.clock.Now().Unix()
		reward := stakingReward(acct.stakedAmount, now-acct.stakeStartedAt)

		acct.stakedAmount -= requested
		acct.walletBalance += requested + reward
		st.totalSupply += reward
		if acct.stakedAmount == 0 {
			acct.stakeStartedAt = 0
		} else {
			acct.stakeStartedAt = now
		}

		if err := saveAccount(ctx, tx, code, acct); err != nil {
			return err
		}
		if err := saveState(ctx, tx, st); err != nil {
			return err
		}

		res = UnstakeResult{
			WalletBalance: acct.walletBalance,
			StakedAmount:  acct.stakedAmount,
			Unstaked:      requested,
			Reward:        reward,
		}
		return nil
	})
	return res, err
}

// Borrow opens the account's single loan against locked collateral.
func (l *PostgresLedger) Borrow(ctx context.Context, code string, loanAmount, collateralAmount int64) (BorrowResult, error) {
	if loanAmount <= 0 || collateralAmount <= 0 {
		return BorrowResult{}, ErrZeroAmount
	}

	var res BorrowResult
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		acct, err := lockAccount(ctx, tx, code)
		if err != nil {
			return err
		}
		if acct.loanPrincipal != 0 {
			return ErrLoanOutstanding
		}
		if acct.walletBalance < collateralAmount {
			return ErrInsufficientFunds
		}
		if collateralAmount < minCollateral(loanAmount) {
			return ErrInsufficientCollateral
		}
		if st.treasury < loanAmount {
			return ErrInsufficientTreasury
		}

		acct.walletBalance -= collateralAmount
		acct.collateralLocked = collateralAmount
		acct.loanPrincipal = loanAmount
		acct.walletBalance += loanAmount
		st.treasury -= loanAmount

		if err := saveAccount(ctx, tx, code, acct); err != nil {
			return err
		}
		if err := saveState(ctx, tx, st); err != nil {
			return err
		}

		res = BorrowResult{
			WalletBalance:    acct.walletBalance,
			LoanPrincipal:    acct.loanPrincipal,
			CollateralLocked: acct.collateralLocked,
			TreasuryBalance:  st.treasury,
		}
		return nil
	})
	return res, err
}

// Repay settles the full principal and releases the entire collateral.
func (l *PostgresLedger) Repay(ctx context.Context, code string, amount int64) (RepayResult, error) {
	if amount < 0 {
		return RepayResult{}, ErrInvalidAmount
	}

	var res RepayResult
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		acct, err := lockAccount(ctx, tx, code)
		if err != nil {
			return err
		}
		if acct.loanPrincipal == 0 {
			return ErrNoActiveLoan
		}
		if acct.walletBalance < amount {
			return ErrInsufficientFunds
		}
		if amount < acct.loanPrincipal {
			return ErrRepaymentTooSmall
		}

		released := acct.collateralLocked

		acct.walletBalance -= amount
		st.treasury += amount
		acct.walletBalance += released
		acct.loanPrincipal = 0
		acct.collateralLocked = 0

		if err := saveAccount(ctx, tx, code, acct); err != nil {
			return err
		}
		if err := saveState(ctx, tx, st); err != nil {
			return err
		}

		res = RepayResult{
			WalletBalance:      acct.walletBalance,
			Repaid:             amount,
			CollateralReleased: released,
			TreasuryBalance:    st.treasury,
		}
		return nil
	})
	return res, err
}

// MintInitialSupply assigns the initial supply to one account, once.
func (l *PostgresLedger) MintInitialSupply(ctx context.Context, code string, amount int64) error {
	if amount <= 0 {
		return ErrZeroAmount
	}

	return l.withTx(ctx, func(tx pgx.Tx) error {
		st, err := lockState(ctx, tx)
		if err != nil {
			return err
		}
		if st.totalSupply != 0 {
			return ErrSupplyAlreadyMinted
		}
		acct, err := lockAccount(ctx, tx, code)
		if err != nil {
			return err
		}

		acct.walletBalance += amount
		st.totalSupply = amount

		if err := saveAccount(ctx, tx, code, acct); err != nil {
			return err
		}
		return saveState(ctx, tx, st)
	})
}

// Supply reports the ledger-wide aggregates.
func (l *PostgresLedger) Supply(ctx context.Context) (SupplyInfo, error) {
	var info SupplyInfo
	err := l.db.QueryRow(ctx, `SELECT total_supply, treasury_balance FROM ledger_state WHERE id = 1`).
		Scan(&info.TotalSupply, &info.TreasuryBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return SupplyInfo{}, nil
	}
	if err != nil {
		return SupplyInfo{}, fmt.Errorf("read ledger state: %w", err)
	}
	return info, nil
}
