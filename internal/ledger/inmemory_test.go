package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestLedger() (Ledger, *ManualClock) {
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	return NewInMemory(clock), clock
}

// totalTokens sums every balance the ledger tracks, including locked
// collateral, plus the treasury. It must always equal total supply.
func totalTokens(t *testing.T, l Ledger) int64 {
	t.Helper()
	mem := l.(*inMemoryLedger)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	var sum int64
	for _, acct := range mem.accounts {
		sum += acct.walletBalance + acct.stakedAmount + acct.collateralLocked
	}
	return sum + mem.treasury
}

func assertConserved(t *testing.T, l Ledger) {
	t.Helper()
	info, err := l.Supply(context.Background())
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if got := totalTokens(t, l); got != info.TotalSupply {
		t.Fatalf("supply not conserved: tokens=%d total_supply=%d", got, info.TotalSupply)
	}
}

func TestTransferFeeDisabled(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)

	res, err := l.Transfer(ctx, "acct:a", "acct:b", 2_500, false)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.FromBalance != 7_500 || res.ToBalance != 2_500 || res.Fee != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertConserved(t, l)
}

func TestTransferFeeCorrectness(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)

	res, err := l.Transfer(ctx, "acct:a", "acct:b", 10_000, true)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.Fee != 1 {
		t.Fatalf("expected fee 1, got %d", res.Fee)
	}
	if res.ToBalance != 9_999 {
		t.Fatalf("expected recipient balance 9999, got %d", res.ToBalance)
	}
	info, _ := l.Supply(ctx)
	if info.TreasuryBalance != 1 {
		t.Fatalf("expected treasury 1, got %d", info.TreasuryBalance)
	}
	assertConserved(t, l)
}

func TestTransferFeeTruncates(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 50_000)

	// 9999 * 1 / 10000 truncates to 0: transfers below 10,000 are fee-free.
	res, err := l.Transfer(ctx, "acct:a", "acct:b", 9_999, true)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.Fee != 0 || res.ToBalance != 9_999 {
		t.Fatalf("unexpected result: %+v", res)
	}

	// 19999 * 1 / 10000 truncates to 1.
	res, err = l.Transfer(ctx, "acct:a", "acct:c", 19_999, true)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.Fee != 1 || res.ToBalance != 19_998 {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertConserved(t, l)
}

func TestTransferZeroAmountIsNoop(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 5_000)

	for _, feeEnabled := range []bool{false, true} {
		res, err := l.Transfer(ctx, "acct:a", "acct:b", 0, feeEnabled)
		if err != nil {
			t.Fatalf("zero transfer (fee=%v) failed: %v", feeEnabled, err)
		}
		if res.FromBalance != 5_000 || res.ToBalance != 0 || res.Fee != 0 {
			t.Fatalf("zero transfer mutated balances: %+v", res)
		}
	}
}

func TestTransferInvalidRecipient(t *testing.T) {
	l, _ := newTestLedger()
	SeedBalance(l, "acct:a", 5_000)

	if _, err := l.Transfer(context.Background(), "acct:a", "", 100, false); err != ErrInvalidRecipient {
		t.Fatalf("expected invalid recipient, got %v", err)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100)

	if _, err := l.Transfer(ctx, "acct:a", "acct:b", 101, false); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	// Unknown sender has a zero default balance.
	if _, err := l.Transfer(ctx, "acct:ghost", "acct:b", 1, false); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds for unknown sender, got %v", err)
	}
	if bal, _ := l.Balance(ctx, "acct:a"); bal != 100 {
		t.Fatalf("failed transfer mutated balance: %d", bal)
	}
}

func TestTransferConservation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100_000)

	amounts := []int64{1, 10_000, 500, 0, 33_333, 9_999}
	for i, amount := range amounts {
		if _, err := l.Transfer(ctx, "acct:a", fmt.Sprintf("acct:%d", i), amount, i%2 == 0); err != nil {
			t.Fatalf("transfer %d failed: %v", i, err)
		}
		assertConserved(t, l)
	}
}

func TestAccruedRewardFullYear(t *testing.T) {
	l, clock := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 1_000_000)

	if _, err := l.Stake(ctx, "acct:a", 1_000_000); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	clock.Advance(SecondsPerYear * time.Second)

	reward, err := l.AccruedReward(ctx, "acct:a")
	if err != nil {
		t.Fatalf("accrued reward: %v", err)
	}
	if reward != 50_000 {
		t.Fatalf("expected 5%% of 1,000,000 after a year, got %d", reward)
	}
}

func TestAccruedRewardMonotonic(t *testing.T) {
	l, clock := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 1_000_000)
	if _, err := l.Stake(ctx, "acct:a", 1_000_000); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	var last int64
	for i := 0; i < 10; i++ {
		clock.Advance(13 * 24 * time.Hour)
		reward, err := l.AccruedReward(ctx, "acct:a")
		if err != nil {
			t.Fatalf("accrued reward: %v", err)
		}
		if reward < last {
			t.Fatalf("reward decreased: %d -> %d", last, reward)
		}
		elapsed := int64(i+1) * 13 * 24 * 3600
		want := (1_000_000 * StakingRatePercent / 100) * elapsed / SecondsPerYear
		if reward != want {
			t.Fatalf("elapsed %ds: expected %d, got %d", elapsed, want, reward)
		}
		last = reward
	}
}

func TestAccruedRewardNothingStaked(t *testing.T) {
	l, _ := newTestLedger()
	reward, err := l.AccruedReward(context.Background(), "acct:a")
	if err != nil || reward != 0 {
		t.Fatalf("expected zero reward, got %d err=%v", reward, err)
	}
}

func TestStakeValidation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100)

	if _, err := l.Stake(ctx, "acct:a", 0); err != ErrZeroAmount {
		t.Fatalf("expected zero amount error, got %v", err)
	}
	if _, err := l.Stake(ctx, "acct:a", 101); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestStakeCompoundsPendingReward(t *testing.T) {
	l, clock := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 2_000_000)

	if _, err := l.Stake(ctx, "acct:a", 1_000_000); err != nil {
		t.Fatalf("first stake: %v", err)
	}
	before, _ := l.Supply(ctx)

	clock.Advance(SecondsPerYear * time.Second)

	res, err := l.Stake(ctx, "acct:a", 500_000)
	if err != nil {
		t.Fatalf("second stake: %v", err)
	}
	// One year's reward on the first million folds into the stake.
	if res.Compounded != 50_000 {
		t.Fatalf("expected 50000 compounded, got %d", res.Compounded)
	}
	if res.StakedAmount != 1_550_000 {
		t.Fatalf("expected staked 1550000, got %d", res.StakedAmount)
	}
	if res.StakeStartedAt != clock.Now().Unix() {
		t.Fatalf("accrual window not reset")
	}

	after, _ := l.Supply(ctx)
	if after.TotalSupply != before.TotalSupply+50_000 {
		t.Fatalf("reward not minted into supply: %d -> %d", before.TotalSupply, after.TotalSupply)
	}
	assertConserved(t, l)
}

func TestUnstakePartialResetsWindow(t *testing.T) {
	l, clock := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 1_000_000)
	if _, err := l.Stake(ctx, "acct:a", 1_000_000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	clock.Advance(SecondsPerYear * time.Second)

	res, err := l.Unstake(ctx, "acct:a", 400_000)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if res.Reward != 50_000 {
		t.Fatalf("expected reward 50000, got %d", res.Reward)
	}
	if res.WalletBalance != 450_000 {
		t.Fatalf("expected wallet 450000, got %d", res.WalletBalance)
	}
	if res.StakedAmount != 600_000 {
		t.Fatalf("expected staked 600000, got %d", res.StakedAmount)
	}

	// Remaining stake accrues from now, not from the original start.
	pos, _ := l.Position(ctx, "acct:a")
	if pos.StakeStartedAt != clock.Now().Unix() {
		t.Fatalf("expected fresh accrual window")
	}
	if pos.AccruedReward != 0 {
		t.Fatalf("expected zero accrual immediately after unstake, got %d", pos.AccruedReward)
	}
	assertConserved(t, l)
}

func TestUnstakeAllWithZeroAmount(t *testing.T) {
	l, clock := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	if _, err := l.Stake(ctx, "acct:a", 10_000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	clock.Advance(30 * 24 * time.Hour)

	res, err := l.Unstake(ctx, "acct:a", 0)
	if err != nil {
		t.Fatalf("unstake all: %v", err)
	}
	if res.Unstaked != 10_000 || res.StakedAmount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	pos, _ := l.Position(ctx, "acct:a")
	if pos.StakeStartedAt != 0 {
		t.Fatalf("expected cleared stake window, got %d", pos.StakeStartedAt)
	}
}

func TestUnstakeValidation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	if _, err := l.Unstake(ctx, "acct:a", 100); err != ErrNothingStaked {
		t.Fatalf("expected no active stake, got %v", err)
	}

	SeedBalance(l, "acct:a", 1_000)
	if _, err := l.Stake(ctx, "acct:a", 1_000); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := l.Unstake(ctx, "acct:a", 1_001); err != ErrUnstakeExceedsStake {
		t.Fatalf("expected exceeds stake, got %v", err)
	}
}

func TestBorrowCollateralBoundary(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	SeedTreasury(l, 10_000)

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_499); err != ErrInsufficientCollateral {
		t.Fatalf("expected insufficient collateral at 1499, got %v", err)
	}
	res, err := l.Borrow(ctx, "acct:a", 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow at exactly 150%% failed: %v", err)
	}
	if res.LoanPrincipal != 1_000 || res.CollateralLocked != 1_500 {
		t.Fatalf("unexpected result: %+v", res)
	}
	// Wallet: 10000 - 1500 collateral + 1000 principal.
	if res.WalletBalance != 9_500 {
		t.Fatalf("expected wallet 9500, got %d", res.WalletBalance)
	}
	if res.TreasuryBalance != 9_000 {
		t.Fatalf("expected treasury 9000, got %d", res.TreasuryBalance)
	}
	assertConserved(t, l)
}

func TestBorrowCollateralRoundsUp(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	SeedTreasury(l, 10_000)

	// 101 * 150 / 100 = 151.5, so 151 must be rejected and 152 accepted.
	if _, err := l.Borrow(ctx, "acct:a", 101, 151); err != ErrInsufficientCollateral {
		t.Fatalf("expected insufficient collateral at 151, got %v", err)
	}
	if _, err := l.Borrow(ctx, "acct:a", 101, 152); err != nil {
		t.Fatalf("borrow with 152 collateral failed: %v", err)
	}
}

func TestBorrowSingleLoanEnforced(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100_000)
	SeedTreasury(l, 100_000)

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	if _, err := l.Borrow(ctx, "acct:a", 500, 10_000); err != ErrLoanOutstanding {
		t.Fatalf("expected loan outstanding, got %v", err)
	}
}

func TestBorrowTreasuryLiquidity(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100_000)
	SeedTreasury(l, 999)

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != ErrInsufficientTreasury {
		t.Fatalf("expected insufficient treasury, got %v", err)
	}
	// Nothing moved.
	if bal, _ := l.Balance(ctx, "acct:a"); bal != 100_000 {
		t.Fatalf("failed borrow mutated balance: %d", bal)
	}
}

func TestBorrowValidation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 1_000)
	SeedTreasury(l, 10_000)

	if _, err := l.Borrow(ctx, "acct:a", 0, 1_500); err != ErrZeroAmount {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := l.Borrow(ctx, "acct:a", 1_000, 0); err != ErrZeroAmount {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds for collateral, got %v", err)
	}
}

func TestRepayRoundTrip(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	SeedTreasury(l, 10_000)

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	res, err := l.Repay(ctx, "acct:a", 1_000)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if res.CollateralReleased != 1_500 {
		t.Fatalf("expected full collateral release, got %d", res.CollateralReleased)
	}
	if res.WalletBalance != 10_000 {
		t.Fatalf("expected wallet restored to 10000, got %d", res.WalletBalance)
	}
	if res.TreasuryBalance != 10_000 {
		t.Fatalf("expected treasury restored to 10000, got %d", res.TreasuryBalance)
	}

	pos, _ := l.Position(ctx, "acct:a")
	if pos.LoanPrincipal != 0 || pos.CollateralLocked != 0 {
		t.Fatalf("loan fields not zeroed: %+v", pos)
	}
	assertConserved(t, l)
}

func TestRepayOverpaymentAbsorbed(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	SeedTreasury(l, 10_000)

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	res, err := l.Repay(ctx, "acct:a", 1_200)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	// The 200 beyond principal stays with the treasury.
	if res.TreasuryBalance != 10_200 {
		t.Fatalf("expected treasury 10200, got %d", res.TreasuryBalance)
	}
	if res.WalletBalance != 9_800 {
		t.Fatalf("expected wallet 9800, got %d", res.WalletBalance)
	}
	assertConserved(t, l)
}

func TestRepayValidation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 10_000)
	SeedTreasury(l, 10_000)

	if _, err := l.Repay(ctx, "acct:a", 1_000); err != ErrNoActiveLoan {
		t.Fatalf("expected no active loan, got %v", err)
	}

	if _, err := l.Borrow(ctx, "acct:a", 1_000, 1_500); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := l.Repay(ctx, "acct:a", 999); err != ErrRepaymentTooSmall {
		t.Fatalf("expected repayment too small, got %v", err)
	}
}

func TestMintInitialSupplyOnce(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	if err := l.MintInitialSupply(ctx, "acct:genesis", 1_000_000); err != nil {
		t.Fatalf("initial mint: %v", err)
	}
	if bal, _ := l.Balance(ctx, "acct:genesis"); bal != 1_000_000 {
		t.Fatalf("expected genesis balance 1000000, got %d", bal)
	}
	info, _ := l.Supply(ctx)
	if info.TotalSupply != 1_000_000 {
		t.Fatalf("expected total supply 1000000, got %d", info.TotalSupply)
	}

	if err := l.MintInitialSupply(ctx, "acct:genesis", 1); err != ErrSupplyAlreadyMinted {
		t.Fatalf("expected already minted, got %v", err)
	}
}

func TestConcurrentTransfersStayBalanced(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	SeedBalance(l, "acct:a", 100_000)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Transfer(ctx, "acct:a", "acct:b", 500, i%2 == 0); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assertConserved(t, l)
}
