package ledger

// All percentage arithmetic is integer with truncation toward zero, matching
// the floor(a*b/c) convention used throughout the ledger. The only rounded-up
// quantity is the minimum collateral bound.

const bpsDenominator = 10_000

// transferFee returns the fee charged on a transfer of amount, truncated.
func transferFee(amount int64) int64 {
	return amount * TransferFeeBps / bpsDenominator
}

// minCollateral returns the smallest collateral accepted for a loan,
// ceil(loanAmount * 150 / 100).
func minCollateral(loanAmount int64) int64 {
	return (loanAmount*CollateralRatioPercent + 99) / 100
}

// stakingReward returns the reward earned by staked tokens over elapsedSeconds
// of the current accrual window: floor(floor(staked*5/100) * elapsed / year).
func stakingReward(staked, elapsedSeconds int64) int64 {
	if staked <= 0 || elapsedSeconds <= 0 {
		return 0
	}
	annual := staked * StakingRatePercent / 100
	return annual * elapsedSeconds / SecondsPerYear
}
