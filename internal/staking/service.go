package staking

import (
	"context"
	"time"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/notification"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Service moves tokens between a wallet and its staking position.
type Service struct {
	ledger        ledger.Ledger
	walletService *wallet.Service
	events        notification.Sink
}

// NewService constructs a staking service.
func NewService(ledger ledger.Ledger, walletService *wallet.Service, events notification.Sink) *Service {
	return &Service{ledger: ledger, walletService: walletService, events: events}
}

// StakeResult describes the position after a stake.
type StakeResult struct {
	WalletBalance  int64
	StakedAmount   int64
	Compounded     int64
	StakeStartedAt time.Time
}

// Stake locks amount from the wallet into the staking position. Reward
// pending on an existing stake compounds into the principal first.
func (s *Service) Stake(ctx context.Context, walletID string, amount int64) (StakeResult, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return StakeResult{}, err
	}

	res, err := s.ledger.Stake(ctx, w.AccountCode, amount)
	if err != nil {
		return StakeResult{}, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindStaked,
			Account: w.AccountCode,
			Amount:  amount,
			Reward:  res.Compounded,
		})
	}

	return StakeResult{
		WalletBalance:  res.WalletBalance,
		StakedAmount:   res.StakedAmount,
		Compounded:     res.Compounded,
		StakeStartedAt: time.Unix(res.StakeStartedAt, 0).UTC(),
	}, nil
}

// UnstakeResult describes the position after an unstake.
type UnstakeResult struct {
	WalletBalance int64
	StakedAmount  int64
	Unstaked      int64
	Reward        int64
}

// Unstake releases amount (zero = everything) plus the reward accrued over
// the closing window back to the wallet.
func (s *Service) Unstake(ctx context.Context, walletID string, amount int64) (UnstakeResult, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return UnstakeResult{}, err
	}

	res, err := s.ledger.Unstake(ctx, w.AccountCode, amount)
	if err != nil {
		return UnstakeResult{}, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindUnstaked,
			Account: w.AccountCode,
			Amount:  res.Unstaked,
			Reward:  res.Reward,
		})
	}

	return UnstakeResult{
		WalletBalance: res.WalletBalance,
		StakedAmount:  res.StakedAmount,
		Unstaked:      res.Unstaked,
		Reward:        res.Reward,
	}, nil
}

// Reward returns the reward accrued in the current staking window without
// changing any state.
func (s *Service) Reward(ctx context.Context, walletID string) (int64, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return 0, err
	}
	return s.ledger.AccruedReward(ctx, w.AccountCode)
}
