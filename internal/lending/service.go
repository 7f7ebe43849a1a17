package lending

import (
	"context"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/notification"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Service opens and settles collateralized loans against the treasury.
// Each account holds at most one loan at a time, and repayment is always
// for the full principal. The declared interest rate is not charged; total
// debt equals principal (see ledger.LoanInterestRatePercent).
type Service struct {
	ledger        ledger.Ledger
	walletService *wallet.Service
	events        notification.Sink
}

// NewService constructs a lending service.
func NewService(ledger ledger.Ledger, walletService *wallet.Service, events notification.Sink) *Service {
	return &Service{ledger: ledger, walletService: walletService, events: events}
}

// BorrowResult describes the position after loan issuance.
type BorrowResult struct {
	WalletBalance    int64
	LoanPrincipal    int64
	CollateralLocked int64
	TreasuryBalance  int64
}

// Borrow locks collateral from the wallet and credits the principal from the
// treasury. Collateral must cover at least 150% of the principal.
func (s *Service) Borrow(ctx context.Context, walletID string, loanAmount, collateralAmount int64) (BorrowResult, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return BorrowResult{}, err
	}

	res, err := s.ledger.Borrow(ctx, w.AccountCode, loanAmount, collateralAmount)
	if err != nil {
		return BorrowResult{}, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindLoanIssued,
			Account: w.AccountCode,
			Amount:  loanAmount,
		})
	}

	return BorrowResult{
		WalletBalance:    res.WalletBalance,
		LoanPrincipal:    res.LoanPrincipal,
		CollateralLocked: res.CollateralLocked,
		TreasuryBalance:  res.TreasuryBalance,
	}, nil
}

// RepayResult describes the position after repayment.
type RepayResult struct {
	WalletBalance      int64
	Repaid             int64
	CollateralReleased int64
	TreasuryBalance    int64
}

// Repay settles the loan in one call and releases the full collateral. Any
// amount beyond the principal is kept by the treasury without refund, so
// callers should repay exactly the outstanding principal.
func (s *Service) Repay(ctx context.Context, walletID string, amount int64) (RepayResult, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return RepayResult{}, err
	}

	res, err := s.ledger.Repay(ctx, w.AccountCode, amount)
	if err != nil {
		return RepayResult{}, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindLoanRepaid,
			Account: w.AccountCode,
			Amount:  res.Repaid,
		})
	}

	return RepayResult{
		WalletBalance:      res.WalletBalance,
		Repaid:             res.Repaid,
		CollateralReleased: res.CollateralReleased,
		TreasuryBalance:    res.TreasuryBalance,
	}, nil
}
