package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/notification"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// ErrNotOwner indicates the caller does not own the source wallet.
var ErrNotOwner = errors.New("not owner of source wallet")

// Service posts wallet-to-wallet token transfers on the ledger.
type Service struct {
	ledger        ledger.Ledger
	walletService *wallet.Service
	events        notification.Sink
}

// NewService constructs a transfer service.
func NewService(ledger ledger.Ledger, walletService *wallet.Service, events notification.Sink) *Service {
	return &Service{ledger: ledger, walletService: walletService, events: events}
}

// Input captures the data needed to move tokens between wallets.
type Input struct {
	FromWalletID    string
	ToWalletID      string
	Amount          int64
	FeeEnabled      bool
	RequestorUserID string
}

// Result describes the ledger outcome of a transfer.
type Result struct {
	FromBalance int64
	ToBalance   int64
	NetAmount   int64
	Fee         int64
	CompletedAt time.Time
}

// Transfer debits the source wallet and credits the destination, optionally
// routing a 0.01% fee to the treasury. A zero amount is accepted and moves
// nothing.
func (s *Service) Transfer(ctx context.Context, input Input) (Result, error) {
	fromWallet, err := s.walletService.Get(ctx, input.FromWalletID)
	if err != nil {
		return Result{}, err
	}
	if input.RequestorUserID != "" && fromWallet.OwnerID != input.RequestorUserID {
		return Result{}, ErrNotOwner
	}
	toWallet, err := s.walletService.Get(ctx, input.ToWalletID)
	if err != nil {
		return Result{}, err
	}

	res, err := s.ledger.Transfer(ctx, fromWallet.AccountCode, toWallet.AccountCode, input.Amount, input.FeeEnabled)
	if err != nil {
		return Result{}, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindTransfer,
			Account: fromWallet.AccountCode,
			To:      toWallet.AccountCode,
			Amount:  res.NetAmount,
		})
		if res.Fee > 0 {
			_ = s.events.Emit(ctx, notification.Event{
				Kind:    notification.KindTransferFee,
				Account: fromWallet.AccountCode,
				Amount:  res.Fee,
			})
		}
	}

	return Result{
		FromBalance: res.FromBalance,
		ToBalance:   res.ToBalance,
		NetAmount:   res.NetAmount,
		Fee:         res.Fee,
		CompletedAt: time.Now().UTC(),
	}, nil
}
