package supply

import (
	"context"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/notification"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Service owns the one-time genesis mint and the ledger-wide aggregate
// queries. Rates and ratios are fixed at deployment; the only configurable
// supply parameter is the initial mint amount.
type Service struct {
	ledger        ledger.Ledger
	walletService *wallet.Service
	events        notification.Sink
	initialSupply int64
}

// NewService constructs a supply service.
func NewService(ledgerBackend ledger.Ledger, walletService *wallet.Service, events notification.Sink, initialSupply int64) *Service {
	return &Service{
		ledger:        ledgerBackend,
		walletService: walletService,
		events:        events,
		initialSupply: initialSupply,
	}
}

// InitialMint assigns the configured initial supply to the designated wallet.
// It succeeds at most once per ledger.
func (s *Service) InitialMint(ctx context.Context, walletID string) (int64, error) {
	w, err := s.walletService.Get(ctx, walletID)
	if err != nil {
		return 0, err
	}

	if err := s.ledger.MintInitialSupply(ctx, w.AccountCode, s.initialSupply); err != nil {
		return 0, err
	}

	if s.events != nil {
		_ = s.events.Emit(ctx, notification.Event{
			Kind:    notification.KindInitialMint,
			Account: w.AccountCode,
			Amount:  s.initialSupply,
		})
	}

	return s.initialSupply, nil
}

// Info reports total supply and treasury balance.
func (s *Service) Info(ctx context.Context) (ledger.SupplyInfo, error) {
	return s.ledger.Supply(ctx)
}
