package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTransfer indicates a token transfer between accounts.
	KindTransfer = "transfer"
	// KindTransferFee indicates the fee leg of a transfer, paid to treasury.
	KindTransferFee = "transfer_fee"
	// KindStaked indicates tokens moved from wallet to stake.
	KindStaked = "staked"
	// KindUnstaked indicates tokens (plus reward) released from stake.
	KindUnstaked = "unstaked"
	// KindLoanIssued indicates a collateralized loan was opened.
	KindLoanIssued = "loan_issued"
	// KindLoanRepaid indicates a loan was settled and collateral released.
	KindLoanRepaid = "loan_repaid"
	// KindInitialMint indicates the one-time genesis supply assignment.
	KindInitialMint = "initial_mint"
)

// Event describes a ledger state transition for external observers. The
// engine emits events after the transition commits; it never interprets them.
type Event struct {
	Kind    string
	Account string
	To      string // counterparty account, when the event has one
	Amount  int64
	Reward  int64 // minted reward attached to staking events
}

// Sink consumes ledger events.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// LoggerSink writes events to the structured logger.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging event sink.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Emit writes the event to the structured logger.
func (s *LoggerSink) Emit(_ context.Context, event Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("ledger event",
		"kind", event.Kind,
		"account", event.Account,
		"to", event.To,
		"amount", event.Amount,
		"reward", event.Reward,
	)
	return nil
}
