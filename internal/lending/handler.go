package lending

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Handler exposes lending endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a lending handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type borrowRequest struct {
	WalletID         string `json:"wallet_id"`
	LoanAmount       int64  `json:"loan_amount"`
	CollateralAmount int64  `json:"collateral_amount"`
}

// Borrow opens a collateralized loan for the wallet.
func (h *Handler) Borrow(c *fiber.Ctx) error {
	var req borrowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Borrow(c.UserContext(), req.WalletID, req.LoanAmount, req.CollateralAmount)
	if err != nil {
		return mapLendingError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_balance":    res.WalletBalance,
		"loan_principal":    res.LoanPrincipal,
		"collateral_locked": res.CollateralLocked,
		"treasury_balance":  res.TreasuryBalance,
	})
}

type repayRequest struct {
	WalletID string `json:"wallet_id"`
	Amount   int64  `json:"amount"`
}

// Repay settles the wallet's loan in full.
func (h *Handler) Repay(c *fiber.Ctx) error {
	var req repayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Repay(c.UserContext(), req.WalletID, req.Amount)
	if err != nil {
		return mapLendingError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_balance":      res.WalletBalance,
		"repaid":              res.Repaid,
		"collateral_released": res.CollateralReleased,
		"treasury_balance":    res.TreasuryBalance,
	})
}

func mapLendingError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrZeroAmount), errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ledger.ErrLoanOutstanding):
		return fiber.NewError(http.StatusConflict, "loan already outstanding")
	case errors.Is(err, ledger.ErrNoActiveLoan):
		return fiber.NewError(http.StatusBadRequest, "no active loan")
	case errors.Is(err, ledger.ErrInsufficientCollateral):
		return fiber.NewError(http.StatusBadRequest, "insufficient collateral")
	case errors.Is(err, ledger.ErrInsufficientTreasury):
		return fiber.NewError(http.StatusConflict, "insufficient treasury liquidity")
	case errors.Is(err, ledger.ErrRepaymentTooSmall):
		return fiber.NewError(http.StatusBadRequest, "repayment below outstanding principal")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
