package staking

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Handler exposes staking endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a staking handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type stakeRequest struct {
	WalletID string `json:"wallet_id"`
	Amount   int64  `json:"amount"`
}

// Stake locks tokens from the wallet into the staking position.
func (h *Handler) Stake(c *fiber.Ctx) error {
	var req stakeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Stake(c.UserContext(), req.WalletID, req.Amount)
	if err != nil {
		return mapStakingError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_balance":   res.WalletBalance,
		"staked_amount":    res.StakedAmount,
		"compounded":       res.Compounded,
		"stake_started_at": res.StakeStartedAt,
	})
}

// Unstake releases tokens plus accrued reward. A zero amount unstakes everything.
func (h *Handler) Unstake(c *fiber.Ctx) error {
	var req stakeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Unstake(c.UserContext(), req.WalletID, req.Amount)
	if err != nil {
		return mapStakingError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_balance": res.WalletBalance,
		"staked_amount":  res.StakedAmount,
		"unstaked":       res.Unstaked,
		"reward":         res.Reward,
	})
}

// Reward returns the reward accrued so far in the current window.
func (h *Handler) Reward(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	reward, err := h.service.Reward(c.UserContext(), walletID)
	if err != nil {
		return mapStakingError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": walletID,
		"reward":    reward,
	})
}

func mapStakingError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrZeroAmount), errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ledger.ErrNothingStaked):
		return fiber.NewError(http.StatusBadRequest, "no active stake")
	case errors.Is(err, ledger.ErrUnstakeExceedsStake):
		return fiber.NewError(http.StatusBadRequest, "unstake amount exceeds staked balance")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
