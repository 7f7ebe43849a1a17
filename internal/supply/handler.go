package supply

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/wallet"
)

const mintTokenHeader = "X-Mint-Token"

// Handler exposes supply endpoints.
type Handler struct {
	service   *Service
	mintToken string
}

// NewHandler constructs a supply handler. A non-empty mintToken restricts the
// genesis mint to callers presenting it; production config requires one.
func NewHandler(service *Service, mintToken string) *Handler {
	return &Handler{service: service, mintToken: mintToken}
}

type mintRequest struct {
	WalletID string `json:"wallet_id"`
}

// Mint performs the one-time genesis supply assignment.
func (h *Handler) Mint(c *fiber.Ctx) error {
	if h.mintToken != "" && c.Get(mintTokenHeader) != h.mintToken {
		return fiber.NewError(http.StatusForbidden, "mint not authorized")
	}

	var req mintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	minted, err := h.service.InitialMint(c.UserContext(), req.WalletID)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		case errors.Is(err, ledger.ErrSupplyAlreadyMinted):
			return fiber.NewError(http.StatusConflict, "initial supply already minted")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_id": req.WalletID,
		"minted":    minted,
	})
}

// Info reports total supply and treasury balance.
func (h *Handler) Info(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"total_supply":     info.TotalSupply,
		"treasury_balance": info.TreasuryBalance,
	})
}
