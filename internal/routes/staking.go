package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/staking"
)

// RegisterStakingRoutes wires staking endpoints.
func RegisterStakingRoutes(r fiber.Router, h *staking.Handler) {
	r.Post("/staking/stake", h.Stake)
	r.Post("/staking/unstake", h.Unstake)
	r.Get("/staking/:walletId/reward", h.Reward)
}
