package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/supply"
)

// RegisterSupplyInfoRoute wires the public supply query.
func RegisterSupplyInfoRoute(r fiber.Router, h *supply.Handler) {
	r.Get("/supply", h.Info)
}

// RegisterSupplyMintRoute wires the one-time genesis mint endpoint.
func RegisterSupplyMintRoute(r fiber.Router, h *supply.Handler) {
	r.Post("/supply/mint", h.Mint)
}
