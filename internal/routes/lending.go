package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/lending"
)

// RegisterLendingRoutes wires lending endpoints.
func RegisterLendingRoutes(r fiber.Router, h *lending.Handler) {
	r.Post("/loans/borrow", h.Borrow)
	r.Post("/loans/repay", h.Repay)
}
