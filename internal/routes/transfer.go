package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/transfer"
)

// RegisterTransferRoutes wires transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfers", h.Post)
}
