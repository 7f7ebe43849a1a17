package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/savanna-labs/savanna/internal/auth"
)

// RegisterAuthRoutes wires registration and session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginRateLimit fiber.Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", loginRateLimit, h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// RegisterLogoutRoute wires logout behind authentication so the caller's
// token version can be bumped.
func RegisterLogoutRoute(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/logout", h.Logout)
}
