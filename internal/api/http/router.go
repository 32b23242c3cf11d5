package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/voucher-service/internal/api/http/handlers"
	"github.com/spec-kit/voucher-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Profile        *handlers.ProfileHandler
	Vouchers       *handlers.VouchersHandler
	Expenses       *handlers.ExpensesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireUser())

	api.Get("/profile", cfg.Profile.Get)
	api.Put("/profile", cfg.Profile.Update)

	api.Post("/vouchers", cfg.Vouchers.Create)
	api.Get("/vouchers", cfg.Vouchers.List)
	api.Get("/vouchers/:id", cfg.Vouchers.Get)
	api.Post("/vouchers/:id/submit", cfg.Vouchers.Submit)
	api.Delete("/vouchers/:id", cfg.Vouchers.Delete)
	api.Get("/vouchers/:id/report", cfg.Vouchers.Report)

	api.Post("/vouchers/:id/expenses", cfg.Expenses.Create)
	api.Put("/expenses/:id", cfg.Expenses.Update)
	api.Delete("/expenses/:id", cfg.Expenses.Delete)
}
