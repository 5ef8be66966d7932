package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Payments       *handlers.PaymentsHandler
	AuthMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Get("/me", cfg.AuthMiddleware, cfg.Users.Profile)
	authGroup.Post("/password/change", cfg.AuthMiddleware, cfg.Users.ChangePassword)

	// Gateway notifications authenticate with a payload signature.
	app.Post("/payments/webhook", cfg.Payments.Webhook)

	tickets := app.Group("/tickets", cfg.AuthMiddleware)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/payments", cfg.Payments.CreateOrder)
	tickets.Get("/:id/payments", cfg.Payments.ListPayments)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)
	tickets.Get("/:id/history", cfg.Tickets.GetAuditTrail)

	staffOnly := auth.RequireRole(domain.RoleAgent, domain.RoleAdmin)
	tickets.Post("/:id/status", staffOnly, cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/notes", staffOnly, cfg.Tickets.AddNotes)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.AssignAgent)
}
