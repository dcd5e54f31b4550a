package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-auth/internal/api/http/handlers"
	"github.com/spec-kit/blog-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/email/verify", cfg.Auth.VerifyEmail)

	protected := authGroup.Group("", cfg.AuthMiddleware.RequireAccessToken())
	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	users := app.Group("/users")
	users.Get("/:id", cfg.AuthMiddleware.RequireOwnerOrAdmin("id", cfg.Users), cfg.Users.Get)
	users.Put("/:id", cfg.AuthMiddleware.RequireOwnerOrAdmin("id", cfg.Users), cfg.Users.Update)
}
