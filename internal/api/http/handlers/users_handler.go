package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-auth/internal/api/dto"
	"github.com/spec-kit/blog-auth/internal/identity"
	"github.com/spec-kit/blog-auth/internal/repository"
)

// UsersHandler exposes profile endpoints gated by ownership or admin.
type UsersHandler struct {
	provider identity.Provider
	accounts repository.AccountRepository
}

// NewUsersHandler constructs handler.
func NewUsersHandler(provider identity.Provider, accounts repository.AccountRepository) *UsersHandler {
	return &UsersHandler{provider: provider, accounts: accounts}
}

// OwnerID implements auth.OwnerResolver: an account resource is owned by
// the account itself.
func (h *UsersHandler) OwnerID(_ context.Context, resourceID string) (string, error) {
	return resourceID, nil
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	account, err := h.provider.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewAccountResponse(account)}})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.provider.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	if req.Username != "" {
		account.Username = req.Username
	}
	if req.Email != "" && req.Email != account.Email {
		account.Email = req.Email
		account.EmailVerified = false
	}
	if err := h.accounts.Update(c.UserContext(), account); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewAccountResponse(account)}})
}
