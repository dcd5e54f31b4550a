package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "auth_identity"

// OwnerResolver reports which subject owns a resource. Each protected
// resource type implements this explicitly instead of closing over lookup
// lambdas at route-registration time.
type OwnerResolver interface {
	OwnerID(ctx context.Context, resourceID string) (string, error)
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, resourceID string) (string, error)

// OwnerID implements OwnerResolver.
func (f OwnerResolverFunc) OwnerID(ctx context.Context, resourceID string) (string, error) {
	return f(ctx, resourceID)
}

// Middleware validates bearer tokens and attaches the caller identity.
type Middleware struct {
	verifier *Verifier
	guard    *Guard
}

// NewMiddleware constructs middleware.
func NewMiddleware(verifier *Verifier, guard *Guard) *Middleware {
	return &Middleware{verifier: verifier, guard: guard}
}

// BearerToken extracts the token from the Authorization header. An absent
// header is MissingToken, distinct from a present-but-unusable one.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", NewError(KindMissingToken, nil)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", NewError(KindMalformedToken, nil)
	}
	return parts[1], nil
}

// RequireAccessToken enforces a valid access token on protected routes.
func (m *Middleware) RequireAccessToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		identity, err := m.verifier.Verify(c.UserContext(), token, TokenTypeAccess)
		if err != nil {
			return err
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// OptionalAccessToken attaches an identity when a valid token is presented,
// lets anonymous requests through, and still rejects invalid tokens.
func (m *Middleware) OptionalAccessToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		identity, err := m.guard.AuthorizeOptional(c.UserContext(), token)
		if err != nil {
			return err
		}
		if identity != nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin gates a route on ownership of the resource named by
// the given route parameter, with admin override.
func (m *Middleware) RequireOwnerOrAdmin(param string, resolver OwnerResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		ownerID, err := resolver.OwnerID(c.UserContext(), c.Params(param))
		if err != nil {
			return err
		}
		identity, err := m.guard.Authorize(c.UserContext(), token, ownerID)
		if err != nil {
			return err
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}
