package auth

import (
	"context"

	"github.com/spec-kit/blog-auth/internal/domain"
)

// AccountDirectory is the slice of the identity provider the guard needs
// for admin-override and active-account checks.
type AccountDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// Guard gates an operation on a specific resource to its owner or an
// administrator. It composes the verifier, the revocation check it implies,
// and the externally supplied account directory; it never mutates account
// or token state.
type Guard struct {
	verifier  *Verifier
	directory AccountDirectory
}

// NewGuard wires the guard.
func NewGuard(verifier *Verifier, directory AccountDirectory) *Guard {
	return &Guard{verifier: verifier, directory: directory}
}

// Authorize accepts the operation when the bearer token's subject owns the
// resource, or when the subject is an active administrator. Verification
// failures keep their authentication kind (401); an authenticated
// non-owner non-admin gets NotResourceOwner (403).
func (g *Guard) Authorize(ctx context.Context, bearer, resourceOwnerID string) (*Identity, error) {
	identity, err := g.verifier.Verify(ctx, bearer, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if identity.Subject == resourceOwnerID {
		return identity, nil
	}

	account, err := g.directory.GetByID(ctx, identity.Subject)
	if err != nil {
		return nil, NewError(KindNotResourceOwner, err)
	}
	if !account.IsActive {
		return nil, NewError(KindAccountInactive, nil)
	}
	if account.IsAdmin {
		return identity, nil
	}
	return nil, NewError(KindNotResourceOwner, nil)
}

// AuthorizeOptional distinguishes anonymous from bad credentials: no token
// yields a nil identity and no error, a present-but-invalid token still
// fails, a valid token yields its identity.
func (g *Guard) AuthorizeOptional(ctx context.Context, bearer string) (*Identity, error) {
	if bearer == "" {
		return nil, nil
	}
	return g.verifier.Verify(ctx, bearer, TokenTypeAccess)
}
