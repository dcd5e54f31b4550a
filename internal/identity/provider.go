// Package identity resolves subject identifiers to account records. The
// auth core depends only on the Provider interface; account persistence
// stays behind it.
package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-auth/internal/auth"
	"github.com/spec-kit/blog-auth/internal/domain"
	"github.com/spec-kit/blog-auth/internal/repository"
)

// ErrAccountNotFound is returned when no account matches the identifier.
var ErrAccountNotFound = errors.New("account not found")

// Provider is the external collaborator the guard and auth service consult.
// It owns credential verification; the auth core never sees plaintext
// password storage.
type Provider interface {
	// Authenticate matches a login (username or email) and plaintext
	// password against an account. Unknown login and wrong password both
	// surface as InvalidCredentials so the caller cannot build a
	// username-existence oracle.
	Authenticate(ctx context.Context, login, password string) (*domain.Account, error)

	// GetByID resolves a subject identifier.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// IsAdmin reports whether the subject holds the administrative role.
	IsAdmin(ctx context.Context, id string) (bool, error)
}

type pgProvider struct {
	accounts repository.AccountRepository
}

// NewProvider builds a Provider over the account repository.
func NewProvider(accounts repository.AccountRepository) Provider {
	return &pgProvider{accounts: accounts}
}

func (p *pgProvider) Authenticate(ctx context.Context, login, password string) (*domain.Account, error) {
	account, err := p.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.NewError(auth.KindInvalidCredentials, nil)
		}
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, auth.NewError(auth.KindInvalidCredentials, nil)
	}
	return account, nil
}

func (p *pgProvider) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := p.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (p *pgProvider) IsAdmin(ctx context.Context, id string) (bool, error) {
	account, err := p.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return account.IsAdmin, nil
}
