package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-auth/internal/auth"
	"github.com/spec-kit/blog-auth/internal/config"
	"github.com/spec-kit/blog-auth/internal/domain"
	"github.com/spec-kit/blog-auth/internal/events"
	"github.com/spec-kit/blog-auth/internal/identity"
	"github.com/spec-kit/blog-auth/internal/repository"
	"github.com/spec-kit/blog-auth/internal/revocation"
	apperrors "github.com/spec-kit/blog-auth/pkg/util"
)

// AuthService coordinates registration, login, token lifecycle and
// credential-change flows.
type AuthService struct {
	accounts    repository.AccountRepository
	provider    identity.Provider
	issuer      *auth.Issuer
	verifier    *auth.Verifier
	revocations revocation.Store
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	cfg         config.AuthConfig
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	Accounts    repository.AccountRepository
	Provider    identity.Provider
	Issuer      *auth.Issuer
	Verifier    *auth.Verifier
	Revocations revocation.Store
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:    deps.Accounts,
		provider:    deps.Provider,
		issuer:      deps.Issuer,
		verifier:    deps.Verifier,
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// Register creates a new account and issues its first token pair along with
// an email-verification token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.Account, *auth.TokenPair, error) {
	if err := s.ensureLoginFree(ctx, username, "username already taken"); err != nil {
		return nil, nil, err
	}
	if err := s.ensureLoginFree(ctx, email, "email already registered"); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.IssuePair(account.ID, displayClaims(account))
	if err != nil {
		return nil, nil, err
	}

	verification, err := s.issuer.IssueSinglePurpose(account.ID, auth.TokenTypeEmailVerification, s.cfg.EmailVerificationTTL(), map[string]string{"email": account.Email})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventUserRegistered, account.ID, events.UserRegisteredPayload{
		Username:          account.Username,
		Email:             account.Email,
		VerificationToken: verification,
	})
	return account, pair, nil
}

// Login authenticates a username-or-email plus password and issues a pair.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.Account, *auth.TokenPair, error) {
	account, err := s.provider.Authenticate(ctx, login, password)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, auth.NewError(auth.KindAccountInactive, nil)
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		s.logger.Warn("failed to record login", zap.Error(err))
	}

	pair, err := s.issuer.IssuePair(account.ID, displayClaims(account))
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventLoginSucceeded, account.ID, events.LoginSucceededPayload{
		Username:   account.Username,
		LoginCount: account.LoginCount + 1,
	})
	return account, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The account
// must still exist and be active; a disabled account cannot keep a session
// alive through refreshes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ident, err := s.verifier.Verify(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	account, err := s.provider.GetByID(ctx, ident.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, auth.NewError(auth.KindInvalidCredentials, nil)
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, auth.NewError(auth.KindAccountInactive, nil)
	}

	return s.verifier.Refresh(ctx, refreshToken)
}

// Logout revokes the presented access token and, when supplied, the
// session's refresh token. Each revocation entry lives exactly as long as
// the token it blocks.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	ident, err := s.verifier.Verify(ctx, accessToken, auth.TokenTypeAccess)
	if err != nil {
		return err
	}
	if err := s.revokeIdentity(ctx, ident, "logout"); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}
	refreshIdent, err := s.verifier.Verify(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		// Already expired or revoked: nothing left to block.
		if auth.IsKind(err, auth.KindExpiredToken) || auth.IsKind(err, auth.KindRevokedToken) {
			return nil
		}
		return err
	}
	return s.revokeIdentity(ctx, refreshIdent, "logout")
}

// ChangePassword verifies the current password before storing the new hash.
// Outstanding tokens stay valid; callers wanting a global sign-out revoke
// them explicitly.
func (s *AuthService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	account, err := s.provider.GetByID(ctx, subjectID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return auth.NewError(auth.KindInvalidCredentials, nil)
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}

	s.publish(ctx, events.EventPasswordChanged, account.ID, events.PasswordChangedPayload{Username: account.Username})
	return nil
}

// RequestPasswordReset issues a reset token for the account behind the
// email. Unknown addresses yield an empty token and no error so the
// transport layer can answer identically either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := s.accounts.GetByLogin(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	token, err := s.issuer.IssueSinglePurpose(account.ID, auth.TokenTypePasswordReset, s.cfg.PasswordResetTTL(), nil)
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.EventPasswordResetRequested, account.ID, events.PasswordResetRequestedPayload{
		Email:      account.Email,
		ResetToken: token,
	})
	return token, nil
}

// ConfirmPasswordReset consumes a reset token and stores the new password
// hash. The token is revoked on consumption so it cannot be replayed inside
// its validity window.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	ident, err := s.verifier.Verify(ctx, token, auth.TokenTypePasswordReset)
	if err != nil {
		return err
	}

	account, err := s.provider.GetByID(ctx, ident.Subject)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}

	if err := s.revokeIdentity(ctx, ident, "password_reset_consumed"); err != nil {
		return err
	}
	s.publish(ctx, events.EventPasswordChanged, account.ID, events.PasswordChangedPayload{Username: account.Username})
	return nil
}

// VerifyEmail consumes an email-verification token and marks the account
// verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.Account, error) {
	ident, err := s.verifier.Verify(ctx, token, auth.TokenTypeEmailVerification)
	if err != nil {
		return nil, err
	}

	account, err := s.provider.GetByID(ctx, ident.Subject)
	if err != nil {
		return nil, err
	}
	if !account.EmailVerified {
		account.EmailVerified = true
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
	}

	if err := s.revokeIdentity(ctx, ident, "email_verification_consumed"); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventEmailVerified, account.ID, events.EmailVerifiedPayload{Email: account.Email})
	return account, nil
}

func (s *AuthService) revokeIdentity(ctx context.Context, ident *auth.Identity, reason string) error {
	if err := s.revocations.Revoke(ctx, ident.TokenID, ident.ExpiresAt); err != nil {
		return auth.NewError(auth.KindStoreUnavailable, err)
	}
	s.publish(ctx, events.EventTokenRevoked, ident.Subject, events.TokenRevokedPayload{
		TokenID:   ident.TokenID,
		TokenType: string(ident.TokenType),
		ExpiresAt: ident.ExpiresAt,
		Reason:    reason,
	})
	return nil
}

func (s *AuthService) ensureLoginFree(ctx context.Context, login, message string) error {
	_, err := s.accounts.GetByLogin(ctx, login)
	if err == nil {
		return apperrors.NewConflict(message, nil)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func displayClaims(account *domain.Account) map[string]string {
	return map[string]string{
		"username": account.Username,
		"email":    account.Email,
	}
}
