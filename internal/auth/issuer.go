package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes for one-shot tokens, used when no override is given.
const (
	DefaultPasswordResetTTL     = time.Hour
	DefaultEmailVerificationTTL = 24 * time.Hour
)

// Issuer translates an authentication event into signed tokens. Every
// issued claim set gets a fresh random jti; jtis are never reused, even
// for the same subject and type.
type Issuer struct {
	signer     *Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer builds an issuer with the configured access/refresh lifetimes.
func NewIssuer(signer *Signer, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Issuer{
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair mints an independent access/refresh claim-set pair for the
// subject. Both share the subject and extra claims but carry distinct jtis
// and expiry horizons.
func (i *Issuer) IssuePair(subject string, extra map[string]string) (*TokenPair, error) {
	issuedAt := i.now()
	return i.issuePairAt(subject, extra, issuedAt, issuedAt)
}

// issuePairAt lets the verifier's refresh path pin the session origin
// while everything else stamps fresh timestamps.
func (i *Issuer) issuePairAt(subject string, extra map[string]string, issuedAt, origIssuedAt time.Time) (*TokenPair, error) {
	access, err := i.signer.Sign(i.buildClaims(subject, TokenTypeAccess, extra, issuedAt, origIssuedAt, i.accessTTL))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.signer.Sign(i.buildClaims(subject, TokenTypeRefresh, extra, issuedAt, origIssuedAt, i.refreshTTL))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

// IssueSinglePurpose mints a one-shot token (password reset or email
// verification). A zero ttl selects the default lifetime for the purpose.
func (i *Issuer) IssueSinglePurpose(subject string, purpose TokenType, ttl time.Duration, extra map[string]string) (string, error) {
	if !purpose.SinglePurpose() {
		return "", fmt.Errorf("token type %q is not single-purpose", purpose)
	}
	if ttl <= 0 {
		switch purpose {
		case TokenTypePasswordReset:
			ttl = DefaultPasswordResetTTL
		case TokenTypeEmailVerification:
			ttl = DefaultEmailVerificationTTL
		}
	}
	issuedAt := i.now()
	return i.signer.Sign(i.buildClaims(subject, purpose, extra, issuedAt, issuedAt, ttl))
}

func (i *Issuer) buildClaims(subject string, tokenType TokenType, extra map[string]string, issuedAt, origIssuedAt time.Time, ttl time.Duration) *Claims {
	return &Claims{
		Type:         tokenType,
		OrigIssuedAt: jwt.NewNumericDate(origIssuedAt),
		Extra:        extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// AccessTTL exposes the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}
