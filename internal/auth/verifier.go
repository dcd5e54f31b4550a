package auth

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/blog-auth/internal/revocation"
)

// Verifier decides whether a presented token is currently valid for a
// requested purpose. A token moves from Active to Expired purely by
// wall-clock time, and to Revoked by an entry appearing in the revocation
// store; both are terminal.
type Verifier struct {
	signer         *Signer
	issuer         *Issuer
	revocations    revocation.Store
	sessionCeiling time.Duration
	now            func() time.Time
}

// NewVerifier wires the verifier. sessionCeiling bounds how long a session
// chain may be extended through refreshes; zero keeps the sliding-session
// behavior where a refresh token can be refreshed indefinitely.
func NewVerifier(signer *Signer, issuer *Issuer, revocations revocation.Store, sessionCeiling time.Duration) *Verifier {
	return &Verifier{
		signer:         signer,
		issuer:         issuer,
		revocations:    revocations,
		sessionCeiling: sessionCeiling,
		now:            time.Now,
	}
}

// Verify runs the full check chain: signature, type match, expiry,
// revocation. The order matters: a forged token must never reach the
// revocation store, and a type mismatch is reported before expiry so a
// stale refresh token presented as an access token still reads as misuse.
func (v *Verifier) Verify(ctx context.Context, tokenStr string, expected TokenType) (*Identity, error) {
	if tokenStr == "" {
		return nil, NewError(KindMissingToken, nil)
	}

	claims, err := v.signer.Decode(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Type != expected {
		return nil, NewError(KindTokenTypeMismatch, nil)
	}

	if claims.ExpiresAt == nil || !v.now().Before(claims.ExpiresAt.Time) {
		return nil, NewError(KindExpiredToken, nil)
	}

	revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Cannot confirm non-revocation: fail closed.
		return nil, NewError(KindStoreUnavailable, err)
	}
	if revoked {
		return nil, NewError(KindRevokedToken, nil)
	}

	return &Identity{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		TokenType: claims.Type,
		Extra:     claims.Extra,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh validates a refresh token and mints a new pair for its subject
// without re-authentication. When a session ceiling is configured the new
// pair inherits the chain's original issue time, and refreshing past the
// ceiling fails as expired.
func (v *Verifier) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := v.Verify(ctx, refreshToken, TokenTypeRefresh); err != nil {
		return nil, err
	}

	// Decode again for the session-origin claim; Verify already proved
	// signature and validity.
	claims, err := v.signer.Decode(refreshToken)
	if err != nil {
		return nil, err
	}

	now := v.now()
	origIssuedAt := now
	if claims.OrigIssuedAt != nil {
		origIssuedAt = claims.OrigIssuedAt.Time
	}
	if v.sessionCeiling > 0 && now.After(origIssuedAt.Add(v.sessionCeiling)) {
		return nil, NewError(KindExpiredToken, errors.New("session ceiling reached"))
	}

	pair, err := v.issuer.issuePairAt(claims.Subject, claims.Extra, now, origIssuedAt)
	if err != nil {
		return nil, err
	}
	return pair, nil
}
