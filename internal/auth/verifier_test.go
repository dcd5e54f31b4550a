package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubStore is an in-test revocation backend.
type stubStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newStubStore() *stubStore {
	return &stubStore{revoked: make(map[string]time.Time)}
}

func (s *stubStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *stubStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[tokenID]
	return ok, nil
}

type verifierFixture struct {
	signer   *Signer
	issuer   *Issuer
	verifier *Verifier
	store    *stubStore
	now      time.Time
}

func newVerifierFixture(t *testing.T, accessTTL time.Duration, ceiling time.Duration) *verifierFixture {
	t.Helper()
	signer := newTestSigner(t)
	issuer := NewIssuer(signer, accessTTL, 14*24*time.Hour)
	store := newStubStore()
	verifier := NewVerifier(signer, issuer, store, ceiling)

	f := &verifierFixture{signer: signer, issuer: issuer, verifier: verifier, store: store, now: time.Now()}
	issuer.now = func() time.Time { return f.now }
	verifier.now = func() time.Time { return f.now }
	return f
}

func (f *verifierFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestVerifyRoundTrip(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-7", map[string]string{"username": "carol"})
	require.NoError(t, err)

	ident, err := f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "user-7", ident.Subject)
	require.Equal(t, TokenTypeAccess, ident.TokenType)
	require.Equal(t, "carol", ident.Extra["username"])
	require.NotEmpty(t, ident.TokenID)
}

func TestVerifyMissingToken(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)
	_, err := f.verifier.Verify(context.Background(), "", TokenTypeAccess)
	require.True(t, IsKind(err, KindMissingToken), "got %v", err)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	f := newVerifierFixture(t, time.Second, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	// Accepted while inside the one-second window.
	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)

	f.advance(2 * time.Second)
	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.True(t, IsKind(err, KindExpiredToken), "got %v", err)
}

func TestVerifyTypeMismatchBothDirections(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	_, err = f.verifier.Verify(context.Background(), pair.RefreshToken, TokenTypeAccess)
	require.True(t, IsKind(err, KindTokenTypeMismatch), "got %v", err)

	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeRefresh)
	require.True(t, IsKind(err, KindTokenTypeMismatch), "got %v", err)
}

func TestVerifySinglePurposeCannotAuthenticate(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	reset, err := f.issuer.IssueSinglePurpose("user-1", TokenTypePasswordReset, 0, nil)
	require.NoError(t, err)

	_, err = f.verifier.Verify(context.Background(), reset, TokenTypeAccess)
	require.True(t, IsKind(err, KindTokenTypeMismatch), "got %v", err)
}

func TestVerifyRevokedDominatesRemainingValidity(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	ident, err := f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)

	require.NoError(t, f.store.Revoke(context.Background(), ident.TokenID, ident.ExpiresAt))

	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.True(t, IsKind(err, KindRevokedToken), "got %v", err)
}

func TestVerifyFailsClosedOnStoreError(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	f.store.err = errors.New("connection refused")
	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.True(t, IsKind(err, KindStoreUnavailable), "got %v", err)
}

func TestRefreshIssuesWorkingPair(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("42", nil)
	require.NoError(t, err)

	newPair, err := f.verifier.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, newPair.AccessToken)

	ident, err := f.verifier.Verify(context.Background(), newPair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "42", ident.Subject)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	_, err = f.verifier.Refresh(context.Background(), pair.AccessToken)
	require.True(t, IsKind(err, KindTokenTypeMismatch), "got %v", err)
}

func TestRefreshSlidingSessionByDefault(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	// With no ceiling the chain can be extended indefinitely.
	for n := 0; n < 5; n++ {
		f.advance(10 * 24 * time.Hour)
		pair, err = f.verifier.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
	}
}

func TestRefreshSessionCeiling(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)
	f.verifier.sessionCeiling = 5 * 24 * time.Hour

	pair, err := f.issuer.IssuePair("user-1", nil)
	require.NoError(t, err)

	// First refresh well inside the ceiling.
	f.advance(2 * 24 * time.Hour)
	pair, err = f.verifier.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	// The refreshed pair inherits the chain origin, so crossing the
	// ceiling kills the session even though the refresh token itself is
	// nowhere near its own expiry.
	f.advance(4 * 24 * time.Hour)
	_, err = f.verifier.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, IsKind(err, KindExpiredToken), "got %v", err)
}

func TestLogoutScenarioAccessRevokedRefreshUnaffected(t *testing.T) {
	f := newVerifierFixture(t, time.Hour, 0)

	pair, err := f.issuer.IssuePair("7", nil)
	require.NoError(t, err)

	ident, err := f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	require.NoError(t, f.store.Revoke(context.Background(), ident.TokenID, ident.ExpiresAt))

	_, err = f.verifier.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.True(t, IsKind(err, KindRevokedToken), "got %v", err)

	// The refresh token carries its own jti and stays usable.
	newPair, err := f.verifier.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, newPair.AccessToken)
}
