package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner("test-secret")
	require.NoError(t, err)
	return signer
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestSignDecodeRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Now()

	claims := &Claims{
		Type:  TokenTypeAccess,
		Extra: map[string]string{"username": "alice"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	decoded, err := signer.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", decoded.Subject)
	require.Equal(t, "jti-1", decoded.ID)
	require.Equal(t, TokenTypeAccess, decoded.Type)
	require.Equal(t, "alice", decoded.Extra["username"])
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(&Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Swap the subject inside the payload, keeping the JSON intact. The
	// result must read as a signature failure, never as a
	// decodable-but-wrong claim set.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tamperedPayload := strings.Replace(string(payload), `"user-1"`, `"user-2"`, 1)
	require.NotEqual(t, string(payload), tamperedPayload)
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(tamperedPayload)) + "." + parts[2]

	_, err = signer.Decode(tampered)
	require.Error(t, err)
	require.True(t, IsKind(err, KindInvalidSignature), "got %v", err)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	signer := newTestSigner(t)
	other, err := NewSigner("different-secret")
	require.NoError(t, err)

	token, err := other.Sign(&Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	_, err = signer.Decode(token)
	require.True(t, IsKind(err, KindInvalidSignature), "got %v", err)
}

func TestDecodeRejectsWrongAlgorithm(t *testing.T) {
	signer := newTestSigner(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = signer.Decode(signed)
	require.True(t, IsKind(err, KindInvalidSignature), "got %v", err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	signer := newTestSigner(t)
	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := signer.Decode(input)
		require.Error(t, err, "input %q", input)
		require.True(t, IsKind(err, KindMalformedToken), "input %q got %v", input, err)
	}
}

func TestDecodeDoesNotCheckExpiry(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(&Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	require.NoError(t, err)

	// Signature validity and current validity are separate concerns;
	// the expired claim set still decodes.
	decoded, err := signer.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", decoded.Subject)
}
