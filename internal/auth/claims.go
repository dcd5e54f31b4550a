package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates what a token may be used for. A token issued for
// one type is never honored where another type is expected.
type TokenType string

const (
	TokenTypeAccess            TokenType = "access"
	TokenTypeRefresh           TokenType = "refresh"
	TokenTypePasswordReset     TokenType = "password_reset"
	TokenTypeEmailVerification TokenType = "email_verification"
)

// SinglePurpose reports whether the type is a one-shot token type.
func (t TokenType) SinglePurpose() bool {
	return t == TokenTypePasswordReset || t == TokenTypeEmailVerification
}

// Claims is the signed payload of every token. Standard claims carry the
// subject (sub), unique token id (jti) and the validity window (iat/exp);
// Type carries the purpose. Extra holds display data only and is never
// consulted for authorization decisions.
type Claims struct {
	Type TokenType `json:"type"`
	// OrigIssuedAt marks when the session chain started; propagated
	// unchanged through refreshes so a session ceiling can be enforced.
	OrigIssuedAt *jwt.NumericDate  `json:"orig_iat,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a successfully verified token resolves to.
type Identity struct {
	Subject   string
	TokenID   string
	TokenType TokenType
	Extra     map[string]string
	ExpiresAt time.Time
}

// TokenPair is the result of issuing or refreshing a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
