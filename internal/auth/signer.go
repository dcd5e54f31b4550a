package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrNoSecret is returned when a Signer is constructed without a secret.
var ErrNoSecret = errors.New("signing secret is required")

// Signer produces and checks the tamper-evident encoding of a claim set.
// It knows nothing about expiry or token types; signature validity and
// current validity are deliberately separate concerns.
type Signer struct {
	secret []byte
	method jwt.SigningMethod
}

// NewSigner builds a signer over the shared HMAC secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Signer{secret: []byte(secret), method: jwt.SigningMethodHS256}, nil
}

// Sign encodes and MACs the claim set.
func (s *Signer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// Decode checks the MAC and structural integrity of a token and returns its
// claim set. Expiry and type are NOT checked here; callers that care about
// current validity go through the Verifier. Tokens signed with any method
// other than the configured one fail closed as InvalidSignature.
func (s *Signer) Decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != s.method {
			return nil, NewError(KindInvalidSignature, errors.New("unexpected signing method"))
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, classifyDecodeError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, NewError(KindMalformedToken, errors.New("unexpected claims payload"))
	}
	return claims, nil
}

func classifyDecodeError(err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return NewError(KindInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return NewError(KindMalformedToken, err)
	default:
		return NewError(KindMalformedToken, err)
	}
}
