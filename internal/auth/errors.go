package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes authentication and authorization failures.
type ErrorKind string

const (
	KindMissingToken       ErrorKind = "MISSING_TOKEN"
	KindMalformedToken     ErrorKind = "MALFORMED_TOKEN"
	KindInvalidSignature   ErrorKind = "INVALID_SIGNATURE"
	KindExpiredToken       ErrorKind = "EXPIRED_TOKEN"
	KindRevokedToken       ErrorKind = "REVOKED_TOKEN"
	KindTokenTypeMismatch  ErrorKind = "TOKEN_TYPE_MISMATCH"
	KindAccountInactive    ErrorKind = "ACCOUNT_INACTIVE"
	KindInvalidCredentials ErrorKind = "INVALID_CREDENTIALS"
	KindNotResourceOwner   ErrorKind = "NOT_RESOURCE_OWNER"
	KindStoreUnavailable   ErrorKind = "REVOCATION_STORE_UNAVAILABLE"
)

var kindMessages = map[ErrorKind]string{
	KindMissingToken:       "no credential presented",
	KindMalformedToken:     "token is not decodable",
	KindInvalidSignature:   "token signature mismatch",
	KindExpiredToken:       "token has expired",
	KindRevokedToken:       "token has been revoked",
	KindTokenTypeMismatch:  "token type not valid for this operation",
	KindAccountInactive:    "account is disabled",
	KindInvalidCredentials: "invalid credentials",
	KindNotResourceOwner:   "not owner or admin of this resource",
	KindStoreUnavailable:   "revocation store unavailable",
}

// HTTPStatus maps the kind onto its transport-level status.
// Authorization failures are 403, infrastructure failures 503,
// everything else is an authentication failure at 401.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotResourceOwner:
		return http.StatusForbidden
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// Error is the typed failure returned by the auth core. Callers branch on
// Kind rather than on error strings.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = string(e.Kind)
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the stable human-readable message for the kind, without
// any wrapped detail that could leak which sub-check failed.
func (e *Error) Message() string {
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

// NewError wraps err under the given kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsKind reports whether err is an auth error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var authErr *Error
	if !errors.As(err, &authErr) {
		return false
	}
	return authErr.Kind == kind
}
