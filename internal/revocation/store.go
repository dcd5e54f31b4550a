// Package revocation records token ids that must no longer be honored,
// independent of their remaining validity window.
package revocation

import (
	"context"
	"time"
)

// Store is the revocation backend consumed by the token verifier. Both
// operations are idempotent and must be safe for concurrent use; reads
// vastly outnumber writes. A revocation must become visible to all
// subsequent lookups, including those served by other processes when the
// backend is shared.
type Store interface {
	// Revoke records the token id. expiresAt is the token's natural
	// expiry; the entry may be discarded after that point since the
	// expiry check rejects the token anyway.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether the token id has been revoked. An error
	// means the store could not be consulted; callers must fail closed.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
