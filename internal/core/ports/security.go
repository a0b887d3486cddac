package ports

import (
	"context"
	"time"
)

// PasswordHasher produces salted one-way digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns (false, nil) on mismatch and an error only for a malformed digest.
	Verify(password, digest string) (bool, error)
}

// TokenIssuer signs and checks bearer tokens bound to a user id.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	TokenVerifier
}

// TokenVerifier is the read side of TokenIssuer, used by the auth middleware.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
