// Package tokens stores short-lived, one-time auth tokens: password-reset
// and account-activation tokens, and the denylist of logged-out JWTs.
package tokens

import (
	"context"
	"time"
)

const (
	PurposeReset      = "reset"
	PurposeActivation = "activation"
	PurposeDenylist   = "denylist"
)

// Store maps (purpose, token) to a user id with a TTL. Consume is
// one-shot: the token is removed on a successful read.
type Store interface {
	Put(ctx context.Context, purpose, token string, userID uint, ttl time.Duration) error
	Consume(ctx context.Context, purpose, token string) (uint, bool, error)
	// Peek reads without consuming (used for the JWT denylist).
	Peek(ctx context.Context, purpose, token string) (bool, error)
}
