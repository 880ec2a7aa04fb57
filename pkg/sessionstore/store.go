// Package sessionstore keeps HTTP session data on the server. The browser only
// holds a signed cookie with the opaque session id; the values live in a
// Store which can be swapped without touching the handlers.
package sessionstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Store persists encoded session records by session id.
type Store interface {
	// Get returns ErrNotFound if the session does not exist or has expired.
	Get(ctx context.Context, id string) ([]byte, error)
	// Set stores the record, ttl <= 0 means no expiry.
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
}
