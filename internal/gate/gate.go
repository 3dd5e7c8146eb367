// Package gate bounds the number of simultaneous ingestion requests per
// client. Two interchangeable backends expose identical acquire/release
// semantics: an in-process store for single-instance deployments and a SQL
// store shared across process instances.
package gate

import (
	"context"
	"time"
)

// Store is the admission-counter abstraction. Implementations must make
// every counter mutation atomic with respect to concurrent callers sharing a
// client key, and must treat expired entries as absent.
type Store interface {
	// Acquire increments the client's counter and returns true, unless the
	// increment would exceed limit, in which case state is left untouched
	// and false is returned. The entry expires after ttl.
	Acquire(ctx context.Context, clientKey string, limit int, ttl time.Duration) (bool, error)

	// Release decrements the client's counter. Releasing with no
	// outstanding acquisition is a no-op, not an error.
	Release(ctx context.Context, clientKey string) error
}
