// Package session caches the last-authenticated identity record for instant
// re-entry. The cache is a read-through copy with no write authority: it only
// ever holds what the gateway returned, and logout clears it wholesale.
package session

import (
	"context"

	"carteirinha/internal/student/models"
)

// Store holds at most one record under a single well-known key.
type Store interface {
	// Load returns the cached record, or sentinel.ErrNotFound when the cache
	// is empty or unreadable.
	Load(ctx context.Context) (models.Student, error)
	// Save replaces the cached record.
	Save(ctx context.Context, student models.Student) error
	// Clear empties the cache. Clearing an empty cache is a no-op.
	Clear(ctx context.Context) error
}

// cacheKey is the single key the caches store under, kept from the original
// shipped clients so an upgrade finds the existing session.
const cacheKey = "dne_current_user"
