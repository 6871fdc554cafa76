// Package photo handles student photos: normalizing uploads into bounded
// JPEGs and persisting them in a blob store addressed by generated object
// names.
package photo

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Store is the blob-store contract. Put returns a publicly resolvable URL;
// Remove is best effort and callers are expected to log-and-continue when it
// fails.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, ref string) error
}

// ObjectName derives a collision-free object name from the owner's CPF digits
// and a ULID. The ULID encodes a timestamp, so re-uploads under the same CPF
// never clash and orphans stay datable.
func ObjectName(cpfDigits string) string {
	return fmt.Sprintf("%s_%s.jpg", cpfDigits, ulid.Make().String())
}
