// Package persistence provides document stores for the session list. The
// whole list is serialized as one JSON array per save, so a partial write
// can never leave a half-updated document behind.
package persistence

import (
	"github.com/deckstream/deckstream/deck"
)

// Compile-time interface checks
var (
	_ deck.Persister = (*FileStore)(nil)
	_ deck.Persister = (*RedisStore)(nil)
)
