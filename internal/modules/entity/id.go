package entity

import (
	"crypto/rand"
	"encoding/hex"

	"ozra/internal/types"
)

// NewID returns a collision-resistant 32-char hex identifier.
func NewID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
