package random

import (
	"crypto/rand"
)

// NewClientSeed returns 32 bytes of entropy for the player side of the
// commit-reveal seed pair.
func NewClientSeed() ([32]byte, error) {
	var seed [32]byte

	if _, err := rand.Read(seed[:]); err != nil {
		return seed, err
	}

	return seed, nil
}
