package chain

import "crypto/sha256"

// AnchorDiscriminator returns the 8-byte instruction discriminator the
// ledger and oracle programs derive from the instruction name.
func AnchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))

	return sum[:8]
}
