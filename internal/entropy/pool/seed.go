package pool

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// deriveSeed expands the caller's optional seed into 32 bytes of
// uniformly-distributed key material via HKDF-SHA256, using the OS
// entropy draw as salt and the construction timestamp as context info.
// Used only to seed the additive AesCtrDrbg path (drbgSeed); the
// Sha256-mode hash chain is seeded directly from the caller's raw seed
// via conditioning.NewHashChain, per the literal
// seed ∥ OS-entropy ∥ timestamp formula the pool's reproducibility
// scenario pins.
func deriveSeed(seed, osEntropy []byte, timestampNanos int64) []byte {
	var info [8]byte
	binary.LittleEndian.PutUint64(info[:], uint64(timestampNanos))

	r := hkdf.New(sha256.New, seed, osEntropy, info[:])
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		return seed
	}
	return out
}
