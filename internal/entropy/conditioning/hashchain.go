package conditioning

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
)

// HashChain is the pool's hash-chain DRBG: a 32-byte state advanced by
// hashing itself together with fresh sample material, a counter, a
// timestamp, and OS entropy on every output block.
type HashChain struct {
	state   [32]byte
	counter uint64
}

// NewHashChain seeds a chain from SHA256(seed || osEntropy || timestampNanos).
// seed may be nil.
func NewHashChain(seed []byte, osEntropy []byte, timestampNanos int64) *HashChain {
	h := sha256.New()
	h.Write(seed)
	h.Write(osEntropy)
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(timestampNanos))
	h.Write(ts[:])

	hc := &HashChain{}
	copy(hc.state[:], h.Sum(nil))
	return hc
}

// NextBlock advances the chain and returns the new 32-byte state:
// S' = SHA256(S || sample || counter_le || timestampNanos_le || osEntropy).
// sample and osEntropy may both be empty. The counter is incremented
// before being mixed in, so the first block produced by a freshly
// seeded chain embeds counter_le(1).
func (hc *HashChain) NextBlock(sample []byte, timestampNanos int64, osEntropy []byte) []byte {
	hc.counter++

	h := sha256.New()
	h.Write(hc.state[:])
	h.Write(sample)

	var counterLE [8]byte
	binary.LittleEndian.PutUint64(counterLE[:], hc.counter)
	h.Write(counterLE[:])

	var tsLE [8]byte
	binary.LittleEndian.PutUint64(tsLE[:], uint64(timestampNanos))
	h.Write(tsLE[:])

	h.Write(osEntropy)

	next := h.Sum(nil)
	copy(hc.state[:], next)
	return next
}

// State returns a copy of the chain's current 32-byte state.
func (hc *HashChain) State() [32]byte {
	return hc.state
}

// Counter returns the number of blocks produced so far.
func (hc *HashChain) Counter() uint64 {
	return hc.counter
}

// OSEntropy is the indirection point for drawing OS randomness; tests
// substitute this to make Sha256 mode reproducible (invariant 9).
var OSEntropy = func(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return make([]byte, n)
	}
	return buf
}

// NowNanos is the indirection point for the wall-clock timestamp
// mixed into every block; tests substitute this for determinism.
var NowNanos = func() int64 {
	return realNowNanos()
}
