// Package primitives implements the stateless extraction primitives shared
// by most entropy sources: timing-delta mining, bit/nibble packing, and
// XOR-folding. None of these functions can fail.
package primitives

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// MonotonicTicks returns a high-resolution monotonic counter value.
// On amd64 this reads the architectural timestamp counter via RDTSC when
// available (see cpu_amd64.go); elsewhere it derives ticks from
// time.Now()'s monotonic reading. No calibration is required — callers
// consume only delta LSBs, never the absolute value.
func MonotonicTicks() uint64 {
	if ticks, ok := archTicks(); ok {
		return ticks
	}
	return uint64(time.Now().UnixNano())
}

// ExtractLSBs packs the low bit of each value, MSB-first, 8 values per
// output byte. A trailing partial byte is zero-padded on the right.
func ExtractLSBs(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v&1 == 1 {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

// PackNibbles packs consecutive 4-bit nibbles two per byte, high nibble
// first. A trailing odd nibble becomes the high half of a final byte.
// Output is truncated to maxBytes.
func PackNibbles(nibbles []byte, maxBytes int) []byte {
	if len(nibbles) == 0 || maxBytes <= 0 {
		return nil
	}
	n := (len(nibbles) + 1) / 2
	if n > maxBytes {
		n = maxBytes
	}
	out := make([]byte, 0, n)
	for i := 0; i < len(nibbles) && len(out) < maxBytes; i += 2 {
		hi := nibbles[i] & 0x0F
		var lo byte
		if i+1 < len(nibbles) {
			lo = nibbles[i+1] & 0x0F
		}
		out = append(out, hi<<4|lo)
	}
	return out
}

// XorFoldU64 XORs the eight bytes of v into a single byte.
func XorFoldU64(v uint64) byte {
	var b byte
	for i := 0; i < 8; i++ {
		b ^= byte(v >> (8 * i))
	}
	return b
}

// FoldXxhash64 folds an arbitrary-length byte slice down to 8 bytes via
// xxhash. This is a ring-buffer integrity check, not a security
// primitive: it lets a consumer detect corruption of a stored raw sample
// cheaply, the way a CRC would, without claiming any cryptographic
// property.
func FoldXxhash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

func firstOrderDeltas(timings []uint64) []uint64 {
	if len(timings) < 2 {
		return nil
	}
	deltas := make([]uint64, len(timings)-1)
	for i := 1; i < len(timings); i++ {
		deltas[i-1] = timings[i] - timings[i-1]
	}
	return deltas
}

// ExtractTimingEntropy computes first-order deltas of timings, XORs
// adjacent deltas, folds each XORed delta to one byte, and truncates to
// n bytes. Requires at least 4 input timings; returns nil otherwise.
func ExtractTimingEntropy(timings []uint64, n int) []byte {
	if len(timings) < 4 || n <= 0 {
		return nil
	}
	return foldAdjacent(firstOrderDeltas(timings), n)
}

// ExtractTimingEntropyVariance is like ExtractTimingEntropy but folds
// second-order deltas (the delta of deltas) instead of first-order
// deltas. Used when systematic bias dominates absolute deltas.
func ExtractTimingEntropyVariance(timings []uint64, n int) []byte {
	if len(timings) < 4 || n <= 0 {
		return nil
	}
	return foldAdjacent(firstOrderDeltas(firstOrderDeltas(timings)), n)
}

// foldAdjacent XORs each delta with its predecessor and folds the result
// to a byte. The first XORed pair (i=1) is discarded as a warmup value
// with no preceding direction to compare against, so len(timings) input
// deltas yield len(deltas)-2 output bytes.
func foldAdjacent(deltas []uint64, n int) []byte {
	if len(deltas) < 3 {
		return nil
	}
	out := make([]byte, 0, n)
	for i := 2; i < len(deltas) && len(out) < n; i++ {
		out = append(out, XorFoldU64(deltas[i]^deltas[i-1]))
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ExtractTimingEntropyDebiased computes first-order deltas, chunks
// consecutive pairs, and emits one bit per unequal pair (1 if
// first < second, else 0); equal pairs are discarded. Bits are packed
// MSB-first into whole bytes only — no partial-byte padding.
func ExtractTimingEntropyDebiased(timings []uint64, n int) []byte {
	if n <= 0 {
		return nil
	}
	deltas := firstOrderDeltas(timings)
	if len(deltas) < 2 {
		return nil
	}

	var bits []bool
	for i := 0; i+1 < len(deltas); i += 2 {
		a, b := deltas[i], deltas[i+1]
		if a == b {
			continue
		}
		bits = append(bits, a < b)
	}

	out := make([]byte, 0, n)
	for len(bits) >= 8 && len(out) < n {
		var b byte
		for j := 0; j < 8; j++ {
			if bits[j] {
				b |= 1 << (7 - uint(j))
			}
		}
		out = append(out, b)
		bits = bits[8:]
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ExtractDeltaBytesI64 emits the little-endian bytes of each non-zero
// delta in order; if more bytes are needed, it appends little-endian
// bytes of the XOR of adjacent delta pairs. Truncated to n.
func ExtractDeltaBytesI64(deltas []int64, n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, 0, n)

	appendLE := func(v int64) {
		for i := 0; i < 8 && len(out) < n; i++ {
			out = append(out, byte(uint64(v)>>(8*i)))
		}
	}

	var nonZero []int64
	for _, d := range deltas {
		if d != 0 {
			nonZero = append(nonZero, d)
		}
	}
	for _, d := range nonZero {
		if len(out) >= n {
			break
		}
		appendLE(d)
	}
	for i := 1; len(out) < n && i < len(nonZero); i++ {
		appendLE(nonZero[i] ^ nonZero[i-1])
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
