package conditioning

import (
	prng "github.com/sixafter/prng-chacha"
)

// VonNeumannDebias applies pairwise Von Neumann debiasing to data: for
// each two consecutive bits (MSB-first within each byte), it emits the
// first bit if they differ and discards the pair otherwise. Surviving
// bits are packed MSB-first; a trailing partial byte is zero-padded on
// the right.
func VonNeumannDebias(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var bits []byte

	var prevBit byte
	havePrev := false
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			if !havePrev {
				prevBit = bit
				havePrev = true
				continue
			}
			if prevBit != bit {
				bits = append(bits, prevBit)
			}
			havePrev = false
		}
	}
	if len(bits) == 0 {
		return nil
	}

	out := make([]byte, 0, (len(bits)+7)/8)
	var cur byte
	nbits := 0
	for _, bit := range bits {
		cur = cur<<1 | bit
		nbits++
		if nbits == 8 {
			out = append(out, cur)
			cur = 0
			nbits = 0
		}
	}
	if nbits > 0 {
		cur <<= uint(8 - nbits)
		out = append(out, cur)
	}
	return out
}

// ExtendDebiased returns exactly n bytes of Von Neumann-debiased output
// derived from raw. If the first debiasing pass does not yield enough
// bytes (common when raw is heavily biased, since debiasing discards a
// large fraction of input bits), it cycles raw XORed against a fresh
// sixafter/prng-chacha stream and re-debiases, repeating until n bytes
// are available or a bounded number of rounds is exhausted. This is a
// best-effort fallback: the external contract requires exactly n bytes
// even when the underlying source cannot truthfully supply that much
// debiased entropy.
func ExtendDebiased(raw []byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	out := VonNeumannDebias(raw)
	if len(out) >= n {
		return out[:n]
	}

	reader, err := prng.NewReader()
	if err != nil {
		return cycleXOR(out, raw, n)
	}

	const maxRounds = 64
	round := make([]byte, len(raw))
	if len(round) == 0 {
		round = make([]byte, 256)
	}
	for r := 0; r < maxRounds && len(out) < n; r++ {
		if _, err := reader.Read(round); err != nil {
			break
		}
		mixed := make([]byte, len(round))
		for i := range mixed {
			src := byte(0)
			if len(raw) > 0 {
				src = raw[i%len(raw)]
			}
			mixed[i] = src ^ round[i]
		}
		out = append(out, VonNeumannDebias(mixed)...)
	}
	if len(out) < n {
		out = cycleXOR(out, raw, n)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// cycleXOR pads out to n bytes by cycling through out itself (or
// fallback if out is empty) XORed against its own bytes offset by
// one position, guaranteeing forward progress without a PRNG.
func cycleXOR(out, fallback []byte, n int) []byte {
	src := out
	if len(src) == 0 {
		src = fallback
	}
	if len(src) == 0 {
		return make([]byte, n)
	}
	result := make([]byte, len(out), n)
	copy(result, out)
	for i := 0; len(result) < n; i++ {
		result = append(result, src[i%len(src)]^src[(i+1)%len(src)])
	}
	return result[:n]
}
