// Package conditioning implements the pool's quality measurements and
// output-conditioning modes: Shannon entropy, min-entropy, compression
// ratio, Von Neumann debiasing, and the SHA-256 hash-chain DRBG.
package conditioning

import (
	"bytes"
	"math"

	"github.com/klauspost/compress/flate"
)

// Shannon computes H(X) = -sum p_i log2(p_i) over the 256-symbol byte
// alphabet, in bits per byte. Empty input yields 0.
func Shannon(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// MinEntropy computes the MCV (most-common-value) estimator,
// -log2(max_i count_i / n), in bits per byte. Empty input yields 0.
func MinEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	n := float64(len(data))
	p := float64(maxCount) / n
	return -math.Log2(p)
}

// CompressionRatio returns the length of the DEFLATE-best encoding of
// data divided by len(data). A ratio near 1.0 indicates structureless
// (high-entropy) data; well below 1.0 indicates redundancy.
func CompressionRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return 1.0
	}
	_, _ = w.Write(data)
	_ = w.Close()
	return float64(buf.Len()) / float64(len(data))
}
