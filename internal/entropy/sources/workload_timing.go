package sources

import (
	"crypto/sha256"
	"io"
	"math/rand"

	"github.com/klauspost/compress/flate"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// HashWorkloadTiming repeatedly hashes fixed-content buffers of varied
// sizes and times each hash. The cryptographic primitive is the
// workload, not the post-processing step; its duration depends on CPU
// frequency scaling, cache state, and thermal throttling the process
// cannot observe directly.
type HashWorkloadTiming struct {
	payloads [][]byte
}

func NewHashWorkloadTiming() *HashWorkloadTiming {
	sizes := []int{64, 512, 4096, 65536}
	payloads := make([][]byte, len(sizes))
	r := rand.New(rand.NewSource(1))
	for i, sz := range sizes {
		buf := make([]byte, sz)
		r.Read(buf)
		payloads[i] = buf
	}
	return &HashWorkloadTiming{payloads: payloads}
}

func (s *HashWorkloadTiming) Info() source.Info {
	return source.Info{
		ID:               "hash_workload_timing",
		Description:      "Timing of SHA-256 hashing over varied-size buffers",
		PhysicsRationale: "Hash computation duration reflects CPU frequency scaling, cache occupancy, and thermal state driven by system-wide load",
		Category:         source.CategorySignal,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   500,
	}
}

func (s *HashWorkloadTiming) IsAvailable() bool { return true }

func (s *HashWorkloadTiming) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		payload := s.payloads[i%len(s.payloads)]
		start := primitives.MonotonicTicks()
		sum := sha256.Sum256(payload)
		end := primitives.MonotonicTicks()
		timings = append(timings, (end-start)^uint64(sum[0]))
	}
	return primitives.ExtractTimingEntropy(timings, nBytes)
}

// CompressionWorkloadTiming compresses fixed-content buffers of varied
// redundancy and times each pass.
type CompressionWorkloadTiming struct {
	payloads [][]byte
}

func NewCompressionWorkloadTiming() *CompressionWorkloadTiming {
	r := rand.New(rand.NewSource(2))
	random := make([]byte, 16384)
	r.Read(random)
	structured := make([]byte, 16384)
	for i := range structured {
		structured[i] = byte(i % 7)
	}
	return &CompressionWorkloadTiming{payloads: [][]byte{random, structured}}
}

func (s *CompressionWorkloadTiming) Info() source.Info {
	return source.Info{
		ID:               "compression_workload_timing",
		Description:      "Timing of DEFLATE compression over varied-redundancy buffers",
		PhysicsRationale: "Compression workload duration is sensitive to branch prediction and cache behavior that vary with concurrent system load",
		Category:         source.CategorySignal,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   400,
	}
}

func (s *CompressionWorkloadTiming) IsAvailable() bool { return true }

func (s *CompressionWorkloadTiming) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		payload := s.payloads[i%len(s.payloads)]
		start := primitives.MonotonicTicks()
		w, err := flate.NewWriter(io.Discard, flate.BestSpeed)
		if err == nil {
			_, _ = w.Write(payload)
			_ = w.Close()
		}
		end := primitives.MonotonicTicks()
		timings = append(timings, end-start)
	}
	return primitives.ExtractTimingEntropyVariance(timings, nBytes)
}
