package sources

import (
	"runtime"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// OscillatorJitter reads the monotonic counter in a tight loop,
// interleaved with runtime.Gosched calls that force a Go scheduler
// transition (a runtime yield, not a syscall). The jitter between the free-running counter and the
// scheduler's own timing is the signal.
type OscillatorJitter struct{}

func NewOscillatorJitter() *OscillatorJitter { return &OscillatorJitter{} }

func (s *OscillatorJitter) Info() source.Info {
	return source.Info{
		ID:               "oscillator_jitter",
		Description:      "Timing jitter between the monotonic counter and a forced scheduler transition",
		PhysicsRationale: "Independent free-running oscillators (CPU TSC vs. scheduler tick) drift relative to each other; the phase difference sampled at each transition is not reproducible from either clock alone",
		Category:         source.CategoryTiming,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   800,
	}
}

func (s *OscillatorJitter) IsAvailable() bool { return true }

func (s *OscillatorJitter) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		a := primitives.MonotonicTicks()
		runtime.Gosched()
		b := primitives.MonotonicTicks()
		timings = append(timings, a^b)
	}
	return primitives.ExtractTimingEntropy(timings, nBytes)
}
