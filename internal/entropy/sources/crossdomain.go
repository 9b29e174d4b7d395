package sources

import (
	"os"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// CrossDomainBeat alternates a CPU-bound operation with an I/O-bound
// syscall (stat on the current directory) each iteration, timestamping
// every transition. The two clock domains (CPU execution vs. the I/O
// subsystem's own scheduling) free-run at different, weakly-correlated
// rates, producing a beat frequency in their timing difference.
type CrossDomainBeat struct{}

func NewCrossDomainBeat() *CrossDomainBeat { return &CrossDomainBeat{} }

func (s *CrossDomainBeat) Info() source.Info {
	return source.Info{
		ID:               "cross_domain_beat",
		Description:      "Timing beat between CPU execution and I/O syscall completion domains",
		PhysicsRationale: "CPU and I/O subsystem clocks are independent free-running domains; their relative phase at each transition is not derivable from either alone",
		Category:         source.CategoryCrossDomain,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   350,
	}
}

func (s *CrossDomainBeat) IsAvailable() bool { return true }

func (s *CrossDomainBeat) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	values := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		cpuStart := primitives.MonotonicTicks()
		var acc uint64
		for j := 0; j < 256; j++ {
			acc += uint64(j) * uint64(j)
		}
		cpuEnd := primitives.MonotonicTicks()

		ioStart := primitives.MonotonicTicks()
		_, _ = os.Stat(".")
		ioEnd := primitives.MonotonicTicks()

		values = append(values, (cpuEnd-cpuStart)^(ioEnd-ioStart)^acc)
	}
	out := primitives.ExtractLSBs(values)
	if len(out) > nBytes {
		out = out[:nBytes]
	}
	return out
}
