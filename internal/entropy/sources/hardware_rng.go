package sources

import (
	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// RDRANDSource draws bytes from the CPU's on-die RDRAND instruction,
// available on amd64 hosts with the feature bit set. Unlike most
// sources here it is not a timing side-channel: it is the vendor's own
// conditioned hardware RNG, included as a comparison baseline and an
// independent domain from the timing-based harvesters.
type RDRANDSource struct{}

func NewRDRANDSource() *RDRANDSource { return &RDRANDSource{} }

func (s *RDRANDSource) Info() source.Info {
	return source.Info{
		ID:               "rdrand",
		Description:      "CPU on-die RDRAND hardware random number generator",
		PhysicsRationale: "An on-die conditioned hardware RNG (thermal noise based on most implementations), independent of this process's timing behavior",
		Category:         source.CategoryFrontier,
		Platform:         source.PlatformAny,
		Capabilities:     []source.Capability{source.CapabilityRDRAND},
		EntropyRateBPS:   8_000_000,
	}
}

func (s *RDRANDSource) IsAvailable() bool { return primitives.HasRDRAND() }

func (s *RDRANDSource) Collect(nBytes int) []byte {
	if nBytes <= 0 || !s.IsAvailable() {
		return nil
	}
	buf := make([]byte, nBytes)
	if !primitives.RDRANDBytes(buf) {
		return nil
	}
	return buf
}

// RDSEEDSource draws bytes from the CPU's RDSEED instruction, a
// narrower-bandwidth true entropy source feeding RDRAND's own
// conditioning.
type RDSEEDSource struct{}

func NewRDSEEDSource() *RDSEEDSource { return &RDSEEDSource{} }

func (s *RDSEEDSource) Info() source.Info {
	return source.Info{
		ID:               "rdseed",
		Description:      "CPU on-die RDSEED true entropy source",
		PhysicsRationale: "Directly exposes the CPU's physical entropy source prior to RDRAND's own DRBG conditioning",
		Category:         source.CategoryFrontier,
		Platform:         source.PlatformAny,
		Capabilities:     []source.Capability{source.CapabilityRDSEED},
		EntropyRateBPS:   500_000,
	}
}

func (s *RDSEEDSource) IsAvailable() bool { return primitives.HasRDSEED() }

func (s *RDSEEDSource) Collect(nBytes int) []byte {
	if nBytes <= 0 || !s.IsAvailable() {
		return nil
	}
	buf := make([]byte, nBytes)
	if !primitives.RDSEEDBytes(buf) {
		return nil
	}
	return buf
}
