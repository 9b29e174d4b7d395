package sources

import (
	"os"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"

	"openentropy/internal/entropy/source"
)

// tpmDevicePaths are probed in order; the resident-manager device is
// preferred since it multiplexes access safely with other callers.
var tpmDevicePaths = []string{"/dev/tpmrm0", "/dev/tpm0"}

// TPMRandom draws bytes from a discrete TPM 2.0's hardware RNG via its
// GetRandom command. The TPM's RNG is a physically separate die from
// the host CPU, typically seeded from its own ring oscillator.
type TPMRandom struct {
	devicePath string
}

// NewTPMRandom probes for a usable TPM device node and returns a
// source bound to it; the returned source reports unavailable if no
// device node exists.
func NewTPMRandom() *TPMRandom {
	for _, p := range tpmDevicePaths {
		if _, err := os.Stat(p); err == nil {
			return &TPMRandom{devicePath: p}
		}
	}
	return &TPMRandom{}
}

func (s *TPMRandom) Info() source.Info {
	return source.Info{
		ID:               "tpm_random",
		Description:      "Hardware RNG exposed by a discrete TPM 2.0 module",
		PhysicsRationale: "A TPM's RNG runs on a physically separate die with its own power and clock domain, typically a free-running ring oscillator circuit",
		Category:         source.CategoryFrontier,
		Platform:         source.PlatformLinux,
		Capabilities:     []source.Capability{source.CapabilityTPM},
		EntropyRateBPS:   10_000,
	}
}

func (s *TPMRandom) IsAvailable() bool {
	return s.devicePath != ""
}

func (s *TPMRandom) Collect(nBytes int) []byte {
	if nBytes <= 0 || !s.IsAvailable() {
		return nil
	}

	tpm, err := transport.OpenTPM(s.devicePath)
	if err != nil {
		return nil
	}
	defer tpm.Close()

	out := make([]byte, 0, nBytes)
	for len(out) < nBytes {
		want := nBytes - len(out)
		if want > 32 {
			want = 32 // TPM2_GetRandom is specified to cap a single call near the digest size
		}
		cmd := tpm2.GetRandom{BytesRequested: uint16(want)}
		resp, err := cmd.Execute(tpm)
		if err != nil || len(resp.RandomBytes.Buffer) == 0 {
			break
		}
		out = append(out, resp.RandomBytes.Buffer...)
	}
	return out
}
