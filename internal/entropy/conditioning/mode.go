package conditioning

import "fmt"

// Mode selects how pool output is conditioned before being handed to a
// caller.
type Mode int

const (
	Raw Mode = iota
	VonNeumann
	Sha256
	// AesCtrDrbg is an additive fourth mode, not named in spec.md's
	// three-mode table: a NIST SP 800-90A CTR_DRBG stream personalized
	// with the pool's derived seed, for operators who want a
	// standards-body-specified construction instead of the bespoke
	// hash chain.
	AesCtrDrbg
)

func (m Mode) String() string {
	switch m {
	case Raw:
		return "raw"
	case VonNeumann:
		return "vonneumann"
	case Sha256:
		return "sha256"
	case AesCtrDrbg:
		return "aesctrdrbg"
	default:
		return "unknown"
	}
}

// ParseMode accepts the wire-level spellings used by the CLI and HTTP
// surfaces.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw":
		return Raw, nil
	case "vonneumann", "von_neumann", "vn":
		return VonNeumann, nil
	case "sha256", "hash_chain":
		return Sha256, nil
	case "aesctrdrbg", "aes_ctr_drbg":
		return AesCtrDrbg, nil
	default:
		return Raw, fmt.Errorf("conditioning: unknown mode %q", s)
	}
}

// ApplyRaw truncates or zero-extends combined to exactly n bytes. An
// empty combined buffer yields n zero bytes.
func ApplyRaw(combined []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, combined)
	return out
}

// ApplyVonNeumann debiases combined and extends the result to exactly
// n bytes via ExtendDebiased's cycling fallback.
func ApplyVonNeumann(combined []byte, n int) []byte {
	return ExtendDebiased(combined, n)
}
