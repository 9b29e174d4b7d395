package conditioning

import (
	ctrdrbg "github.com/sixafter/aes-ctr-drbg"
)

// AesCtrDrbgStream wraps a NIST SP 800-90A CTR_DRBG instance, additive
// to the Raw/VonNeumann/Sha256 modes spec.md names. Its internal
// entropy comes from crypto/rand; the pool's derived seed is folded in
// only as personalization, for domain separation between pool
// instances rather than as the DRBG's actual entropy source.
type AesCtrDrbgStream struct {
	r ctrdrbg.Interface
}

// NewAesCtrDrbgStream constructs a stream personalized with seed.
func NewAesCtrDrbgStream(seed []byte) (*AesCtrDrbgStream, error) {
	r, err := ctrdrbg.NewReader(ctrdrbg.WithPersonalization(seed))
	if err != nil {
		return nil, err
	}
	return &AesCtrDrbgStream{r: r}, nil
}

// Read returns exactly n bytes, or fewer only if the underlying reader
// errors partway through.
func (s *AesCtrDrbgStream) Read(n int) []byte {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := s.r.Read(buf[got:])
		got += m
		if err != nil {
			break
		}
	}
	return buf[:got]
}
