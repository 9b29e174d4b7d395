package sources

import (
	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// Composite round-robins small batches from a set of member sources,
// additionally harvesting the transition timing between consecutive
// batches. It does not represent an independent physical domain of its
// own, so it is tagged Composite and excluded from "distinct physical
// domain" counts.
type Composite struct {
	members   []source.EntropySource
	batchSize int
}

// NewComposite creates a composite over members, pulling batchSize
// bytes per member per round (default 32 when <= 0).
func NewComposite(members []source.EntropySource, batchSize int) *Composite {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Composite{members: members, batchSize: batchSize}
}

func (s *Composite) Info() source.Info {
	return source.Info{
		ID:               "composite_roundrobin",
		Description:      "Round-robin batches from multiple sources plus inter-source transition timing",
		PhysicsRationale: "Combines independently-physical member sources; the transition timing between them is an additional, weakly-correlated signal",
		Category:         source.CategoryComposite,
		Platform:         source.PlatformAny,
		Composite:        true,
		EntropyRateBPS:   0,
	}
}

func (s *Composite) IsAvailable() bool {
	for _, m := range s.members {
		if m.IsAvailable() {
			return true
		}
	}
	return false
}

func (s *Composite) Collect(nBytes int) []byte {
	if nBytes <= 0 || len(s.members) == 0 {
		return nil
	}

	out := make([]byte, 0, nBytes)
	var transitions []uint64
	prev := primitives.MonotonicTicks()

	for len(out) < nBytes {
		progressed := false
		for _, m := range s.members {
			if !m.IsAvailable() {
				continue
			}
			want := s.batchSize
			if remaining := nBytes - len(out); remaining < want {
				want = remaining
			}
			if want <= 0 {
				break
			}
			data := m.Collect(want)
			now := primitives.MonotonicTicks()
			transitions = append(transitions, now^prev)
			prev = now
			if len(data) > 0 {
				out = append(out, data...)
				progressed = true
			}
			if len(out) >= nBytes {
				break
			}
		}
		if !progressed {
			break
		}
	}

	if len(out) < nBytes {
		extra := primitives.ExtractLSBs(transitions)
		out = append(out, extra...)
	}
	if len(out) > nBytes {
		out = out[:nBytes]
	}
	return out
}
