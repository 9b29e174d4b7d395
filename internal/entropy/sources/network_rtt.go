package sources

import (
	"net"
	"time"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// defaultRTTEndpoints are well-known, highly available public
// resolvers used only to measure round-trip latency; no payload data
// from them is ever used as output, only the timing of the exchange.
var defaultRTTEndpoints = []string{
	"1.1.1.1:53",
	"8.8.8.8:53",
	"9.9.9.9:53",
}

// NetworkRTT establishes short TCP handshakes against a fixed list of
// public endpoints and extracts entropy from the measured round-trip
// times. Network path latency reflects queueing and routing state far
// outside this host's control.
type NetworkRTT struct {
	endpoints []string
	timeout   time.Duration
}

// NewNetworkRTT creates a source probing endpoints (or the package
// default list) with the given per-attempt timeout.
func NewNetworkRTT(endpoints []string, timeout time.Duration) *NetworkRTT {
	if len(endpoints) == 0 {
		endpoints = defaultRTTEndpoints
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &NetworkRTT{endpoints: endpoints, timeout: timeout}
}

func (s *NetworkRTT) Info() source.Info {
	return source.Info{
		ID:               "network_rtt",
		Description:      "TCP handshake round-trip time against fixed public endpoints",
		PhysicsRationale: "Internet path latency reflects queueing, congestion, and routing state at every hop, none of which this host observes or controls",
		Category:         source.CategoryNetwork,
		Platform:         source.PlatformAny,
		Capabilities:     []source.Capability{source.CapabilityNetwork},
		EntropyRateBPS:   150,
	}
}

func (s *NetworkRTT) IsAvailable() bool {
	conn, err := net.DialTimeout("tcp", s.endpoints[0], s.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *NetworkRTT) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	var lastRTT uint64
	for i := 0; i < count; i++ {
		endpoint := s.endpoints[i%len(s.endpoints)]
		start := time.Now()
		conn, err := net.DialTimeout("tcp", endpoint, s.timeout)
		rtt := uint64(time.Since(start).Nanoseconds())
		if err != nil {
			continue
		}
		conn.Close()

		timings = append(timings, rtt, rtt^lastRTT, rtt^(rtt<<1))
		lastRTT = rtt
	}
	return primitives.ExtractTimingEntropy(timings, nBytes)
}
