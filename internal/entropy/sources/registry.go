package sources

import "openentropy/internal/entropy/source"

// constructors lists every known source in a fixed order. Discovery
// always walks this list in the same sequence so the pool's XOR mix
// composition is reproducible modulo timing across runs with the same
// available-source set.
var constructors = []func() source.EntropySource{
	func() source.EntropySource { return NewOscillatorJitter() },
	func() source.EntropySource { return NewSchedulerJitter() },
	func() source.EntropySource { return NewThreadLifecycleJitter() },
	func() source.EntropySource { return NewSystemCounterDeltas(3, 0) },
	func() source.EntropySource { return NewMatrixMultiplyTiming() },
	func() source.EntropySource { return NewCacheContentionTiming() },
	func() source.EntropySource { return NewPointerChaseTiming() },
	func() source.EntropySource { return NewCrossDomainBeat() },
	func() source.EntropySource { return NewNetworkRTT(nil, 0) },
	func() source.EntropySource { return NewAudioADCNoise() },
	func() source.EntropySource { return NewCameraFrameNoise() },
	func() source.EntropySource { return NewHashWorkloadTiming() },
	func() source.EntropySource { return NewCompressionWorkloadTiming() },
	func() source.EntropySource { return NewContentionTiming(4) },
	func() source.EntropySource { return NewRDRANDSource() },
	func() source.EntropySource { return NewRDSEEDSource() },
	func() source.EntropySource { return NewTPMRandom() },
}

// AllSources builds every known source regardless of availability, in
// the fixed constructor order. Used by inspection tooling (scan,
// probe) that needs to report on a source even when its IsAvailable()
// probe fails.
func AllSources() []source.EntropySource {
	all := make([]source.EntropySource, len(constructors))
	for i, ctor := range constructors {
		all[i] = ctor()
	}
	return all
}

// DetectAvailableSources builds every known source and returns those
// whose IsAvailable() probe passes, in the fixed constructor order.
// The composite source is appended last, wrapping whichever standalone
// members were found available, since it has no independent physical
// domain of its own to probe.
func DetectAvailableSources() []source.EntropySource {
	var available []source.EntropySource
	for _, ctor := range constructors {
		s := ctor()
		if s.IsAvailable() {
			available = append(available, s)
		}
	}
	if len(available) > 1 {
		members := make([]source.EntropySource, len(available))
		copy(members, available)
		available = append(available, NewComposite(members, 32))
	}
	return available
}
