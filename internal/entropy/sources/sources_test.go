package sources

import (
	"testing"

	"openentropy/internal/entropy/source"
)

func TestOscillatorJitterCollectLength(t *testing.T) {
	s := NewOscillatorJitter()
	if !s.IsAvailable() {
		t.Fatal("expected oscillator jitter to always be available")
	}
	out := s.Collect(16)
	if len(out) == 0 {
		t.Fatal("expected non-empty collection")
	}
	if len(out) > 16 {
		t.Fatalf("got %d bytes, want at most 16", len(out))
	}
}

func TestSchedulerJitterAndThreadLifecycleAvailable(t *testing.T) {
	for _, s := range []source.EntropySource{NewSchedulerJitter(), NewThreadLifecycleJitter()} {
		if !s.IsAvailable() {
			t.Fatalf("%s: expected available", s.Info().ID)
		}
		if len(s.Collect(8)) == 0 {
			t.Fatalf("%s: expected non-empty collection", s.Info().ID)
		}
	}
}

func TestSystemCounterDeltasClampsSnapshotCount(t *testing.T) {
	s := NewSystemCounterDeltas(1, 0)
	if s.snapshots != 2 {
		t.Fatalf("snapshots below 2 should clamp to 2, got %d", s.snapshots)
	}
	s = NewSystemCounterDeltas(10, 0)
	if s.snapshots != 4 {
		t.Fatalf("snapshots above 4 should clamp to 4, got %d", s.snapshots)
	}
}

func TestSystemCounterDeltasCollectProducesRequestedLength(t *testing.T) {
	s := NewSystemCounterDeltas(2, 0)
	if !s.IsAvailable() {
		t.Skip("/proc/stat not present on this platform")
	}
	out := s.Collect(12)
	if len(out) != 12 {
		t.Fatalf("got %d bytes, want exactly 12 (fallback chain should pad shortfall)", len(out))
	}
}

func TestFallbackChainExactLength(t *testing.T) {
	out := fallbackChain(20)
	if len(out) != 20 {
		t.Fatalf("got %d bytes, want 20", len(out))
	}
	if fallbackChain(0) != nil {
		t.Fatal("expected nil for n=0")
	}
}

func TestMicroarchSourcesProduceOutput(t *testing.T) {
	sources := []source.EntropySource{
		NewMatrixMultiplyTiming(),
		NewCacheContentionTiming(),
		NewPointerChaseTiming(),
	}
	for _, s := range sources {
		if !s.IsAvailable() {
			t.Fatalf("%s: expected available", s.Info().ID)
		}
		out := s.Collect(8)
		if len(out) == 0 {
			t.Fatalf("%s: expected non-empty collection", s.Info().ID)
		}
	}
}

func TestPointerChaseTimingFormsSingleCycle(t *testing.T) {
	s := NewPointerChaseTiming()
	const n = 1 << 16
	if len(s.next) != n {
		t.Fatalf("table length = %d, want %d", len(s.next), n)
	}
	seen := make(map[int32]bool, n)
	idx := int32(0)
	for i := 0; i < n; i++ {
		if seen[idx] {
			t.Fatalf("cycle revisited index %d before covering the full table", idx)
		}
		seen[idx] = true
		idx = s.next[idx]
	}
	if idx != 0 {
		t.Fatal("expected the pointer chase cycle to return to its start, forming a single cycle")
	}
}

func TestCrossDomainBeatAvailableAndBounded(t *testing.T) {
	s := NewCrossDomainBeat()
	if !s.IsAvailable() {
		t.Fatal("expected cross-domain beat to always be available")
	}
	out := s.Collect(10)
	if len(out) > 10 {
		t.Fatalf("got %d bytes, want at most 10", len(out))
	}
}

func TestNetworkRTTDefaultsEndpointsAndTimeout(t *testing.T) {
	s := NewNetworkRTT(nil, 0)
	if len(s.endpoints) != len(defaultRTTEndpoints) {
		t.Fatalf("expected default endpoint list, got %v", s.endpoints)
	}
	if s.timeout <= 0 {
		t.Fatal("expected a positive default timeout")
	}
}

func TestContentionTimingWorkerFloor(t *testing.T) {
	s := NewContentionTiming(1)
	if s.workers != 4 {
		t.Fatalf("workers below 2 should default to 4, got %d", s.workers)
	}
}

func TestContentionTimingCollectBounded(t *testing.T) {
	s := NewContentionTiming(4)
	out := s.Collect(8)
	if len(out) > 8 {
		t.Fatalf("got %d bytes, want at most 8", len(out))
	}
}

func TestHashAndCompressionWorkloadTimingProduceOutput(t *testing.T) {
	for _, s := range []source.EntropySource{NewHashWorkloadTiming(), NewCompressionWorkloadTiming()} {
		if !s.IsAvailable() {
			t.Fatalf("%s: expected available", s.Info().ID)
		}
		out := s.Collect(8)
		if len(out) == 0 {
			t.Fatalf("%s: expected non-empty collection", s.Info().ID)
		}
	}
}

type fakeMember struct {
	id        string
	available bool
	payload   []byte
}

func (f *fakeMember) Info() source.Info {
	return source.Info{ID: f.id, Category: source.CategorySignal}
}
func (f *fakeMember) IsAvailable() bool { return f.available }
func (f *fakeMember) Collect(n int) []byte {
	if !f.available || n <= 0 {
		return nil
	}
	if n > len(f.payload) {
		n = len(f.payload)
	}
	return f.payload[:n]
}

func TestCompositeRoundRobinsAvailableMembers(t *testing.T) {
	a := &fakeMember{id: "a", available: true, payload: []byte{1, 2, 3, 4}}
	b := &fakeMember{id: "b", available: true, payload: []byte{5, 6, 7, 8}}
	c := &fakeMember{id: "c", available: false, payload: []byte{9, 9, 9, 9}}

	comp := NewComposite([]source.EntropySource{a, b, c}, 2)
	if !comp.IsAvailable() {
		t.Fatal("expected composite available when any member is available")
	}

	out := comp.Collect(6)
	if len(out) != 6 {
		t.Fatalf("got %d bytes, want exactly 6", len(out))
	}
}

func TestCompositeUnavailableWhenAllMembersUnavailable(t *testing.T) {
	comp := NewComposite([]source.EntropySource{&fakeMember{id: "x", available: false}}, 2)
	if comp.IsAvailable() {
		t.Fatal("expected composite unavailable when no member is available")
	}
}

func TestCompositeEmptyMembersCollectsNothing(t *testing.T) {
	comp := NewComposite(nil, 0)
	if comp.Collect(4) != nil {
		t.Fatal("expected nil collection with no members")
	}
}

func TestRDRANDAndRDSEEDUnavailableWithoutFeatureBit(t *testing.T) {
	// On a platform or CPU lacking the feature, IsAvailable must be
	// false and Collect must return nil rather than garbage bytes.
	r := NewRDRANDSource()
	if !r.IsAvailable() {
		if out := r.Collect(8); out != nil {
			t.Fatal("expected nil collection when unavailable")
		}
	}
	s := NewRDSEEDSource()
	if !s.IsAvailable() {
		if out := s.Collect(8); out != nil {
			t.Fatal("expected nil collection when unavailable")
		}
	}
}

func TestTPMRandomUnavailableWithoutDeviceNode(t *testing.T) {
	tpm := NewTPMRandom()
	if tpm.devicePath == "" {
		if tpm.IsAvailable() {
			t.Fatal("expected unavailable when no device path resolved")
		}
		if out := tpm.Collect(8); out != nil {
			t.Fatal("expected nil collection when unavailable")
		}
	}
}

func TestDetectAvailableSourcesDeterministicOrder(t *testing.T) {
	first := DetectAvailableSources()
	second := DetectAvailableSources()
	if len(first) != len(second) {
		t.Fatalf("available source count changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Info().ID != second[i].Info().ID {
			t.Fatalf("order mismatch at index %d: %s vs %s", i, first[i].Info().ID, second[i].Info().ID)
		}
	}
}

func TestDetectAvailableSourcesAppendsCompositeLast(t *testing.T) {
	avail := DetectAvailableSources()
	if len(avail) < 2 {
		t.Skip("fewer than two sources available in this environment, composite not appended")
	}
	last := avail[len(avail)-1]
	if !last.Info().Composite {
		t.Fatal("expected the last detected source to be the composite wrapper")
	}
}

func TestAllSourcesIncludesEveryConstructorRegardlessOfAvailability(t *testing.T) {
	all := AllSources()
	if len(all) != len(constructors) {
		t.Fatalf("AllSources returned %d sources, want %d", len(all), len(constructors))
	}
	seen := make(map[string]bool, len(all))
	for _, s := range all {
		id := s.Info().ID
		if seen[id] {
			t.Fatalf("duplicate source ID %q in AllSources", id)
		}
		seen[id] = true
	}
}
