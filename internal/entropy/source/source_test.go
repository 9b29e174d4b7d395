package source

import "testing"

type fakeSource struct {
	info Info
}

func (f fakeSource) Info() Info          { return f.info }
func (f fakeSource) IsAvailable() bool   { return true }
func (f fakeSource) Collect(n int) []byte { return nil }

func TestBufferDropsOldestOnOverflow(t *testing.T) {
	buf := NewBuffer(4)
	buf.Append([]byte{1, 2, 3})
	buf.Append([]byte{4, 5})
	if buf.Len() != 4 {
		t.Fatalf("expected len 4, got %d", buf.Len())
	}
	want := []byte{2, 3, 4, 5}
	got := buf.Bytes()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBufferOversizedAppendTruncatesToTail(t *testing.T) {
	buf := NewBuffer(3)
	buf.Append([]byte{1, 2, 3, 4, 5})
	want := []byte{3, 4, 5}
	got := buf.Bytes()
	if len(got) != 3 {
		t.Fatalf("expected len 3, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStateHealthyInitially(t *testing.T) {
	s := NewState(fakeSource{info: Info{ID: "fake"}}, 1.0)
	if !s.Healthy {
		t.Fatalf("expected initially healthy")
	}
	if s.TotalBytes != 0 || s.TotalFailures != 0 {
		t.Fatalf("expected zero counters")
	}
}

func TestStateBecomesUnhealthyAfterThreeEmpties(t *testing.T) {
	s := NewState(fakeSource{info: Info{ID: "fake"}}, 1.0)
	s.RecordCollection(nil, 0)
	if !s.Healthy {
		t.Fatalf("should stay healthy after 1 empty")
	}
	s.RecordCollection(nil, 0)
	if !s.Healthy {
		t.Fatalf("should stay healthy after 2 empties")
	}
	s.RecordCollection(nil, 0)
	if s.Healthy {
		t.Fatalf("should be unhealthy after 3 consecutive empties")
	}
}

func TestStateRecoversOnNonEmpty(t *testing.T) {
	s := NewState(fakeSource{info: Info{ID: "fake"}}, 1.0)
	for i := 0; i < 3; i++ {
		s.RecordCollection(nil, 0)
	}
	if s.Healthy {
		t.Fatalf("expected unhealthy after 3 empties")
	}
	s.RecordCollection([]byte{1, 2, 3}, 0)
	if !s.Healthy {
		t.Fatalf("expected healthy after non-empty collection")
	}
	if s.TotalBytes != 3 {
		t.Fatalf("expected 3 total bytes, got %d", s.TotalBytes)
	}
}

func TestStateCountersMonotonic(t *testing.T) {
	s := NewState(fakeSource{info: Info{ID: "fake"}}, 1.0)
	s.RecordCollection([]byte{1, 2}, 0)
	s.RecordCollection(nil, 0)
	s.RecordCollection([]byte{3}, 0)
	if s.TotalBytes != 3 {
		t.Fatalf("expected 3 bytes, got %d", s.TotalBytes)
	}
	if s.TotalFailures != 1 {
		t.Fatalf("expected 1 failure, got %d", s.TotalFailures)
	}
}

func TestSnapshotIndependentOfLiveState(t *testing.T) {
	s := NewState(fakeSource{info: Info{ID: "fake"}}, 1.0)
	s.RecordCollection([]byte{1, 2, 3}, 42)
	snap := s.Snapshot()
	if snap.ID != "fake" || snap.TotalBytes != 3 || snap.LastCollectNanos != 42 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	s.RecordCollection([]byte{4}, 1)
	if snap.TotalBytes != 3 {
		t.Fatalf("snapshot should not mutate after later collections")
	}
}
