package pool

import "testing"

func TestCollectOneUnknownSource(t *testing.T) {
	p := New(nil)
	if err := p.CollectOne("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unregistered source")
	}
}

func TestCollectOneReturnsErrorOnEmptyCollection(t *testing.T) {
	p := New(nil)
	p.AddSource(&fakeSource{id: "silent", available: true}, 1.0)

	if err := p.CollectOne("silent"); err == nil {
		t.Fatal("expected an error when the source yields no bytes")
	}
}

func TestCollectOneSucceedsOnNonEmptyCollection(t *testing.T) {
	p := New(nil)
	p.AddSource(&fakeSource{id: "noisy", available: true, payload: []byte{1, 2, 3, 4}}, 1.0)

	if err := p.CollectOne("noisy"); err != nil {
		t.Fatalf("CollectOne: %v", err)
	}
}
