package pool

import "testing"

func TestDeriveSeedDeterministic(t *testing.T) {
	seed := []byte("fixed-seed")
	osEntropy := []byte{0xAA, 0xBB, 0xCC}
	a := deriveSeed(seed, osEntropy, 1234)
	b := deriveSeed(seed, osEntropy, 1234)
	if len(a) != 32 {
		t.Fatalf("got %d bytes, want 32", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("deriveSeed is not deterministic for identical inputs")
		}
	}
}

func TestDeriveSeedVariesWithTimestamp(t *testing.T) {
	seed := []byte("fixed-seed")
	osEntropy := []byte{0xAA, 0xBB, 0xCC}
	a := deriveSeed(seed, osEntropy, 1)
	b := deriveSeed(seed, osEntropy, 2)
	equal := true
	for i := range a {
		if a[i] != b[i] {
			equal = false
			break
		}
	}
	if equal {
		t.Fatal("deriveSeed should vary with the timestamp info parameter")
	}
}
