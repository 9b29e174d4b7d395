package main

import (
	"testing"

	"openentropy/internal/config"
	"openentropy/internal/entropy/conditioning"
)

func TestSourcesFlagParsesCommaSeparatedList(t *testing.T) {
	got := sourcesFlag(" oscillator_jitter, network_rtt ,")
	if len(got) != 2 || !got["oscillator_jitter"] || !got["network_rtt"] {
		t.Fatalf("unexpected parse result: %#v", got)
	}
}

func TestSourcesFlagEmptyMeansAll(t *testing.T) {
	if got := sourcesFlag("   "); got != nil {
		t.Fatalf("expected nil for empty/blank input, got %#v", got)
	}
}

func TestEncodeChunkFormats(t *testing.T) {
	data := []byte{0xde, 0xad}

	hexOut, err := encodeChunk("hex", data)
	if err != nil || hexOut != "dead" {
		t.Fatalf("hex encode = %q, %v", hexOut, err)
	}

	b64Out, err := encodeChunk("base64", data)
	if err != nil || b64Out != "3q0=" {
		t.Fatalf("base64 encode = %q, %v", b64Out, err)
	}

	rawOut, err := encodeChunk("raw", data)
	if err != nil || rawOut != string(data) {
		t.Fatalf("raw encode = %q, %v", rawOut, err)
	}

	if _, err := encodeChunk("nonsense", data); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestStreamModeHonorsUnconditionedFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Conditioning.Default = "sha256"

	if mode := streamMode(true, cfg); mode != conditioning.Raw {
		t.Fatalf("streamMode(unconditioned=true) = %v, want Raw", mode)
	}
	if mode := streamMode(false, cfg); mode != conditioning.Sha256 {
		t.Fatalf("streamMode(unconditioned=false) = %v, want Sha256", mode)
	}
}

func TestFindSourceRejectsUnknownName(t *testing.T) {
	if _, err := findSource("does_not_exist"); err == nil {
		t.Fatal("expected an error for an unknown source name")
	}
}

func TestFindSourceResolvesKnownSource(t *testing.T) {
	src, err := findSource("oscillator_jitter")
	if err != nil {
		t.Fatalf("findSource: %v", err)
	}
	if src.Info().ID != "oscillator_jitter" {
		t.Fatalf("resolved wrong source: %s", src.Info().ID)
	}
}

func TestBuildPoolNoMatchingSourcesIsNoData(t *testing.T) {
	_, err := buildPool(map[string]bool{"this_source_does_not_exist": true})
	if err == nil {
		t.Fatal("expected an error when no sources match the allow list")
	}
	ce, ok := err.(*cliError)
	if !ok {
		t.Fatalf("expected *cliError, got %T", err)
	}
	if ce.code != exitNoData {
		t.Fatalf("exit code = %d, want %d", ce.code, exitNoData)
	}
}
