package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestScanCmdListsOscillatorJitter(t *testing.T) {
	cmd := newScanCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)

	_ = cmd.Execute()

	if !strings.Contains(buf.String(), "oscillator_jitter") {
		t.Fatalf("expected scan output to list oscillator_jitter, got: %q", buf.String())
	}
}

func TestProbeCmdRejectsUnknownSource(t *testing.T) {
	cmd := newProbeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"not-a-real-source"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error for an unknown source")
	}
}

func TestProbeCmdReportsOscillatorJitter(t *testing.T) {
	cmd := newProbeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"oscillator_jitter"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("probe oscillator_jitter: %v", err)
	}
	if !strings.Contains(buf.String(), "id:          oscillator_jitter") {
		t.Fatalf("expected probe output to report the source id, got: %q", buf.String())
	}
}
