package audio

import (
	"bytes"
	"testing"
)

func TestWrapParseRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wav := WrapWAV(pcm, DefaultFormat())

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	f, payload, err := ParseWAV(wav)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if f != DefaultFormat() {
		t.Fatalf("format mismatch: %+v", f)
	}
	if !bytes.Equal(payload, pcm) {
		t.Fatalf("payload mismatch: %v", payload)
	}
}

func TestWrapEmptyPayload(t *testing.T) {
	wav := WrapWAV(nil, DefaultFormat())
	if len(wav) != 44 {
		t.Fatalf("expected bare header, got %d bytes", len(wav))
	}
	_, payload, err := ParseWAV(wav)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(payload))
	}
}

func TestStripWAVHeader(t *testing.T) {
	pcm := make([]byte, 100)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	wav := WrapWAV(pcm, DefaultFormat())

	if !HasWAVHeader(wav) {
		t.Fatalf("expected wrapped buffer to carry header")
	}
	stripped := StripWAVHeader(wav)
	if !bytes.Equal(stripped, pcm) {
		t.Fatalf("strip did not recover original payload")
	}

	// non-WAV input passes through untouched
	raw := []byte("not a riff buffer but long enough to exceed the header size .....")
	if HasWAVHeader(raw) {
		t.Fatalf("expected no header on raw bytes")
	}
	if got := StripWAVHeader(raw); !bytes.Equal(got, raw) {
		t.Fatalf("expected raw bytes unchanged")
	}
}

func TestSilencePadSize(t *testing.T) {
	// 300ms at 24kHz mono 16-bit is 14400 bytes
	pad := SilencePad(300, DefaultFormat())
	if len(pad) != 14400 {
		t.Fatalf("expected 14400 bytes of silence, got %d", len(pad))
	}
	for _, b := range pad {
		if b != 0 {
			t.Fatalf("expected zero-amplitude pad")
		}
	}
	if got := SilencePad(0, DefaultFormat()); len(got) != 0 {
		t.Fatalf("expected empty pad for zero duration")
	}
}
