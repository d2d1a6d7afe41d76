package compress_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-knowledge/internal/compress"
)

func TestCodecsRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("# Restart the ingest pipeline\n\nDrain the queue, then restart.\n", 64))

	codecs := map[string]compress.Codec{
		"nop":    compress.NewNop(),
		"gzip":   compress.NewGZip(),
		"brotli": compress.NewBrotli(),
	}

	for name, codec := range codecs {
		encoded, err := codec.Encode(payload)
		if err != nil {
			t.Fatalf("%s: Encode returned error: %v", name, err)
		}
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("%s: Decode returned error: %v", name, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("%s: round trip mangled payload, got %d bytes want %d", name, len(decoded), len(payload))
		}
	}
}

func TestCompressingCodecsShrinkRepetitiveInput(t *testing.T) {
	payload := []byte(strings.Repeat("fault scenario trigger process solution verification recovery ", 128))

	for name, codec := range map[string]compress.Codec{
		"gzip":   compress.NewGZip(),
		"brotli": compress.NewBrotli(),
	} {
		encoded, err := codec.Encode(payload)
		if err != nil {
			t.Fatalf("%s: Encode returned error: %v", name, err)
		}
		if len(encoded) >= len(payload) {
			t.Fatalf("%s: expected compression, got %d bytes from %d", name, len(encoded), len(payload))
		}
	}
}

func TestNopLeavesPayloadUntouched(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xff}
	codec := compress.NewNop()

	encoded, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !bytes.Equal(encoded, payload) {
		t.Fatalf("expected identity encode, got %v", encoded)
	}
}

func TestGZipDecodeRejectsGarbage(t *testing.T) {
	if _, err := compress.NewGZip().Decode([]byte("not a gzip stream")); err == nil {
		t.Fatal("expected error decoding garbage input")
	}
}

func TestBrotliDecodeRejectsGarbage(t *testing.T) {
	if _, err := compress.NewBrotli().Decode([]byte{0xde, 0xad, 0xbe, 0xef, 0x00}); err == nil {
		t.Fatal("expected error decoding garbage input")
	}
}

func TestBrotliLevelClamped(t *testing.T) {
	payload := []byte(strings.Repeat("abc", 200))

	for _, level := range []int{-5, 0, 99} {
		codec := compress.NewBrotliLevel(level)
		encoded, err := codec.Encode(payload)
		if err != nil {
			t.Fatalf("level %d: Encode returned error: %v", level, err)
		}
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("level %d: Decode returned error: %v", level, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("level %d: round trip mangled payload", level)
		}
	}
}
