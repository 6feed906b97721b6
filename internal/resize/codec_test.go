package resize

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestDecodeBlobRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 3, 4, 255, 4096} {
		raw := make([]byte, n)
		rng.Read(raw)

		decoded, err := DecodeBlob(EncodeBlob(raw))
		if err != nil {
			t.Fatalf("decode of encoded %d bytes returned error: %v", n, err)
		}
		if !bytes.Equal(decoded, raw) {
			t.Fatalf("round trip of %d bytes did not reproduce input", n)
		}
	}
}

func TestDecodeBlobStripsWhitespace(t *testing.T) {
	decoded, err := DecodeBlob("  SGVsbG8s\r\nIFdvcmxk\nIQ==\t")
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if string(decoded) != "Hello, World!" {
		t.Fatalf("expected %q, got %q", "Hello, World!", string(decoded))
	}
}

func TestDecodeBlobEmptyAfterStripping(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\r\t \n"} {
		decoded, err := DecodeBlob(in)
		if err != nil {
			t.Fatalf("decode of %q returned error: %v", in, err)
		}
		if len(decoded) != 0 {
			t.Fatalf("expected empty result for %q, got %d bytes", in, len(decoded))
		}
	}
}

func TestDecodeBlobRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{
		"not-valid-base64!@#$",
		"AAAA=BBBB",
		"AB",
	} {
		_, err := DecodeBlob(in)
		if !errors.Is(err, ErrMalformedBase64) {
			t.Fatalf("expected ErrMalformedBase64 for %q, got %v", in, err)
		}
	}
}

func TestEncodeBlobEmptyInput(t *testing.T) {
	if got := EncodeBlob(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
