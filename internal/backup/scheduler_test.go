package backup

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCompressZstdRoundTrip(t *testing.T) {
	want := []byte("sqlite snapshot bytes, repeated, repeated, repeated for compressibility")

	compressed, err := compressZstd(want)
	if err != nil {
		t.Fatalf("compressZstd() error = %v", err)
	}
	if len(compressed) == 0 {
		t.Fatal("compressZstd() returned no bytes")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd.NewReader() error = %v", err)
	}
	defer dec.Close()

	got, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		t.Fatalf("decompressing: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}
