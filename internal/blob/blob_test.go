package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func testPayload() []byte {
	out := make([]byte, 4096)
	for i := range out {
		out[i] = byte(i * 7)
	}
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll(data, nil)
}

func TestOpenRaw(t *testing.T) {
	t.Parallel()

	want := testPayload()
	img, err := Open(writeFile(t, "fw.bin", want), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := img.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()
	if img.Compression != None {
		t.Fatalf("compression: got %s", img.Compression)
	}
	if !bytes.Equal(img.Data, want) || img.Len() != len(want) || img.StoredSize != len(want) {
		t.Fatalf("data mismatch: len=%d stored=%d", img.Len(), img.StoredSize)
	}
}

func TestOpenCompressed(t *testing.T) {
	t.Parallel()

	want := testPayload()
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{"fw.bin.gz", gzipBytes(t, want), Gzip},
		{"fw.bin.zst", zstdBytes(t, want), Zstd},
	}
	for _, tc := range tests {
		img, err := Open(writeFile(t, tc.name, tc.data), Options{})
		if err != nil {
			t.Fatalf("%s: open: %v", tc.name, err)
		}
		if img.Compression != tc.want {
			t.Errorf("%s: compression %s want %s", tc.name, img.Compression, tc.want)
		}
		if !bytes.Equal(img.Data, want) {
			t.Errorf("%s: decompressed data mismatch", tc.name)
		}
		if img.StoredSize != len(tc.data) {
			t.Errorf("%s: stored size %d want %d", tc.name, img.StoredSize, len(tc.data))
		}
		if err := img.Close(); err != nil {
			t.Errorf("%s: close: %v", tc.name, err)
		}
	}
}

func TestOpenRawSkipsSniffing(t *testing.T) {
	t.Parallel()

	packed := gzipBytes(t, testPayload())
	img, err := Open(writeFile(t, "fw.gz", packed), Options{Raw: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = img.Close() }()
	if img.Compression != None || !bytes.Equal(img.Data, packed) {
		t.Fatal("raw open should return the stored bytes")
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v", err)
	}
	big := gzipBytes(t, testPayload())
	if _, err := Open(writeFile(t, "big.gz", big), Options{MaxSize: 100}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized gzip: got %v", err)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	t.Parallel()

	img, err := Open(writeFile(t, "empty.bin", nil), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if img.Len() != 0 || img.Compression != None {
		t.Fatalf("empty image: len=%d compression=%s", img.Len(), img.Compression)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenKeepsDataWithFalseMagic(t *testing.T) {
	t.Parallel()

	packed := zstdBytes(t, testPayload())
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		// gzip magic followed by an unknown method byte, then a 3x2 table.
		{"fw.bin", []byte{0x1f, 0x8b, 0x03, 0x02, 0x01, 0x05, 0x09, 0x00, 0xaa, 0xbb, 0x02, 0xcc, 0xdd, 0xee, 0xef}, Gzip},
		{"broken.zst", packed[:len(packed)/2], Zstd},
	}
	for _, tc := range tests {
		img, err := Open(writeFile(t, tc.name, tc.data), Options{})
		if err != nil {
			t.Fatalf("%s: open: %v", tc.name, err)
		}
		if img.Compression != None || !bytes.Equal(img.Data, tc.data) {
			t.Errorf("%s: expected stored bytes, got compression=%s len=%d", tc.name, img.Compression, img.Len())
		}
		if img.Sniffed != tc.want || !errors.Is(img.SniffErr, ErrDecompress) {
			t.Errorf("%s: sniffed=%s err=%v", tc.name, img.Sniffed, img.SniffErr)
		}
		if err := img.Close(); err != nil {
			t.Errorf("%s: close: %v", tc.name, err)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	want := testPayload()
	img, err := Load(bytes.NewReader(gzipBytes(t, want)), "upload", Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if img.Compression != Gzip || !bytes.Equal(img.Data, want) {
		t.Fatalf("load: compression=%s len=%d", img.Compression, img.Len())
	}
	if err := img.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Load(bytes.NewReader(want), "upload", Options{MaxSize: 10}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized upload: got %v", err)
	}
	if _, err := Load(bytes.NewReader(nil), "upload", Options{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty upload: got %v", err)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	if Detect([]byte{0x28, 0xb5, 0x2f, 0xfd, 0}) != Zstd {
		t.Error("zstd magic not detected")
	}
	if Detect([]byte{0x1f, 0x8b, 8}) != Gzip {
		t.Error("gzip magic not detected")
	}
	if Detect([]byte{0x03, 0x02}) != None {
		t.Error("plain data detected as compressed")
	}
}
