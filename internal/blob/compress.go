package blob

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies a container the input was wrapped in.
type Compression string

const (
	None Compression = "none"
	Zstd Compression = "zstd"
	Gzip Compression = "gzip"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// DefaultMaxSize caps decompressed images.
const DefaultMaxSize = 1 << 30

// Detect sniffs the leading magic bytes of data.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// Decompress unwraps data according to c. The result never exceeds maxSize
// bytes; maxSize <= 0 means DefaultMaxSize.
func Decompress(data []byte, c Compression, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	switch c {
	case None:
		return data, nil
	case Zstd:
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(uint64(maxSize)),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
				return nil, fmt.Errorf("%w: zstd payload exceeds %d bytes", ErrTooLarge, maxSize)
			}
			return nil, fmt.Errorf("%w: zstd: %v", ErrDecompress, err)
		}
		return out, nil
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrDecompress, err)
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(io.LimitReader(zr, int64(maxSize)+1))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrDecompress, err)
		}
		if len(out) > maxSize {
			return nil, fmt.Errorf("%w: gzip payload exceeds %d bytes", ErrTooLarge, maxSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", ErrDecompress, c)
	}
}
