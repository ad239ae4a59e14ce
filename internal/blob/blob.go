package blob

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Options controls how an input image is loaded.
type Options struct {
	// Raw disables compression sniffing.
	Raw bool
	// MaxSize caps the decompressed size (0 = DefaultMaxSize).
	MaxSize int
}

// Image is an input buffer held in memory for the duration of a scan.
type Image struct {
	Path        string
	Data        []byte
	Compression Compression
	// StoredSize is the size of the file or payload before decompression.
	StoredSize int
	// Sniffed and SniffErr are set when the data carried compression magic
	// bytes but did not decode. Data then holds the stored bytes unchanged.
	Sniffed  Compression
	SniffErr error

	mapped []byte
}

// Open loads the file at path read-only. Uncompressed files are mapped when
// mmap is available and read with ReadAt otherwise. An empty file yields an
// empty image. The image must be closed to release the mapping.
func Open(path string, opts Options) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 == 0 {
		return &Image{Path: path, Data: []byte{}, Compression: None}, nil
	}
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, size64)
	}
	size := int(size64)

	var (
		data   []byte
		mapped []byte
	)
	if m, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED); err == nil {
		data, mapped = m, m
	} else if data, err = readAllAt(f, size); err != nil {
		return nil, err
	}

	img, err := fromData(path, data, opts)
	if err != nil {
		if mapped != nil {
			_ = unix.Munmap(mapped)
		}
		return nil, err
	}
	if img.Compression == None {
		img.mapped = mapped
	} else if mapped != nil {
		// The decompressed copy is all the scan needs.
		if err := unix.Munmap(mapped); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// Load reads an image from r, as used for uploaded payloads.
func Load(r io.Reader, name string, opts Options) (*Image, error) {
	limit := opts.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	return fromData(name, data, opts)
}

// fromData decompresses data when it starts with a known magic number. Data
// that only looks compressed is kept as is; a payload over the size cap is an
// error.
func fromData(name string, data []byte, opts Options) (*Image, error) {
	img := &Image{Path: name, Data: data, StoredSize: len(data), Compression: None}
	if opts.Raw {
		return img, nil
	}
	c := Detect(data)
	if c == None {
		return img, nil
	}
	out, err := Decompress(data, c, opts.MaxSize)
	switch {
	case err == nil:
		img.Data = out
		img.Compression = c
	case errors.Is(err, ErrTooLarge):
		return nil, fmt.Errorf("%s: %w", name, err)
	default:
		img.Sniffed = c
		img.SniffErr = err
	}
	return img, nil
}

// Len is the scannable size in bytes.
func (i *Image) Len() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

// Close releases the mapping, if any. Data must not be used afterwards.
func (i *Image) Close() error {
	if i == nil {
		return nil
	}
	var err error
	if i.mapped != nil {
		err = unix.Munmap(i.mapped)
	}
	i.mapped = nil
	i.Data = nil
	return err
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
