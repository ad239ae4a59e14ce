package blob

import "errors"

var (
	ErrEmpty      = errors.New("input is empty")
	ErrTooLarge   = errors.New("input too large")
	ErrDecompress = errors.New("decompress input")
)
