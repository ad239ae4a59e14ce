package lut

import "errors"

var (
	ErrHeader    = errors.New("invalid table header")
	ErrTruncated = errors.New("table extends past end of data")
	ErrVariant   = errors.New("unknown table variant")
	ErrLeniency  = errors.New("unknown leniency policy")
)
