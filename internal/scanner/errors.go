package scanner

import "errors"

var ErrBadBound = errors.New("invalid offset bound")
