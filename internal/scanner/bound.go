package scanner

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHexOffset parses an absolute offset written as 0x<hex>. The prefix is
// required; the digits are case-insensitive.
func ParseHexOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		return 0, fmt.Errorf("%w: %q must be written as 0x<VALUE>", ErrBadBound, s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadBound, s, err)
	}
	if v > uint64(int(^uint(0)>>1)) {
		return 0, fmt.Errorf("%w: %q out of range", ErrBadBound, s)
	}
	return int(v), nil
}

// FormatHexOffset is the inverse of ParseHexOffset.
func FormatHexOffset(v int) string {
	return fmt.Sprintf("0x%x", v)
}
