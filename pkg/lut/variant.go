package lut

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// MaxAxisLen is the exclusive upper bound on either axis length.
	MaxAxisLen = 30
)

// Variant selects the header shape of an encoded table.
type Variant uint8

const (
	// Compact tables start with two bytes: x count, y count.
	Compact Variant = iota
	// Tagged tables start with a zero marker byte followed by x count, y count.
	Tagged
)

// Variants lists every known variant in scan priority order.
var Variants = []Variant{Compact, Tagged}

func (v Variant) String() string {
	switch v {
	case Compact:
		return "compact"
	case Tagged:
		return "tagged"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// HeaderLen is the number of bytes preceding the X-axis.
func (v Variant) HeaderLen() int {
	if v == Tagged {
		return 3
	}
	return 2
}

// MinAxisLen is the inclusive lower bound on either axis length.
func (v Variant) MinAxisLen() int {
	if v == Tagged {
		return 3
	}
	return 2
}

func (v Variant) countOffset() int {
	return v.HeaderLen() - 2
}

// Size returns the total encoded length of an x by y table:
// header, X-axis, one Y marker per row, and the row payloads.
func (v Variant) Size(x, y int) int {
	return v.HeaderLen() + x + y + x*y
}

// Header reads the axis counts at the start of data. ok is false when data is
// too short, the tagged marker is non-zero, or a count is outside
// [MinAxisLen, maxAxis). A maxAxis of zero means MaxAxisLen.
func (v Variant) Header(data []byte, maxAxis int) (x, y int, ok bool) {
	if len(data) < v.HeaderLen() {
		return 0, 0, false
	}
	if v == Tagged && data[0] != 0 {
		return 0, 0, false
	}
	if maxAxis <= 0 {
		maxAxis = MaxAxisLen
	}
	off := v.countOffset()
	x = int(data[off])
	y = int(data[off+1])
	minLen := v.MinAxisLen()
	if x < minLen || x >= maxAxis || y < minLen || y >= maxAxis {
		return x, y, false
	}
	return x, y, true
}

// ParseVariant accepts the names printed by Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact", "c", "":
		return Compact, nil
	case "tagged", "t":
		return Tagged, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrVariant, s)
	}
}

// ParseVariants accepts a single variant name, a comma separated list, or
// "both"/"all" for every variant.
func ParseVariants(s string) ([]Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "both" || s == "all" {
		return append([]Variant(nil), Variants...), nil
	}
	var out []Variant
	for part := range strings.SplitSeq(s, ",") {
		v, err := ParseVariant(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}
