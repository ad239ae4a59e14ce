package lut

import (
	"fmt"
	"strings"
)

// AxisKind names the axis an Outcome refers to.
type AxisKind uint8

const (
	AxisNone AxisKind = iota
	AxisX
	AxisY
)

func (k AxisKind) String() string {
	switch k {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "-"
	}
}

// Outcome is the result of checking one axis or a whole table. When Valid is
// false, Axis and Position identify the first offending value and Prev/Value
// hold the pair that broke monotonicity.
type Outcome struct {
	Valid    bool
	Axis     AxisKind
	Position int
	Prev     byte
	Value    byte
}

// Reason describes an invalid outcome for diagnostics.
func (o Outcome) Reason() string {
	if o.Valid {
		return "valid"
	}
	return fmt.Sprintf("%s axis not increasing at %d (0x%x after 0x%x)", o.Axis, o.Position, o.Value, o.Prev)
}

// Leniency is the monotonicity policy applied to both axes.
type Leniency uint8

const (
	// LeadingZeros requires strictly increasing values but accepts a run of
	// zeros before the first non-zero value.
	LeadingZeros Leniency = iota
	// Strict requires every value after the first to exceed its predecessor.
	Strict
)

func (l Leniency) String() string {
	switch l {
	case LeadingZeros:
		return "leading-zeros"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("leniency(%d)", uint8(l))
	}
}

// ParseLeniency accepts the names printed by Leniency.String.
func ParseLeniency(s string) (Leniency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "leading-zeros", "leading_zeros", "lenient":
		return LeadingZeros, nil
	case "strict":
		return Strict, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrLeniency, s)
	}
}

// Check reports whether axis is acceptably monotonic. Empty and single-value
// axes are always valid.
func (l Leniency) Check(kind AxisKind, axis []byte) Outcome {
	return l.checkStrided(kind, axis, 1, len(axis))
}

// checkStrided walks n values of data spaced stride bytes apart.
func (l Leniency) checkStrided(kind AxisKind, data []byte, stride, n int) Outcome {
	if n < 2 {
		return Outcome{Valid: true}
	}
	prev := data[0]
	seenNonZero := prev != 0
	for i := 1; i < n; i++ {
		val := data[i*stride]
		switch {
		case val > prev:
		case l == LeadingZeros && val == 0 && !seenNonZero:
		default:
			return Outcome{Axis: kind, Position: i, Prev: prev, Value: val}
		}
		if val != 0 {
			seenNonZero = true
		}
		prev = val
	}
	return Outcome{Valid: true}
}
