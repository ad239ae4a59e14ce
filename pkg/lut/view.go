package lut

import "fmt"

// View is a read-only projection of one encoded table. It borrows Data and
// never copies it; the accessors return fresh slices.
type View struct {
	Data    []byte
	Variant Variant
	X       int
	Y       int
}

// NewView wraps data, which must hold at least v.Size(x, y) bytes.
func NewView(data []byte, v Variant, x, y int) View {
	return View{Data: data[:v.Size(x, y)], Variant: v, X: x, Y: y}
}

// ParseView reads the header at the start of data and returns a view of the
// table it declares. maxAxis of zero means MaxAxisLen.
func ParseView(data []byte, v Variant, maxAxis int) (View, error) {
	x, y, ok := v.Header(data, maxAxis)
	if !ok {
		if len(data) < v.HeaderLen() {
			return View{}, fmt.Errorf("%w: need %d header bytes, have %d", ErrTruncated, v.HeaderLen(), len(data))
		}
		return View{}, fmt.Errorf("%w: %s x=%d y=%d", ErrHeader, v, x, y)
	}
	size := v.Size(x, y)
	if size > len(data) {
		return View{}, fmt.Errorf("%w: %dx%d %s table needs %d bytes, have %d", ErrTruncated, x, y, v, size, len(data))
	}
	return NewView(data, v, x, y), nil
}

// Size is the encoded length of the table.
func (t View) Size() int {
	return t.Variant.Size(t.X, t.Y)
}

// XAxis returns the X breakpoints that follow the header.
func (t View) XAxis() []byte {
	start := t.Variant.HeaderLen()
	out := make([]byte, t.X)
	copy(out, t.Data[start:start+t.X])
	return out
}

// YAxis returns the leading marker byte of every row block.
func (t View) YAxis() []byte {
	body := t.body()
	stride := t.X + 1
	out := make([]byte, t.Y)
	for i := range out {
		out[i] = body[i*stride]
	}
	return out
}

// Rows returns the Y rows of X data bytes each.
func (t View) Rows() [][]byte {
	body := t.body()
	stride := t.X + 1
	rows := make([][]byte, t.Y)
	for i := range rows {
		start := i*stride + 1
		row := make([]byte, t.X)
		copy(row, body[start:start+t.X])
		rows[i] = row
	}
	return rows
}

// Validate checks the X-axis and then the Y-axis under policy and returns the
// first failure.
func (t View) Validate(policy Leniency) Outcome {
	if out := policy.Check(AxisX, t.xAxisRaw()); !out.Valid {
		return out
	}
	body := t.body()
	stride := t.X + 1
	return policy.checkStrided(AxisY, body, stride, t.Y)
}

func (t View) xAxisRaw() []byte {
	start := t.Variant.HeaderLen()
	return t.Data[start : start+t.X]
}

func (t View) body() []byte {
	return t.Data[t.Variant.HeaderLen()+t.X:]
}
