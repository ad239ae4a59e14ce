package scanner

import (
	"cmp"
	"slices"

	"github.com/samcharles93/calscan/pkg/lut"
)

// Candidate is an accepted table. Data borrows the scanned buffer.
type Candidate struct {
	Index   int
	Start   int
	Size    int
	X       int
	Y       int
	Variant lut.Variant
	Data    []byte
}

// End is the offset one past the last table byte.
func (c Candidate) End() int {
	return c.Start + c.Size
}

// View projects the candidate's bytes into axes and rows.
func (c Candidate) View() lut.View {
	return lut.NewView(c.Data, c.Variant, c.X, c.Y)
}

// Stats counts how offsets were disposed of during a scan.
type Stats struct {
	Examined    int
	Skipped     int
	Eligible    int
	OutOfBounds int
	Invalid     int
	Accepted    int
}

// ResultSet holds accepted candidates in discovery order.
type ResultSet struct {
	Candidates []Candidate
	Stats      Stats
	Start      int
	Limit      int
}

// Len returns the number of accepted candidates.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Candidates)
}

func (r *ResultSet) add(c Candidate) Candidate {
	c.Index = len(r.Candidates)
	r.Candidates = append(r.Candidates, c)
	r.Stats.Accepted++
	return c
}

// SortedByX returns the candidates stably sorted by ascending x count.
// Candidates with the same x count keep their discovery order. The receiver
// is not modified.
func (r *ResultSet) SortedByX() []Candidate {
	if r == nil {
		return nil
	}
	out := slices.Clone(r.Candidates)
	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(a.X, b.X)
	})
	return out
}
