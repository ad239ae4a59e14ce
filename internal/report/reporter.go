package report

import (
	"fmt"
	"io"

	"github.com/samcharles93/calscan/internal/logger"
	"github.com/samcharles93/calscan/internal/scanner"
)

// Console renders accepted tables for a human: an info record per table
// and, unless Out is nil, its grid.
type Console struct {
	Out io.Writer
	Log logger.Logger
}

// Accepted reports one table as it is discovered.
func (r *Console) Accepted(c scanner.Candidate) error {
	r.Log.Info("valid table",
		"address", fmt.Sprintf("0x%x", c.Start),
		"end", fmt.Sprintf("0x%x", c.End()),
		"length", fmt.Sprintf("0x%x", c.Size),
		"x", fmt.Sprintf("0x%x", c.X),
		"y", fmt.Sprintf("0x%x", c.Y),
		"variant", c.Variant.String(),
		"count", c.Index+1,
	)
	if r.Out == nil {
		return nil
	}
	if err := WriteGrid(r.Out, c.View()); err != nil {
		return err
	}
	_, err := io.WriteString(r.Out, "\n")
	return err
}

// Final re-renders every accepted table ordered by x count and logs the scan
// totals.
func (r *Console) Final(rs *scanner.ResultSet) error {
	for _, c := range rs.SortedByX() {
		r.Log.Info("table", "address", fmt.Sprintf("0x%x", c.Start), "count", c.Index+1)
		if r.Out == nil {
			continue
		}
		if err := WriteGrid(r.Out, c.View()); err != nil {
			return err
		}
	}
	st := rs.Stats
	r.Log.Info("scan complete",
		"tables", st.Accepted,
		"examined", st.Examined,
		"skipped", st.Skipped,
		"eligible", st.Eligible,
		"out_of_bounds", st.OutOfBounds,
		"invalid", st.Invalid,
		"limit", fmt.Sprintf("0x%x", rs.Limit),
	)
	return nil
}
