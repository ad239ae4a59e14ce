package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/samcharles93/calscan/internal/scanner"
)

// Line formats the result-file record for one candidate.
func Line(c scanner.Candidate) string {
	return fmt.Sprintf("Valid Table! 0x%x 0x%x 0x%x 0x%x 0x%x\n", c.Start, c.End(), c.Size, c.X, c.Y)
}

// LineWriter appends result-file records as candidates are accepted.
type LineWriter struct {
	w *bufio.Writer
	n int
}

func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

func (lw *LineWriter) Write(c scanner.Candidate) error {
	if _, err := lw.w.WriteString(Line(c)); err != nil {
		return err
	}
	lw.n++
	return nil
}

// Count is the number of records written.
func (lw *LineWriter) Count() int {
	return lw.n
}

func (lw *LineWriter) Flush() error {
	return lw.w.Flush()
}

// WriteLines writes one record per candidate in the given order.
func WriteLines(w io.Writer, cs []scanner.Candidate) error {
	lw := NewLineWriter(w)
	for _, c := range cs {
		if err := lw.Write(c); err != nil {
			return err
		}
	}
	return lw.Flush()
}
