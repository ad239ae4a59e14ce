package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/calscan/pkg/lut"
)

// Grid renders a table view as a bordered grid: the first row holds the
// X-axis, the first column the Y-axis, and the interior the row data, all in
// decimal.
func Grid(v lut.View) string {
	cells := make([][]string, 0, v.Y+1)

	head := make([]string, 0, v.X+1)
	head = append(head, "")
	for _, b := range v.XAxis() {
		head = append(head, strconv.Itoa(int(b)))
	}
	cells = append(cells, head)

	yAxis := v.YAxis()
	for i, row := range v.Rows() {
		line := make([]string, 0, v.X+1)
		line = append(line, strconv.Itoa(int(yAxis[i])))
		for _, b := range row {
			line = append(line, strconv.Itoa(int(b)))
		}
		cells = append(cells, line)
	}

	widths := make([]int, v.X+1)
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], len(c))
		}
	}

	var sep strings.Builder
	sep.WriteByte('+')
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteByte('+')
	}
	sep.WriteByte('\n')
	rule := sep.String()

	var b strings.Builder
	b.WriteString(rule)
	for _, line := range cells {
		b.WriteByte('|')
		for i, c := range line {
			b.WriteByte(' ')
			b.WriteString(c)
			b.WriteString(strings.Repeat(" ", widths[i]-len(c)+1))
			b.WriteByte('|')
		}
		b.WriteByte('\n')
		b.WriteString(rule)
	}
	return b.String()
}

// WriteGrid writes Grid(v) to w.
func WriteGrid(w io.Writer, v lut.View) error {
	_, err := io.WriteString(w, Grid(v))
	return err
}
