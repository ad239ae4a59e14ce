package report

import (
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/calscan/internal/scanner"
	"github.com/samcharles93/calscan/pkg/lut"
)

// Meta describes the scan that produced a Document.
type Meta struct {
	ScanID      string
	Input       string
	InputSize   int
	Compression string
	Variants    []lut.Variant
	Leniency    lut.Leniency
}

// Document is the JSON form of a scan result.
type Document struct {
	ScanID      string   `json:"scan_id"`
	Input       string   `json:"input,omitempty"`
	InputSize   int      `json:"input_size"`
	Compression string   `json:"compression,omitempty"`
	Start       int      `json:"start"`
	Limit       int      `json:"limit"`
	Variants    []string `json:"variants"`
	Leniency    string   `json:"leniency"`
	Stats       Stats    `json:"stats"`
	Tables      []Table  `json:"tables"`
}

type Stats struct {
	Examined    int `json:"examined"`
	Skipped     int `json:"skipped"`
	Eligible    int `json:"eligible"`
	OutOfBounds int `json:"out_of_bounds"`
	Invalid     int `json:"invalid"`
	Accepted    int `json:"accepted"`
}

// Table is one accepted candidate. Axis and row values are plain integers so
// the document stays readable; byte slices would encode as base64.
type Table struct {
	Index   int     `json:"index"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Size    int     `json:"size"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Variant string  `json:"variant"`
	Line    string  `json:"line"`
	XAxis   []int   `json:"x_axis"`
	YAxis   []int   `json:"y_axis"`
	Rows    [][]int `json:"rows"`
}

// NewDocument converts rs in discovery order.
func NewDocument(meta Meta, rs *scanner.ResultSet) Document {
	doc := Document{
		ScanID:      meta.ScanID,
		Input:       meta.Input,
		InputSize:   meta.InputSize,
		Compression: meta.Compression,
		Leniency:    meta.Leniency.String(),
		Variants:    make([]string, 0, len(meta.Variants)),
		Tables:      []Table{},
	}
	for _, v := range meta.Variants {
		doc.Variants = append(doc.Variants, v.String())
	}
	if rs == nil {
		return doc
	}
	doc.Start = rs.Start
	doc.Limit = rs.Limit
	doc.Stats = Stats(rs.Stats)
	for _, c := range rs.Candidates {
		doc.Tables = append(doc.Tables, NewTable(c))
	}
	return doc
}

func NewTable(c scanner.Candidate) Table {
	v := c.View()
	rows := v.Rows()
	t := Table{
		Index:   c.Index,
		Start:   c.Start,
		End:     c.End(),
		Size:    c.Size,
		X:       c.X,
		Y:       c.Y,
		Variant: c.Variant.String(),
		Line:    strings.TrimSuffix(Line(c), "\n"),
		XAxis:   ints(v.XAxis()),
		YAxis:   ints(v.YAxis()),
		Rows:    make([][]int, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = ints(r)
	}
	return t
}

// WriteJSON writes doc as indented JSON followed by a newline.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// MarshalJSON encodes doc compactly.
func MarshalJSON(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

func ints(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
