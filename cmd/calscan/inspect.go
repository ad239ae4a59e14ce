package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/calscan/internal/blob"
	"github.com/samcharles93/calscan/internal/report"
	"github.com/samcharles93/calscan/pkg/lut"
)

func inspectCmd() *cli.Command {
	var (
		offsetHex string
		variant   string
		leniency  string
		maxAxis   int64
		raw       bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "offset",
			Aliases:     []string{"o"},
			Usage:       "table start offset (0x<VALUE>)",
			Destination: &offsetHex,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "treat the input as raw bytes even if it looks compressed",
			Destination: &raw,
		},
	}
	flags = append(flags, scanTuningFlags(&variant, &leniency, &maxAxis)...)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode the table at one offset and report whether it would be accepted",
		ArgsUsage: "<input>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyScanConfig(cmd, cfg, &variant, &leniency, &maxAxis, &raw)

			if cmd.NArg() != 1 {
				return usageError("inspect needs exactly one input path")
			}
			inputPath := cmd.Args().Get(0)
			opts, err := scanOptions(variant, leniency, maxAxis)
			if err != nil {
				return err
			}
			offset, err := optionalHex("offset", offsetHex, 0)
			if err != nil {
				return err
			}

			img, err := blob.Open(inputPath, blob.Options{Raw: raw})
			if err != nil {
				return ioError("read input %q: %v", inputPath, err)
			}
			defer func() { _ = img.Close() }()
			if offset >= img.Len() {
				return usageError("offset 0x%x is past the end of %s (0x%x bytes)", offset, filepath.Base(inputPath), img.Len())
			}

			w := stdout(cmd)
			fmt.Fprintf(w, "Inspect: %s @ 0x%x\n", inputPath, offset)
			accepted := false
			for _, v := range opts.Variants {
				if inspectVariant(w, img.Data[offset:], v, opts.Leniency, opts.MaxAxisLen) {
					accepted = true
				}
			}
			if !accepted {
				return cli.Exit("", 3)
			}
			return nil
		},
	}
}

// inspectVariant prints one variant's reading of data and reports whether
// the scanner would accept it.
func inspectVariant(w io.Writer, data []byte, v lut.Variant, policy lut.Leniency, maxAxis int) bool {
	section(w, fmt.Sprintf("%s header", v))
	n := min(len(data), v.HeaderLen())
	row(w, "header", hex.EncodeToString(data[:n]))

	view, err := lut.ParseView(data, v, maxAxis)
	if err != nil {
		row(w, "verdict", "rejected: "+err.Error())
		return false
	}
	row(w, "x", fmt.Sprintf("%d", view.X))
	row(w, "y", fmt.Sprintf("%d", view.Y))
	row(w, "size", fmt.Sprintf("0x%x", view.Size()))
	row(w, "x_axis", hex.EncodeToString(view.XAxis()))
	row(w, "y_axis", hex.EncodeToString(view.YAxis()))

	out := view.Validate(policy)
	if out.Valid {
		row(w, "verdict", "valid ("+policy.String()+")")
	} else {
		row(w, "verdict", "rejected: "+out.Reason())
	}
	_, _ = io.WriteString(w, report.Grid(view))
	return out.Valid
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%-12s %s\n", label+":", value)
}
