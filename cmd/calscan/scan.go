package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/calscan/internal/blob"
	"github.com/samcharles93/calscan/internal/logger"
	"github.com/samcharles93/calscan/internal/report"
	"github.com/samcharles93/calscan/internal/scanner"
)

func scanCmd() *cli.Command {
	var (
		maxHex   string
		startHex string
		variant  string
		leniency string
		maxAxis  int64
		format   string
		quiet    bool
		raw      bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "max",
			Usage:       "stop scanning at this absolute offset (0x<VALUE>)",
			Destination: &maxHex,
		},
		&cli.StringFlag{
			Name:        "start",
			Usage:       "first offset to examine (0x<VALUE>)",
			Destination: &startHex,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "result file format (text, json)",
			Value:       "text",
			Destination: &format,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Aliases:     []string{"q"},
			Usage:       "do not print table grids",
			Destination: &quiet,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "treat the input as raw bytes even if it looks compressed",
			Destination: &raw,
		},
	}
	flags = append(flags, scanTuningFlags(&variant, &leniency, &maxAxis)...)

	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan a binary image and write every detected table to a result file",
		ArgsUsage: "<input> <output> [0xMAX]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyScanConfig(cmd, cfg, &variant, &leniency, &maxAxis, &raw)
			applyOutputConfig(cmd, cfg, &format, &quiet)

			if cmd.NArg() < 2 {
				return usageError("scan needs an input and an output path (usage: calscan scan %s)", cmd.ArgsUsage)
			}
			if cmd.NArg() > 3 {
				return usageError("unexpected arguments: %s", strings.Join(cmd.Args().Slice()[3:], " "))
			}
			inputPath := cmd.Args().Get(0)
			outputPath := cmd.Args().Get(1)
			if cmd.NArg() == 3 {
				if maxHex != "" {
					return usageError("give the maximum offset either as an argument or with --max, not both")
				}
				maxHex = cmd.Args().Get(2)
			}

			opts, err := scanOptions(variant, leniency, maxAxis)
			if err != nil {
				return err
			}
			if maxHex != "" {
				if opts.Limit, err = optionalHex("max", maxHex, 0); err != nil {
					return err
				}
				opts.HasLimit = true
			}
			if opts.Start, err = optionalHex("start", startHex, 0); err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "text" && format != "json" {
				return usageError("unknown --format %q (want text or json)", format)
			}

			return runScan(ctx, cmd, scanJob{
				input:  inputPath,
				output: outputPath,
				opts:   opts,
				format: format,
				quiet:  quiet,
				raw:    raw,
			})
		},
	}
}

type scanJob struct {
	input  string
	output string
	opts   scanner.Options
	format string
	quiet  bool
	raw    bool
}

func runScan(ctx context.Context, cmd *cli.Command, job scanJob) (err error) {
	img, err := blob.Open(job.input, blob.Options{Raw: job.raw})
	if err != nil {
		return ioError("read input %q: %v", job.input, err)
	}
	defer func() { _ = img.Close() }()

	out, err := os.Create(job.output)
	if err != nil {
		return ioError("create output %q: %v", job.output, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = ioError("close output %q: %v", job.output, cerr)
		}
	}()

	limit := img.Len()
	if job.opts.HasLimit && job.opts.Limit < limit {
		limit = job.opts.Limit
	}
	id := uuid.NewString()
	log := logger.FromContext(ctx).With("scan_id", id)
	ctx = logger.WithContext(ctx, log)
	if img.SniffErr != nil {
		log.Debug("compression magic ignored, scanning stored bytes",
			"detected", string(img.Sniffed),
			"error", img.SniffErr,
		)
	}
	log.Info("scanning",
		"input", filepath.Base(job.input),
		"bytes", img.Len(),
		"compression", string(img.Compression),
		"start", scanner.FormatHexOffset(job.opts.Start),
		"max", scanner.FormatHexOffset(limit),
	)

	console := &report.Console{Log: log}
	if !job.quiet {
		console.Out = stdout(cmd)
	}

	var lines *report.LineWriter
	if job.format == "text" {
		lines = report.NewLineWriter(out)
	}
	job.opts.OnAccept = func(c scanner.Candidate) error {
		if lines != nil {
			if err := lines.Write(c); err != nil {
				return fmt.Errorf("write output %q: %w", job.output, err)
			}
		}
		return console.Accepted(c)
	}

	sc, err := scanner.New(job.opts)
	if err != nil {
		return usageError("%v", err)
	}
	rs, err := sc.Scan(ctx, img.Data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ioError("scan interrupted: %v", err)
		}
		return ioError("%v", err)
	}

	switch job.format {
	case "json":
		doc := report.NewDocument(report.Meta{
			ScanID:      id,
			Input:       job.input,
			InputSize:   img.Len(),
			Compression: string(img.Compression),
			Variants:    sc.Options().Variants,
			Leniency:    sc.Options().Leniency,
		}, rs)
		if err := report.WriteJSON(out, doc); err != nil {
			return ioError("write output %q: %v", job.output, err)
		}
	default:
		if err := lines.Flush(); err != nil {
			return ioError("write output %q: %v", job.output, err)
		}
		log.Debug("result file written", "path", job.output, "records", lines.Count())
	}

	if err := console.Final(rs); err != nil {
		return ioError("write console: %v", err)
	}
	return nil
}
