package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/calscan/internal/scanner"
	"github.com/samcharles93/calscan/pkg/lut"
)

const (
	exitIO    = 1
	exitUsage = 2
)

func usageError(format string, args ...any) error {
	return cli.Exit("error: "+fmt.Sprintf(format, args...), exitUsage)
}

func ioError(format string, args ...any) error {
	return cli.Exit("error: "+fmt.Sprintf(format, args...), exitIO)
}

// scanOptions turns the tuning flags into scanner options.
func scanOptions(variant, leniency string, maxAxis int64) (scanner.Options, error) {
	variants, err := lut.ParseVariants(variant)
	if err != nil {
		return scanner.Options{}, usageError("%v", err)
	}
	policy, err := lut.ParseLeniency(leniency)
	if err != nil {
		return scanner.Options{}, usageError("%v", err)
	}
	if maxAxis < 3 || maxAxis > lut.MaxAxisLen {
		return scanner.Options{}, usageError("--max-axis must be in [3, %d], got %d", lut.MaxAxisLen, maxAxis)
	}
	return scanner.Options{
		Variants:   variants,
		Leniency:   policy,
		MaxAxisLen: int(maxAxis),
	}, nil
}

// optionalHex parses a 0x-prefixed offset; an empty string yields def.
func optionalHex(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := scanner.ParseHexOffset(s)
	if err != nil {
		return 0, usageError("%s: %v", name, err)
	}
	return v, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
