package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/calscan/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// cfg is loaded once by setup before any command runs.
	cfg Config
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default $CALSCAN_CONFIG or the user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func scanTuningFlags(variant, leniency *string, maxAxis *int64) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "variant",
			Usage:       "header variants to match (compact, tagged, both)",
			Value:       "compact",
			Destination: variant,
		},
		&cli.StringFlag{
			Name:        "leniency",
			Usage:       "axis monotonicity policy (leading-zeros, strict)",
			Value:       "leading-zeros",
			Destination: leniency,
		},
		&cli.Int64Flag{
			Name:        "max-axis",
			Usage:       "exclusive upper bound on axis lengths (3-30)",
			Value:       30,
			Destination: maxAxis,
		},
	}
}

// setup loads the config file and installs the logger every command reads
// from its context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loaded, err := LoadConfig(resolveConfigPath(configFile), configFile != "" || os.Getenv(envConfig) != "")
	if err != nil {
		return ctx, cli.Exit("error: "+err.Error(), exitUsage)
	}
	cfg = loaded
	applyLogConfig(cmd, cfg)

	log, err := logger.Setup(stderr(cmd), logLevel, logFormat, debug)
	if err != nil {
		return ctx, cli.Exit("error: "+err.Error(), exitUsage)
	}
	return logger.WithContext(ctx, log), nil
}
