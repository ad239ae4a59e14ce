package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/calscan/internal/api"
	"github.com/samcharles93/calscan/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUpload   int64
		capacity    int64
		variant     string
		leniency    string
		maxAxis     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Int64Flag{
			Name:        "max-upload",
			Usage:       "largest accepted image in bytes, after decompression",
			Value:       64 << 20,
			Destination: &maxUpload,
		},
		&cli.Int64Flag{
			Name:        "store-capacity",
			Usage:       "number of finished scans kept in memory",
			Value:       api.DefaultStoreCapacity,
			Destination: &capacity,
		},
	}
	flags = append(flags, scanTuningFlags(&variant, &leniency, &maxAxis)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the scan HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &maxUpload, &capacity)
			var raw bool
			applyScanConfig(cmd, cfg, &variant, &leniency, &maxAxis, &raw)

			opts, err := scanOptions(variant, leniency, maxAxis)
			if err != nil {
				return err
			}
			if maxUpload <= 0 {
				return usageError("--max-upload must be positive")
			}

			server := api.NewServer(api.NewScanStore(int(capacity)), api.ScanDefaults{
				Variants:   opts.Variants,
				Leniency:   opts.Leniency,
				MaxAxisLen: opts.MaxAxisLen,
				MaxUpload:  int(maxUpload),
			}, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "variants", variant, "leniency", leniency)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
