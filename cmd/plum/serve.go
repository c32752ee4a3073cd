package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/samcharles93/plum/internal/api"
	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/internal/logger"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
		storeLimit  int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the layout catalog over HTTP",
		Flags: []cli.Flag{
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
				Name:        "max-body",
				Usage:       "largest accepted request body in bytes",
				Value:       api.DefaultMaxBodyBytes,
				Destination: &maxBody,
			},
			&cli.Int64Flag{
				Name:        "store-limit",
				Usage:       "number of inspections kept in memory",
				Value:       256,
				Destination: &storeLimit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, loaded, &addr, &maxBody, &storeLimit)
			log := logger.FromContext(ctx)

			server := api.NewServer(catalog.Builtin(), api.NewInspectionStore(int(storeLimit)), api.Options{
				MaxBodyBytes: maxBody,
				Logger:       log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
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
