package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samcharles93/plum/internal/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "plum",
		Usage: "Pack, unpack and inspect binary layouts",
		Flags: append(loggingFlags(), configFlag()),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				return ctx, err
			}
			loaded = cfg
			applyLoggingConfig(cmd, cfg)
			if debug {
				logLevel = "debug"
			}
			log, err := logger.Setup(os.Stderr, logger.Options{Format: logFormat, Level: logLevel})
			if err != nil {
				return ctx, err
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			layoutsCmd(),
			unpackCmd(),
			packCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}
