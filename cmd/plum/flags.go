package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	layoutName string
	offset     int64
	strict     bool
	format     string
	maxInput   int64
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml",
		Value:       configPath(),
		Sources:     cli.EnvVars("PLUM_CONFIG"),
		Destination: &configFile,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("PLUM_LOG_LEVEL"),
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Sources:     cli.EnvVars("PLUM_LOG_FORMAT"),
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "shorthand for --log-level=debug",
			Destination: &debug,
		},
	}
}

func layoutFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "layout",
		Aliases:     []string{"l"},
		Usage:       "layout name (see `plum layouts`)",
		Required:    true,
		Destination: &layoutName,
	}
}

func inputLimitFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "max-input",
		Usage:       "refuse stdin input larger than this many bytes (0 for no limit)",
		Value:       64 << 20,
		Destination: &maxInput,
	}
}
