package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the optional plum configuration file
// (~/.config/plum/config.yaml). Values only apply when the matching flag
// was not set on the command line.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Output format for unpack: table, json or value.
	Format string `yaml:"format"`
	Strict *bool  `yaml:"strict"`

	ServerAddress string `yaml:"server_address"`
	MaxBodyBytes  *int64 `yaml:"max_body_bytes"`
	StoreLimit    *int64 `yaml:"store_limit"`
}

// loaded is the config read by the root Before hook.
var loaded Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "plum", "config.yaml")
}

// LoadConfig reads path. A missing file yields a zero Config; a file that
// exists but does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyUnpackConfig(c *cli.Command, cfg Config) {
	if cfg.Format != "" && !c.IsSet("format") {
		format = cfg.Format
	}
	if cfg.Strict != nil && !c.IsSet("strict") {
		strict = *cfg.Strict
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBody, storeLimit *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxBodyBytes
	}
	if cfg.StoreLimit != nil && !c.IsSet("store-limit") {
		*storeLimit = *cfg.StoreLimit
	}
}
