package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil || cfg != (Config{}) {
		t.Fatalf("missing file: got %+v, %v", cfg, err)
	}

	path := filepath.Join(dir, "config.yaml")
	body := "log_level: debug\nformat: json\nstrict: true\nserver_address: 0.0.0.0:9000\nmax_body_bytes: 1024\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Format != "json" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Strict == nil || !*cfg.Strict || cfg.MaxBodyBytes == nil || *cfg.MaxBodyBytes != 1024 {
		t.Fatalf("pointer fields: %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("log_level: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed config should fail")
	}
}

func TestApplyServeConfigRespectsFlags(t *testing.T) {
	limit := int64(4096)
	cfg := Config{ServerAddress: "0.0.0.0:9000", MaxBodyBytes: &limit}

	var (
		addr       string
		maxBody    int64
		storeLimit int64
	)
	cmd := &cli.Command{
		Name: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8080", Destination: &addr},
			&cli.Int64Flag{Name: "max-body", Value: 1, Destination: &maxBody},
			&cli.Int64Flag{Name: "store-limit", Value: 7, Destination: &storeLimit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			applyServeConfig(c, cfg, &addr, &maxBody, &storeLimit)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"serve", "--addr", "localhost:1"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if addr != "localhost:1" {
		t.Fatalf("explicit flag should win: got %q", addr)
	}
	if maxBody != 4096 || storeLimit != 7 {
		t.Fatalf("config defaults: max-body=%d store-limit=%d", maxBody, storeLimit)
	}
}
