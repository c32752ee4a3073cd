package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/plum/internal/blob"
	"golang.org/x/term"
)

const envPlumOutDir = "PLUM_OUT_DIR"

// stdoutIsTTY is a small seam for tests.
var stdoutIsTTY = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// openInput loads the named file, or stdin for "" and "-".
func openInput(path string, limit int64) (*blob.File, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err := blob.ReadLimited(os.Stdin, limit)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &blob.File{Path: "<stdin>", Data: data}, nil
	}
	return blob.Open(filepath.Clean(path))
}

// resolvePackOut picks where packed bytes go. An empty path means stdout.
// Binary output is not written to a terminal; it goes to
// $PLUM_OUT_DIR/<layout>.bin (./out by default) instead.
func resolvePackOut(layout, outFlag string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag == "-" {
		return "", false, nil
	}
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}
	if !stdoutIsTTY() {
		return "", false, nil
	}

	base := strings.Map(func(r rune) rune {
		if r == filepath.Separator || r == '/' {
			return '_'
		}
		return r
	}, layout)
	if base == "" {
		return "", true, fmt.Errorf("invalid layout name: %q", layout)
	}
	outDir := strings.TrimSpace(os.Getenv(envPlumOutDir))
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}
	outPath := filepath.Join(outDir, base+".bin")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}
