package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/internal/logger"
	"github.com/samcharles93/plum/pkg/plum"
	"github.com/urfave/cli/v3"
)

func packCmd() *cli.Command {
	var (
		inPath  string
		inline  string
		outPath string
		showDmp bool
	)
	return &cli.Command{
		Name:  "pack",
		Usage: "Pack a JSON value with a layout",
		Flags: []cli.Flag{
			layoutFlag(),
			inputLimitFlag(),
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "JSON file with the value (- for stdin)",
				Destination: &inPath,
			},
			&cli.StringFlag{
				Name:        "value",
				Usage:       "inline JSON value",
				Destination: &inline,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file (- for stdout)",
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "dump",
				Usage:       "print the layout dump to stderr",
				Destination: &showDmp,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			l, err := catalog.Builtin().Lookup(layoutName)
			if err != nil {
				return err
			}
			src, err := packSource(inPath, inline, maxInput)
			if err != nil {
				return err
			}
			packed, rec, err := runPack(l, src)
			if err != nil {
				return err
			}
			if showDmp {
				_, _ = fmt.Fprintln(cmd.Root().ErrWriter, rec.String())
			}

			dest, defaulted, err := resolvePackOut(l.Name, outPath)
			if err != nil {
				return err
			}
			if dest == "" {
				_, err = cmd.Root().Writer.Write(packed)
				return err
			}
			if defaulted {
				log.Info("stdout is a terminal, writing to file", "path", dest)
			}
			if err := os.WriteFile(dest, packed, 0o644); err != nil {
				return err
			}
			log.Info("packed", "layout", l.Name, "bytes", len(packed), "path", dest)
			return nil
		},
	}
}

func packSource(inPath, inline string, limit int64) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		if inPath != "" {
			return nil, fmt.Errorf("use either --in or --value, not both")
		}
		return []byte(inline), nil
	}
	if inPath == "" {
		return nil, fmt.Errorf("a value is required: pass --value, or --in FILE (- for stdin)")
	}
	in, err := openInput(inPath, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()
	return append([]byte(nil), in.Data...), nil
}

func runPack(l catalog.Layout, src []byte) ([]byte, *plum.Record, error) {
	v, err := plum.UnmarshalValue(l.Type, src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", l.Name, err)
	}
	return plum.PackAndGetDump(l.Type, v)
}
